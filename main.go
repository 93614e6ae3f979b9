// 命令行入口：
// - 解析 flags 与 settings.yaml/rules.yaml
// - 初始化日志、缓存、HTTP 客户端
// - 导入 CSV（本地文件或远程地址），否则从缓存恢复
// - 按 flags 过滤排序，打印统计或导出当前视图
// - -serve 时启动 HTTP API
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"linkedin-analytics/internal/auth"
	"linkedin-analytics/internal/config"
	"linkedin-analytics/internal/dashboard"
	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/fetch"
	"linkedin-analytics/internal/filter"
	"linkedin-analytics/internal/httpserver"
	"linkedin-analytics/internal/ingest"
	"linkedin-analytics/internal/logx"
	"linkedin-analytics/internal/model"
	"linkedin-analytics/internal/rules"
	"linkedin-analytics/internal/stats"
	"linkedin-analytics/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml (defaults are used when missing)")
		rulesPath  = flag.String("rules", "rules.yaml", "path to rules.yaml (optional)")
		presetName = flag.String("preset", "default", "rules preset used to find the CSV link on an HTML page")
		csvPath    = flag.String("csv", "", "import a local CSV file")
		csvURL     = flag.String("url", "", "import a CSV (or an HTML page linking to one) by URL")
		exportPath = flag.String("export", "", "write the current view as JSON to this path")
		showStats  = flag.Bool("stats", false, "print summary statistics as JSON")
		clearCache = flag.Bool("clear", false, "clear cached data and login marker before anything else")
		serve      = flag.Bool("serve", false, "start the HTTP API")
		hashPass   = flag.String("hash-password", "", "print a bcrypt hash for AUTH.users and exit")

		dateMode     = flag.String("date", "all", "date filter: all|day|week|month|custom")
		dateFrom     = flag.String("from", "", "custom range start (2006-01-02 or RFC3339)")
		dateTo       = flag.String("to", "", "custom range end (2006-01-02 or RFC3339)")
		types        = flag.String("types", "all", "comma separated types: post,comment,reaction,repost,unknown")
		headline     = flag.String("headline", "", "author headline contains")
		text         = flag.String("text", "", "text contains")
		highComments = flag.Bool("high-comments", false, "only entries with many comments")
		highLikes    = flag.Bool("high-likes", false, "only entries with many likes")
		sortField    = flag.String("sort", "posted", "sort field: type|author|headline|posted|likes|comments|shares")
		sortDir      = flag.String("dir", "desc", "sort direction: asc|desc")
	)
	flag.Parse()

	if *hashPass != "" {
		h, err := auth.HashPassword(*hashPass)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(h)
		return
	}

	// 1) 加载配置与规则
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("load config: %v", err)
		}
		cfg = config.Default()
	}
	rl := rules.Builtin()
	if *rulesPath != "" {
		if r, err := rules.Load(*rulesPath); err == nil {
			rl = r
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("load rules failed: %v", err)
		}
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	ctx := context.Background()

	// 3) 缓存与 HTTP 客户端
	cache, err := store.Open(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	cl, err := fetch.New(fetch.OptionsFrom(cfg))
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	preset, ok := rl.GetPreset(*presetName)
	if !ok {
		preset, _ = rules.Builtin().GetPreset("default")
	}

	pipeline := ingest.NewPipeline(dataset.NewHolder(),
		ingest.WithCache(cache),
		ingest.WithRemote(cl, preset),
	)
	svc := dashboard.New(pipeline)

	if *clearCache {
		svc.Clear(ctx)
		if err := cache.Reset(ctx); err != nil {
			logx.Warnf("清理缓存失败：%v", err)
		} else {
			logx.Infof("已清理缓存数据与登录标记")
		}
	}

	// 4) 导入：本地文件优先，其次远程地址，否则尝试从缓存恢复
	if err := load(ctx, svc, *csvPath, *csvURL); err != nil {
		logx.Errorf("%v", err)
		os.Exit(1)
	}

	// 5) 过滤与排序
	spec := filter.DefaultSpec()
	if spec.Date, err = filter.ParseDateMode(*dateMode); err != nil {
		log.Fatalf("flags: %v", err)
	}
	if spec.From, err = filter.ParseDate(*dateFrom); err != nil {
		log.Fatalf("flags: %v", err)
	}
	if spec.To, err = filter.ParseDate(*dateTo); err != nil {
		log.Fatalf("flags: %v", err)
	}
	spec.Types = filter.ParseTypes(*types)
	spec.Headline, spec.Text = *headline, *text
	spec.HighComments, spec.HighLikes = *highComments, *highLikes
	srt := filter.NewSort(*sortField, *sortDir)
	view, _ := svc.Apply(spec, &srt)
	if svc.Loaded() {
		if msg := svc.ViewMessage(view); msg != "" {
			logx.Warnf("%s", msg)
		}
		printPage(view, cfg.View)
	}

	if *showStats {
		if err := printStats(svc); err != nil {
			logx.Warnf("%v", err)
		}
	}

	if *exportPath != "" {
		if err := svc.ExportFile(*exportPath); err != nil {
			log.Fatalf("export json: %v", err)
		}
		logx.Infof("已导出 %s（%d 条）", *exportPath, len(svc.CurrentView()))
	}

	if !*serve {
		return
	}

	// 6) HTTP API：配置了用户时启用登录与令牌校验
	var am *auth.Manager
	if len(cfg.Auth.Users) > 0 {
		tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
		if err != nil {
			log.Fatalf("auth tokens: %v", err)
		}
		am = auth.NewManager(auth.NewStatic(cfg.Auth.Users), cache, tokens)
	}
	if err := httpserver.New(cfg, svc, am).Run(ctx); err != nil {
		logx.Errorf("HTTP 服务异常退出：%v", err)
		os.Exit(1)
	}
}

func load(ctx context.Context, svc *dashboard.Service, path, url string) error {
	switch {
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return errors.New(dashboard.ProcessingError(err))
		}
		defer f.Close()
		snap, msg, err := svc.Ingest(ctx, f)
		if err != nil {
			return errors.New(msg)
		}
		report(snap, msg, path)
	case url != "":
		snap, msg, err := svc.IngestURL(ctx, url)
		if err != nil {
			return errors.New(msg)
		}
		report(snap, msg, url)
	default:
		if svc.Reload(ctx) {
			logx.Infof("已从缓存恢复 %d 条", len(svc.CurrentView()))
		} else {
			logx.Infof("%s", dashboard.MsgNoData)
		}
	}
	return nil
}

func report(snap *dataset.Snapshot, msg, from string) {
	if msg != "" {
		logx.Warnf("%s", msg)
		return
	}
	logx.Infof("已导入 %s：%d 行，有效 %d 条", from, len(snap.Raw), len(snap.Records))
}

// printPage 打印当前视图第一页。
func printPage(view []model.Record, v config.View) {
	items, pg := dashboard.Page(view, 1, v.RowsPerPage)
	logx.Infof("共 %d 条，第 %d/%d 页", pg.Total, pg.CurrentPage, pg.TotalPages)
	for _, r := range items {
		logx.Infof("- [%s] %s | %s | 赞=%d 评=%d 转=%d | %s",
			r.Type, r.FormattedDate(), r.AuthorName, r.NumLikes, r.NumComments, r.NumShares, r.ContentPreview(v.PreviewLength))
	}
}

func printStats(svc *dashboard.Service) error {
	st, err := svc.Stats()
	if err != nil {
		return err
	}
	st.PostsPerMonth = stats.Chronological(st.PostsPerMonth)
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	fmt.Println(string(b))
	return nil
}
