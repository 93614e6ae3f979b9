// 包 source 负责把远程地址解析为 CSV 内容：
// - 地址直接返回 CSV 时原样使用
// - 返回网页时依据 rules.yaml 预设的 CSS 选择器定位 CSV 链接再下载
// - 支持 "选择器@属性" 以及 "||" 多方案回退与相对 URL 绝对化
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedin-analytics/internal/fetch"
	"linkedin-analytics/internal/logx"
	"linkedin-analytics/internal/rules"
)

// ErrNoCSVLink 表示网页中未找到 CSV 链接。
var ErrNoCSVLink = errors.New("no csv link found on page")

// Link 为网页中的候选下载链接。
type Link struct {
	Name string
	URL  string
}

// Resolve 下载 rawURL；若得到网页，则按预设查找第一个 CSV 链接并下载之。
// 返回 CSV 字节与其最终地址。
func Resolve(ctx context.Context, cl *fetch.Client, rawURL string, preset rules.Preset) ([]byte, string, error) {
	doc, err := cl.Fetch(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	if !doc.IsHTML() {
		return doc.Body, doc.URL, nil
	}
	links, err := FindCSVLinks(bytes.NewReader(doc.Body), doc.URL, preset)
	if err != nil {
		return nil, "", err
	}
	if len(links) == 0 {
		return nil, "", fmt.Errorf("%s: %w", doc.URL, ErrNoCSVLink)
	}
	logx.Debugf("从网页发现 CSV 链接：%s", links[0].URL)
	csvDoc, err := cl.Fetch(ctx, links[0].URL)
	if err != nil {
		return nil, "", err
	}
	if csvDoc.IsHTML() {
		return nil, "", fmt.Errorf("%s: linked resource is html, not csv", links[0].URL)
	}
	return csvDoc.Body, csvDoc.URL, nil
}

// FindCSVLinks 按页面顺序返回看起来指向 CSV 的链接（路径以 .csv 结尾，或链接文字含 csv）。
// 规则语法：
// - 文本：".name" 或 "."（取当前项文本）
// - 属性："a@href"/"@href"（当前项属性）
// - 回退：使用 "||" 连接多个候选，按先后尝试
func FindCSVLinks(r io.Reader, pageURL string, preset rules.Preset) ([]Link, error) {
	cl := preset.CSVLink
	if cl == nil {
		cl = &rules.CSVLink{Item: "a[href]", Link: "@href", Name: "."}
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	var out []Link
	seen := map[string]bool{}
	doc.Find(cl.Item).Each(func(_ int, s *goquery.Selection) {
		link := abs(pageURL, getVal(s, cl.Link))
		name := strings.TrimSpace(getVal(s, cl.Name))
		if link == "" || seen[link] || !looksLikeCSV(link, name) {
			return
		}
		seen[link] = true
		out = append(out, Link{Name: name, URL: link})
	})
	return out, nil
}

func looksLikeCSV(link, name string) bool {
	if u, err := url.Parse(link); err == nil {
		if strings.EqualFold(path.Ext(u.Path), ".csv") {
			return true
		}
		if strings.EqualFold(u.Query().Get("format"), "csv") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(name), "csv")
}

// getVal 解析表达式并支持使用 "||" 作为回退分隔，例如："a@href||@href" 或 ".name||."。
func getVal(scope *goquery.Selection, expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	if strings.Contains(expr, "||") {
		for _, p := range strings.Split(expr, "||") {
			if v := getValSingle(scope, strings.TrimSpace(p)); v != "" {
				return v
			}
		}
		return ""
	}
	return getValSingle(scope, expr)
}

// getValSingle 解析单个表达式：文本或 属性 读取。
func getValSingle(scope *goquery.Selection, expr string) string {
	if expr == "" {
		return ""
	}
	if expr == "." {
		return strings.TrimSpace(scope.Text())
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		if sel == "" {
			val, _ := scope.Attr(attr)
			return strings.TrimSpace(val)
		}
		val, _ := scope.Find(sel).First().Attr(attr)
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(scope.Find(expr).First().Text())
}

// abs 将相对链接转换为绝对 URL。
func abs(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return bu.ResolveReference(ru).String()
}
