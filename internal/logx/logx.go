// 包 logx 基于 slog 提供全局日志：
// - LOG_LEVEL/LOG_FORMAT/LOG_LOCALE/LOG_COLOR 四项配置
// - pretty 格式面向人读，等级标签随语言切换（[信息] / [INFO]）
// - Debugf/Infof/Warnf/Errorf 供导入、缓存、HTTP 各层统一调用
// - Component 返回带分组前缀的 logger，用于结构化字段
package logx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// levelOff 高于任何实际等级，用于完全静默。
const levelOff = slog.Level(100)

// Options 为日志配置，字段含义与 settings.yaml 中的 LOG_* 一致。
type Options struct {
	Level  string
	Format string // pretty|json|text
	Locale string // zh-CN|en
	Color  string // auto|always|never
}

// Init 按配置初始化全局日志器，输出到标准输出。
func Init(level, format, locale, colorMode string) {
	InitWriter(os.Stdout, level, format, locale, colorMode)
}

// InitWriter 同 Init，但输出到 w（nil 时为标准输出）。
func InitWriter(w io.Writer, level, format, locale, colorMode string) {
	slog.SetDefault(New(w, Options{Level: level, Format: format, Locale: locale, Color: colorMode}))
}

// New 构造 logger，不修改全局状态。
func New(w io.Writer, o Options) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lv := ParseLevel(o.Level)
	switch strings.ToLower(strings.TrimSpace(o.Format)) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
	case "text":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
	default:
		return slog.New(NewPrettyHandler(w, lv, o.Locale, o.Color))
	}
}

// ParseLevel 解析等级名；off/none/silent 关闭全部输出，无法识别时为 info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off", "none", "silent":
		return levelOff
	}
	return slog.LevelInfo
}

func Debugf(format string, v ...any) { logf(slog.LevelDebug, format, v) }
func Infof(format string, v ...any)  { logf(slog.LevelInfo, format, v) }
func Warnf(format string, v ...any)  { logf(slog.LevelWarn, format, v) }
func Errorf(format string, v ...any) { logf(slog.LevelError, format, v) }

func logf(l slog.Level, format string, v []any) {
	lg := slog.Default()
	if !lg.Enabled(context.Background(), l) {
		return
	}
	lg.Log(context.Background(), l, fmt.Sprintf(format, v...))
}

// Component 返回以 name 分组的全局 logger，属性输出为 "name.key=value"。
func Component(name string) *slog.Logger {
	return slog.Default().WithGroup(name)
}

// label 为单个等级在 pretty 输出中的外观。
type label struct {
	zh, en string
	ansi   string
}

var labels = map[slog.Level]label{
	slog.LevelDebug: {"[调试]", "[DEBUG]", "90"},
	slog.LevelInfo:  {"[信息]", "[INFO]", "36"},
	slog.LevelWarn:  {"[警告]", "[WARN]", "33"},
	slog.LevelError: {"[错误]", "[ERROR]", "31"},
}

func (h *PrettyHandler) levelText(l slog.Level) string {
	lb, ok := labels[l]
	if !ok {
		lb = label{zh: fmt.Sprintf("[L%d]", l), en: fmt.Sprintf("[L%d]", l), ansi: "0"}
	}
	s := lb.en
	if h.zh {
		s = lb.zh
	}
	if h.color {
		s = "\x1b[" + lb.ansi + "m" + s + "\x1b[0m"
	}
	return s
}

// PrettyHandler 输出 "时间 等级 消息 k=v ..." 单行文本。
type PrettyHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	zh    bool
	color bool
	attrs []slog.Attr // 已加分组前缀
	group string
}

// NewPrettyHandler 创建 pretty handler；locale 以 zh 开头（或为空）时使用中文标签。
func NewPrettyHandler(w io.Writer, lv slog.Leveler, locale, colorMode string) slog.Handler {
	if w == nil {
		w = os.Stdout
	}
	if lv == nil {
		lv = slog.LevelInfo
	}
	locale = strings.ToLower(strings.TrimSpace(locale))
	return &PrettyHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: lv,
		zh:    locale == "" || strings.HasPrefix(locale, "zh"),
		color: useColor(w, colorMode),
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	floor := h.level.Level()
	return floor < levelOff && l >= floor
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s %s", ts.Format("2006-01-02 15:04:05"), h.levelText(r.Level), r.Message)
	for _, a := range h.attrs {
		writeAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.qualify(a))
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// writeAttr 追加 " key=value"，值含空白或为空时加引号。
func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	v := a.Value.Resolve().String()
	if v == "" || strings.ContainsAny(v, " \t\n\"") {
		v = strconv.Quote(v)
	}
	buf.WriteByte(' ')
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(v)
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	cp.attrs = append(cp.attrs, h.attrs...)
	for _, a := range attrs {
		cp.attrs = append(cp.attrs, h.qualify(a))
	}
	return &cp
}

// WithGroup 之后添加的属性以 "group.key" 输出；之前的属性不受影响。
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	if cp.group != "" {
		name = cp.group + "." + name
	}
	cp.group = name
	return &cp
}

func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

// useColor 决定是否输出 ANSI 颜色：NO_COLOR 优先，其次 always/never，auto 仅对终端启用。
func useColor(w io.Writer, mode string) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		fi, err := f.Stat()
		return err == nil && fi.Mode()&os.ModeCharDevice != 0
	}
	return false
}
