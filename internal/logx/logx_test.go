package logx_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"linkedin-analytics/internal/logx"
)

func TestLogx_PrettyZH_Info(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "debug", "pretty", "zh-CN", "never")
	logx.Infof("loaded %d entries", 3)
	out := buf.String()
	if !strings.Contains(out, "[信息]") || !strings.Contains(out, "loaded 3 entries") {
		t.Fatalf("expect zh label [信息], got: %q", out)
	}
}

func TestLogx_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "warn", "pretty", "zh-CN", "never")
	logx.Infof("should not print")
	logx.Warnf("cache write failed")
	out := buf.String()
	if strings.Contains(out, "should not print") {
		t.Fatalf("info should be filtered when level=warn")
	}
	if !strings.Contains(out, "[警告]") {
		t.Fatalf("expect warn label present")
	}
}

func TestLogx_Silent(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "off", "pretty", "en", "never")
	logx.Errorf("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expect no output, got %q", buf.String())
	}
}

func TestLogx_EnglishLabels(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "info", "pretty", "en", "never")
	logx.Infof("ok")
	if !strings.Contains(buf.String(), "[INFO]") {
		t.Fatalf("expect en label [INFO], got: %q", buf.String())
	}
}

func TestLogx_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "info", "json", "en", "never")
	logx.Infof("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("expect json output, got: %q", buf.String())
	}
}

func TestLogx_ErrorfAndColorAlways(t *testing.T) {
	// 确保未受 NO_COLOR 影响
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	logx.InitWriter(&buf, "error", "pretty", "zh-CN", "always")
	logx.Errorf("boom %d", 1)
	out := buf.String()
	if !strings.Contains(out, "[错误]") {
		t.Fatalf("expect error label, got: %q", out)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expect ansi color when color=always")
	}
}

func TestLogx_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := logx.NewPrettyHandler(&buf, slog.LevelInfo, "en", "never")
	logger := slog.New(h).With("k", "v").WithGroup("req")
	logger.Info("hello", "path", "/api/stats")
	s := buf.String()
	if !strings.Contains(s, " k=v") {
		t.Fatalf("expect ungrouped attr present, got: %q", s)
	}
	if !strings.Contains(s, "req.path=/api/stats") {
		t.Fatalf("expect grouped attr, got: %q", s)
	}
}

func TestLogx_ComponentAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "debug", "pretty", "en", "never")
	logx.Component("http").Debug("request", "path", "/api/entries", "note", "two words", "empty", "")
	s := buf.String()
	for _, want := range []string{"[DEBUG] request", "http.path=/api/entries", `http.note="two words"`, `http.empty=""`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in %q", want, s)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if logx.ParseLevel("off") <= slog.LevelError {
		t.Fatalf("off must be above every real level")
	}
}
