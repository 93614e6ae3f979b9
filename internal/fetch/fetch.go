// 包 fetch 封装 HTTP 客户端（代理/超时/重试），用于下载远程 CSV 及其所在网页。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"linkedin-analytics/internal/config"
)

// MaxBody 为单次下载允许的最大字节数。
const MaxBody = 64 << 20

// DefaultUserAgent 在未设置 Options.UserAgent 与环境变量 LIA_UA 时使用。
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// Client 为带重试与限速的 HTTP 客户端。
type Client struct {
	http    *http.Client
	retry   int
	ua      string
	limiter *rate.Limiter
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	UserAgent  string
	// MinInterval 为相邻两次请求（含重试）的最小间隔，0 表示不限速。
	MinInterval time.Duration
}

// OptionsFrom 由应用配置生成客户端参数。
func OptionsFrom(c *config.Config) Options {
	return Options{
		ProxyHTTP:   c.Proxy.HTTP,
		ProxyHTTPS:  c.Proxy.HTTPS,
		Timeout:     time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Retry:       c.Fetch.Retry,
		MinInterval: time.Duration(c.Fetch.MinIntervalMillis) * time.Millisecond,
	}
}

// New 创建客户端。代理按请求协议选择，未配置时回退到环境变量。
func New(opts Options) (*Client, error) {
	proxies := map[string]string{"http": opts.ProxyHTTP, "https": opts.ProxyHTTPS}
	for scheme, raw := range proxies {
		if raw == "" {
			continue
		}
		if _, err := url.Parse(raw); err != nil {
			return nil, fmt.Errorf("parse %s proxy: %w", scheme, err)
		}
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if raw := proxies[req.URL.Scheme]; raw != "" {
				return url.Parse(raw)
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = os.Getenv("LIA_UA")
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		http:    &http.Client{Transport: transport, Timeout: opts.Timeout},
		retry:   max(opts.Retry, 0),
		ua:      ua,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// StatusError 为非 2xx 响应。
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "http status: " + e.Status }

// transient 报告错误是否值得重试：网络错误、429 与 5xx。
func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// Get 发起 GET 请求，仅 2xx 视为成功；临时性失败按线性回退重试。
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}
		resp, err := c.do(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !transient(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/csv,text/html;q=0.9,*/*;q=0.8")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Document 为一次下载的结果。
type Document struct {
	URL         string // 重定向后的最终地址
	ContentType string // 去掉参数的媒体类型，如 text/csv
	Body        []byte
}

// IsHTML 报告响应是否为网页。
func (d *Document) IsHTML() bool {
	return d.ContentType == "text/html" || d.ContentType == "application/xhtml+xml"
}

// Fetch 下载 url 的完整内容（上限 MaxBody）。
func (c *Client) Fetch(ctx context.Context, url string) (*Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > MaxBody {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", url, MaxBody)
	}
	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Document{URL: final, ContentType: ct, Body: body}, nil
}
