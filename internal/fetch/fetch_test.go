package fetch_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"linkedin-analytics/internal/config"
	"linkedin-analytics/internal/fetch"
)

func TestFetch_UserAgentAndSuccess(t *testing.T) {
	t.Setenv("LIA_UA", "test-agent/1.0")
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := cl.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if gotUA != "test-agent/1.0" {
		t.Fatalf("user-agent = %q, want %q", gotUA, "test-agent/1.0")
	}
}

func TestFetch_RetryOnStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Retry: 1, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := cl.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestFetch_NoRetryExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cl, _ := fetch.New(fetch.Options{Timeout: 2 * time.Second})
	if _, err := cl.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expect error for 404")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cl, _ := fetch.New(fetch.Options{Retry: 2, Timeout: 2 * time.Second})
	_, err := cl.Get(context.Background(), srv.URL)
	var se *fetch.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expect StatusError 403, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("4xx must not be retried: calls = %d", n)
	}
}

func TestFetch_MinInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, _ := fetch.New(fetch.Options{Timeout: 2 * time.Second, MinInterval: 50 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := cl.Get(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		resp.Body.Close()
	}
	// 首个请求不等待，其后每次至少间隔 50ms
	if d := time.Since(start); d < 90*time.Millisecond {
		t.Fatalf("requests not spaced: %v", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cl.Get(ctx, srv.URL); err == nil {
		t.Fatalf("expect error for cancelled context")
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = cl.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetch_DocumentContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html></html>"))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	cl, _ := fetch.New(fetch.OptionsFrom(config.Default()))
	doc, err := cl.Fetch(context.Background(), srv.URL+"/page")
	if err != nil || !doc.IsHTML() {
		t.Fatalf("page: %+v %v", doc, err)
	}
	doc, err = cl.Fetch(context.Background(), srv.URL+"/data.csv")
	if err != nil || doc.IsHTML() || string(doc.Body) != "a,b\n1,2\n" {
		t.Fatalf("csv: %+v %v", doc, err)
	}
}
