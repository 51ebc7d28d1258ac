package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scraper.PageTimeout = 2 * time.Second
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func mustRequest(t *testing.T, rawURL string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(rawURL, types.TagDetail)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestHTTPSessionSendsProfileHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	sess, err := f.NewSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	resp, err := sess.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if gotUA != config.DefaultConfig().Scraper.UserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotLang != "en-GB,en;q=0.9" {
		t.Errorf("Accept-Language = %q", gotLang)
	}
}

func TestHTTPSessionsDoNotShareCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("sid"); err == nil {
			_, _ = w.Write([]byte("returning"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	ctx := context.Background()

	first, _ := f.NewSession(ctx)
	defer first.Close()
	fetchBody := func(s Session) string {
		resp, err := s.Fetch(ctx, mustRequest(t, srv.URL))
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		return string(resp.Body)
	}

	if got := fetchBody(first); got != "fresh" {
		t.Fatalf("first visit = %q, want fresh", got)
	}
	if got := fetchBody(first); got != "returning" {
		t.Errorf("same session should keep its cookie, got %q", got)
	}

	second, _ := f.NewSession(ctx)
	defer second.Close()
	if got := fetchBody(second); got != "fresh" {
		t.Errorf("new session must start without cookies, got %q", got)
	}
}

func TestHTTPSessionStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sess, _ := newTestFetcher(t).NewSession(context.Background())
	_, err := sess.Fetch(context.Background(), mustRequest(t, srv.URL))

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", fe.StatusCode)
	}
	if fe.IsTimeout() {
		t.Error("5xx must not be reported as timeout")
	}
}

func TestHTTPSessionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	sess, _ := newTestFetcher(t).NewSession(context.Background())
	req := mustRequest(t, srv.URL)
	req.Timeout = 50 * time.Millisecond

	_, err := sess.Fetch(context.Background(), req)
	if !types.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !errors.Is(err, types.ErrTimeout) {
		t.Error("timeout should wrap ErrTimeout")
	}
}

func TestHTTPSessionParentCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, _ := newTestFetcher(t).NewSession(context.Background())
	_, err := sess.Fetch(ctx, mustRequest(t, srv.URL))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPSessionBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write([]byte("<html><body><h1>compressed</h1></body></html>"))
	_ = bw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	sess, _ := newTestFetcher(t).NewSession(context.Background())
	resp, err := sess.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	doc, err := resp.Document()
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("h1").Text(); got != "compressed" {
		t.Errorf("h1 = %q", got)
	}
}

func TestHTTPSessionBodyLimitAppliesToDecodedBody(t *testing.T) {
	page := bytes.Repeat([]byte("a"), 4096)
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write(page)
	_ = bw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exact":
			_, _ = w.Write(page[:1024])
		default:
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
		}
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Scraper.PageTimeout = 2 * time.Second
	cfg.Fetcher.MaxBodySize = 1024
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	sess, _ := f.NewSession(ctx)
	defer sess.Close()

	if buf.Len() >= 1024 {
		t.Fatalf("compressed page should fit under the limit, got %d bytes", buf.Len())
	}
	_, err = sess.Fetch(ctx, mustRequest(t, srv.URL+"/big"))
	if !errors.Is(err, types.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected FetchError, got %T", err)
	}

	resp, err := sess.Fetch(ctx, mustRequest(t, srv.URL+"/exact"))
	if err != nil {
		t.Fatalf("body at the limit should pass: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("body length = %d, want 1024", len(resp.Body))
	}
}

func TestProfileAcceptLanguage(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en-GB", "en-GB,en;q=0.9"},
		{"fr", "fr"},
		{"", "en-US,en;q=0.9"},
	}
	for _, tt := range tests {
		if got := (Profile{Locale: tt.locale}).AcceptLanguage(); got != tt.want {
			t.Errorf("AcceptLanguage(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestNewUnknownType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fetcher.Type = "carrier-pigeon"
	if _, err := New(cfg, testLogger); !errors.Is(err, types.ErrNoFetcher) {
		t.Errorf("expected ErrNoFetcher, got %v", err)
	}
}
