package fetcher

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/CourseLens/internal/config"
)

func TestProxyPoolEmpty(t *testing.T) {
	pool, err := NewProxyPool(&config.ProxyConfig{}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyPool: %v", err)
	}
	if pool != nil {
		t.Fatal("expected nil pool without proxies")
	}
	if pool.Next() != nil || pool.Len() != 0 {
		t.Error("nil pool should hand out nothing")
	}
}

func TestProxyPoolRoundRobin(t *testing.T) {
	pool, err := NewProxyPool(&config.ProxyConfig{
		URLs:     []string{"http://a.example:8080", "http://b.example:8080"},
		Rotation: "round_robin",
	}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyPool: %v", err)
	}

	want := []string{"a.example:8080", "b.example:8080", "a.example:8080"}
	for i, host := range want {
		if got := pool.Next().Host; got != host {
			t.Errorf("Next() #%d = %s, want %s", i, got, host)
		}
	}
}

func TestProxyPoolRandomStaysInPool(t *testing.T) {
	pool, err := NewProxyPool(&config.ProxyConfig{
		URLs:     []string{"http://a.example:1", "socks5://b.example:2"},
		Rotation: "random",
	}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyPool: %v", err)
	}
	for i := 0; i < 20; i++ {
		switch pool.Next().Host {
		case "a.example:1", "b.example:2":
		default:
			t.Fatal("proxy outside the pool")
		}
	}
}

func TestProxyPoolInvalidURL(t *testing.T) {
	_, err := NewProxyPool(&config.ProxyConfig{URLs: []string{"not a proxy"}}, testLogger)
	if err == nil {
		t.Fatal("expected error for invalid proxy URL")
	}
}

func TestHTTPSessionUsesProxy(t *testing.T) {
	var hits atomic.Int64
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("via proxy " + r.Host))
	}))
	defer proxy.Close()

	cfg := config.DefaultConfig()
	cfg.Scraper.PageTimeout = 2 * time.Second
	cfg.Fetcher.Proxy.URLs = []string{proxy.URL}
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	s, err := f.NewSession(ctx)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	resp, err := s.Fetch(ctx, mustRequest(t, "http://courses.example/courses/go"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := string(resp.Body); got != "via proxy courses.example" {
		t.Errorf("body = %q", got)
	}
	if hits.Load() != 1 {
		t.Errorf("proxy hits = %d, want 1", hits.Load())
	}
}

func TestProxiedSessionsReleaseConnections(t *testing.T) {
	var open atomic.Int64
	proxy := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	proxy.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		switch state {
		case http.StateNew:
			open.Add(1)
		case http.StateClosed, http.StateHijacked:
			open.Add(-1)
		}
	}
	proxy.Start()
	defer proxy.Close()

	cfg := config.DefaultConfig()
	cfg.Scraper.PageTimeout = 2 * time.Second
	cfg.Fetcher.Proxy.URLs = []string{proxy.URL}
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		s, err := f.NewSession(ctx)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		if _, err := s.Fetch(ctx, mustRequest(t, "http://courses.example/courses/go")); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		_ = s.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for open.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := open.Load(); n != 0 {
		t.Errorf("open proxy connections after closing sessions = %d, want 0", n)
	}
}
