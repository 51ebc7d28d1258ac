package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// HTTPFetcher implements Fetcher using net/http. Sessions share the
// connection pool and nothing else.
type HTTPFetcher struct {
	transport   *http.Transport
	profile     Profile
	maxBodySize int64
	timeout     time.Duration
	proxies     *ProxyPool
	logger      *slog.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: max(cfg.Fetcher.MaxIdleConns/2, 1),
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetcher.TLSInsecure,
			MinVersion:         tls.VersionTLS12,
		},
		DisableCompression: true, // decompression (including brotli) is done in decompressReader
	}

	proxies, err := NewProxyPool(&cfg.Fetcher.Proxy, logger)
	if err != nil {
		return nil, err
	}

	return &HTTPFetcher{
		transport:   transport,
		profile:     ProfileFromConfig(&cfg.Scraper),
		maxBodySize: cfg.Fetcher.MaxBodySize,
		timeout:     cfg.Scraper.PageTimeout,
		proxies:     proxies,
		logger:      logger.With("component", "http_fetcher"),
	}, nil
}

// NewSession returns a session with a fresh cookie jar. With a proxy pool
// configured the session gets its own transport pinned to one proxy.
func (f *HTTPFetcher) NewSession(_ context.Context) (Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	s := &httpSession{
		fetcher: f,
		client: &http.Client{
			Transport: f.transport,
			Jar:       jar,
		},
	}
	if proxy := f.proxies.Next(); proxy != nil {
		s.owned = f.transport.Clone()
		s.owned.Proxy = http.ProxyURL(proxy)
		s.client.Transport = s.owned
		f.logger.Debug("session proxy", "proxy", proxy.Redacted())
	}
	return s, nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

type httpSession struct {
	fetcher *HTTPFetcher
	client  *http.Client
	owned   *http.Transport // per-session proxy transport, nil when sharing the pool
}

// Fetch executes a GET request and returns the decoded response.
// Non-2xx statuses are reported as FetchError.
func (s *httpSession) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	f := s.fetcher
	fctx, cancel := sessionContext(ctx, req, f.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(fctx, http.MethodGet, req.URLString(), nil)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	f.profile.applyHeaders(httpReq.Header)

	start := time.Now()
	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, wrapFetchError(ctx, req.URLString(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, truncate(string(body), 120)),
		}
	}

	reader, err := decompressReader(httpResp, httpResp.Body)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	// The cap applies to the decoded page; one extra byte detects overflow.
	if f.maxBodySize > 0 {
		reader = io.LimitReader(reader, f.maxBodySize+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, wrapFetchError(ctx, req.URLString(), err)
	}
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", types.ErrBodyTooLarge, f.maxBodySize),
		}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: httpResp.StatusCode, Err: types.ErrEmptyResponse}
	}

	duration := time.Since(start)
	resp := types.NewResponse(req, httpResp, body, duration)

	f.logger.Debug("fetch complete",
		"url", req.URLString(),
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return resp, nil
}

// Close drops the session's cookies.
func (s *httpSession) Close() error {
	s.client.Jar = nil
	if s.owned != nil {
		s.owned.CloseIdleConnections()
	}
	return nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
