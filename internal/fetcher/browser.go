package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// Each session runs in its own incognito context with a stealth page.
type BrowserFetcher struct {
	browser *rod.Browser
	profile Profile
	timeout time.Duration
	logger  *slog.Logger
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		profile: ProfileFromConfig(&cfg.Scraper),
		timeout: cfg.Scraper.PageTimeout,
		logger:  logger.With("component", "browser_fetcher"),
	}

	proxies, err := NewProxyPool(&cfg.Fetcher.Proxy, logger)
	if err != nil {
		return nil, err
	}

	proxy := proxies.Next()
	if proxy != nil && proxy.User != nil {
		bf.logger.Warn("browser proxy credentials are ignored", "proxy", proxy.Redacted())
	}

	launchURL, err := launchBrowser(cfg, bf.profile, proxy)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready",
		"headless", cfg.Fetcher.Headless,
		"locale", bf.profile.Locale,
	)

	return bf, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func launchBrowser(cfg *config.Config, p Profile, proxy *url.URL) (string, error) {
	l := launcher.New().
		Headless(cfg.Fetcher.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if p.ViewportWidth > 0 && p.ViewportHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", p.ViewportWidth, p.ViewportHeight))
	}
	if p.Locale != "" {
		l = l.Set("lang", p.Locale)
	}
	if proxy != nil {
		// Chromium takes one proxy for the whole process.
		l = l.Proxy(proxy.Scheme + "://" + proxy.Host)
	}

	return l.Launch()
}

// NewSession opens an incognito context with a single stealth page.
func (bf *BrowserFetcher) NewSession(ctx context.Context) (Session, error) {
	incognito, err := bf.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("open incognito context: %w", err)
	}

	page, err := stealth.Page(incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}

	if err := bf.profile.applyToPage(page); err != nil {
		_ = page.Close()
		_ = incognito.Close()
		return nil, err
	}

	return &browserSession{
		fetcher:   bf,
		incognito: incognito,
		page:      page,
	}, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

type browserSession struct {
	fetcher   *BrowserFetcher
	incognito *rod.Browser
	page      *rod.Page
}

// Fetch navigates to a URL and returns the rendered page content once the
// DOM is loaded (and, if requested, once WaitSelector matches).
func (s *browserSession) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	bf := s.fetcher
	start := time.Now()

	fctx, cancel := sessionContext(ctx, req, bf.timeout)
	defer cancel()
	page := s.page.Context(fctx)

	waitLoaded := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(req.URLString()); err != nil {
		return nil, wrapFetchError(ctx, req.URLString(), err)
	}
	waitLoaded()
	if err := fctx.Err(); err != nil {
		return nil, wrapFetchError(ctx, req.URLString(), err)
	}

	if req.WaitSelector != "" {
		wait := req.WaitTimeout
		if wait <= 0 {
			wait = bf.timeout
		}
		if _, err := page.Timeout(wait).Element(req.WaitSelector); err != nil {
			bf.logger.Debug("wait selector not matched, continuing",
				"url", req.URLString(),
				"selector", req.WaitSelector,
				"error", err,
			)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, wrapFetchError(ctx, req.URLString(), err)
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	resp := types.NewBrowserResponse(req, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close closes the page and discards the incognito context.
func (s *browserSession) Close() error {
	pageErr := s.page.Close()
	if err := s.incognito.Close(); err != nil {
		return err
	}
	return pageErr
}
