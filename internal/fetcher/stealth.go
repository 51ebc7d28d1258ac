package fetcher

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/CourseLens/internal/config"
)

// Profile is the browser identity every session presents.
type Profile struct {
	UserAgent      string
	Locale         string
	ViewportWidth  int
	ViewportHeight int
}

// ProfileFromConfig builds the session profile from scraper settings.
func ProfileFromConfig(cfg *config.ScraperConfig) Profile {
	return Profile{
		UserAgent:      cfg.UserAgent,
		Locale:         cfg.Locale,
		ViewportWidth:  cfg.ViewportW,
		ViewportHeight: cfg.ViewportH,
	}
}

// AcceptLanguage renders the locale as an Accept-Language header value,
// e.g. "en-GB" becomes "en-GB,en;q=0.9".
func (p Profile) AcceptLanguage() string {
	if p.Locale == "" {
		return "en-US,en;q=0.9"
	}
	base, _, found := strings.Cut(p.Locale, "-")
	if !found || base == p.Locale {
		return p.Locale
	}
	return fmt.Sprintf("%s,%s;q=0.9", p.Locale, base)
}

// applyHeaders sets browser-like request headers in the order a desktop
// Chrome would send them.
func (p Profile) applyHeaders(h http.Header) {
	if p.UserAgent != "" {
		h.Set("User-Agent", p.UserAgent)
	}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", p.AcceptLanguage())
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
}

// applyToPage overrides user agent, locale and viewport on a browser page.
func (p Profile) applyToPage(page *rod.Page) error {
	if p.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      p.UserAgent,
			AcceptLanguage: p.AcceptLanguage(),
		}); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}
	if p.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: p.Locale}).Call(page); err != nil {
			return fmt.Errorf("set locale: %w", err)
		}
	}
	if p.ViewportWidth > 0 && p.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             p.ViewportWidth,
			Height:            p.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	return nil
}
