package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Source.SearchURL); err != nil {
		return fmt.Errorf("source.search_url: %w", err)
	}
	if err := ValidateURL(cfg.Source.BaseURL); err != nil {
		return fmt.Errorf("source.base_url: %w", err)
	}
	if cfg.Source.ItemSelector == "" || cfg.Source.TitleSelector == "" {
		return fmt.Errorf("source.item_selector and source.title_selector are required")
	}

	if cfg.Scraper.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be >= 1, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.Concurrency > 100 {
		return fmt.Errorf("scraper.concurrency must be <= 100, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.PageDelay < 0 {
		return fmt.Errorf("scraper.page_delay must be >= 0")
	}
	if cfg.Scraper.DetailDelay < 0 {
		return fmt.Errorf("scraper.detail_delay must be >= 0")
	}
	if cfg.Scraper.PageTimeout <= 0 {
		return fmt.Errorf("scraper.page_timeout must be > 0")
	}
	if cfg.Scraper.DetailTimeout <= 0 {
		return fmt.Errorf("scraper.detail_timeout must be > 0")
	}
	if cfg.Scraper.Limit < 0 {
		return fmt.Errorf("scraper.limit must be >= 0, got %d", cfg.Scraper.Limit)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	switch cfg.Fetcher.Proxy.Rotation {
	case "", "round_robin", "random":
	default:
		return fmt.Errorf("fetcher.proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Fetcher.Proxy.Rotation)
	}
	for _, raw := range cfg.Fetcher.Proxy.URLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("fetcher.proxy.urls: invalid proxy URL %q", raw)
		}
		// Chromium's --proxy-server flag cannot carry credentials.
		if cfg.Fetcher.Type == "browser" && u.User != nil {
			return fmt.Errorf("fetcher.proxy.urls: credentials are not supported with the browser fetcher (%s)", u.Redacted())
		}
	}

	if cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path is required")
	}
	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" || cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo requires uri, database and collection when enabled")
		}
	}

	if cfg.Report.InputPath == "" || cfg.Report.OutputDir == "" {
		return fmt.Errorf("report.input_path and report.output_dir are required")
	}
	th := cfg.Report.Thresholds
	if th.MinCategoryCourses < 1 || th.MinRatedCourses < 1 || th.MinPartnerCourses < 1 {
		return fmt.Errorf("report.thresholds minimums must be >= 1")
	}
	if th.TopPartners < 1 || th.TopCourses < 1 {
		return fmt.Errorf("report.thresholds top-N values must be >= 1")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
