package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on top of the result.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("COURSELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("courselens")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".courselens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.search_url", cfg.Source.SearchURL)
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("source.item_selector", cfg.Source.ItemSelector)
	v.SetDefault("source.title_selector", cfg.Source.TitleSelector)
	v.SetDefault("source.course_type_selector", cfg.Source.CourseTypeSelector)
	v.SetDefault("source.partner_selector", cfg.Source.PartnerSelector)
	v.SetDefault("source.description_selector", cfg.Source.DescriptionSelector)

	v.SetDefault("scraper.concurrency", cfg.Scraper.Concurrency)
	v.SetDefault("scraper.page_delay", cfg.Scraper.PageDelay)
	v.SetDefault("scraper.detail_delay", cfg.Scraper.DetailDelay)
	v.SetDefault("scraper.page_timeout", cfg.Scraper.PageTimeout)
	v.SetDefault("scraper.listing_wait", cfg.Scraper.ListingWait)
	v.SetDefault("scraper.detail_timeout", cfg.Scraper.DetailTimeout)
	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)
	v.SetDefault("scraper.locale", cfg.Scraper.Locale)
	v.SetDefault("scraper.viewport_width", cfg.Scraper.ViewportW)
	v.SetDefault("scraper.viewport_height", cfg.Scraper.ViewportH)
	v.SetDefault("scraper.limit", cfg.Scraper.Limit)
	v.SetDefault("scraper.respect_robots", cfg.Scraper.RespectRobots)
	v.SetDefault("scraper.robots_agent", cfg.Scraper.RobotsAgent)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.headless", cfg.Fetcher.Headless)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.proxy.urls", cfg.Fetcher.Proxy.URLs)
	v.SetDefault("fetcher.proxy.rotation", cfg.Fetcher.Proxy.Rotation)

	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo.enabled", cfg.Storage.Mongo.Enabled)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.mongo.timeout", cfg.Storage.Mongo.Timeout)

	v.SetDefault("report.input_path", cfg.Report.InputPath)
	v.SetDefault("report.output_dir", cfg.Report.OutputDir)
	v.SetDefault("report.thresholds.min_category_courses", cfg.Report.Thresholds.MinCategoryCourses)
	v.SetDefault("report.thresholds.min_rated_courses", cfg.Report.Thresholds.MinRatedCourses)
	v.SetDefault("report.thresholds.min_partner_courses", cfg.Report.Thresholds.MinPartnerCourses)
	v.SetDefault("report.thresholds.top_partners", cfg.Report.Thresholds.TopPartners)
	v.SetDefault("report.thresholds.top_courses", cfg.Report.Thresholds.TopCourses)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
