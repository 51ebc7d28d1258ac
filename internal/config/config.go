package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for CourseLens.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"  yaml:"source"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SourceConfig points at the marketplace being scraped.
type SourceConfig struct {
	SearchURL string `mapstructure:"search_url" yaml:"search_url"`
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`

	// Listing selectors. These track the site's markup, not a contract.
	ItemSelector        string `mapstructure:"item_selector"         yaml:"item_selector"`
	TitleSelector       string `mapstructure:"title_selector"        yaml:"title_selector"`
	CourseTypeSelector  string `mapstructure:"course_type_selector"  yaml:"course_type_selector"`
	PartnerSelector     string `mapstructure:"partner_selector"      yaml:"partner_selector"`
	DescriptionSelector string `mapstructure:"description_selector"  yaml:"description_selector"`
}

// ScraperConfig controls pacing and concurrency of the scrape phase.
type ScraperConfig struct {
	Concurrency   int           `mapstructure:"concurrency"    yaml:"concurrency"`
	PageDelay     time.Duration `mapstructure:"page_delay"     yaml:"page_delay"`
	DetailDelay   time.Duration `mapstructure:"detail_delay"   yaml:"detail_delay"`
	PageTimeout   time.Duration `mapstructure:"page_timeout"   yaml:"page_timeout"`
	ListingWait   time.Duration `mapstructure:"listing_wait"   yaml:"listing_wait"`
	DetailTimeout time.Duration `mapstructure:"detail_timeout" yaml:"detail_timeout"`
	UserAgent     string        `mapstructure:"user_agent"     yaml:"user_agent"`
	Locale        string        `mapstructure:"locale"         yaml:"locale"`
	ViewportW     int           `mapstructure:"viewport_width"  yaml:"viewport_width"`
	ViewportH     int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	Limit         int           `mapstructure:"limit"          yaml:"limit"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	RobotsAgent   string        `mapstructure:"robots_agent"   yaml:"robots_agent"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Proxy           ProxyConfig   `mapstructure:"proxy"             yaml:"proxy"`
}

// ProxyConfig lists optional egress proxies.
type ProxyConfig struct {
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"` // round_robin, random
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
}

// MongoConfig controls the optional MongoDB copy of the record set.
type MongoConfig struct {
	Enabled    bool          `mapstructure:"enabled"    yaml:"enabled"`
	URI        string        `mapstructure:"uri"        yaml:"uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// ReportConfig controls chart generation.
type ReportConfig struct {
	InputPath  string           `mapstructure:"input_path" yaml:"input_path"`
	OutputDir  string           `mapstructure:"output_dir" yaml:"output_dir"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
}

// ThresholdsConfig holds the minimum group sizes and top-N cut-offs of the views.
type ThresholdsConfig struct {
	MinCategoryCourses int `mapstructure:"min_category_courses" yaml:"min_category_courses"`
	MinRatedCourses    int `mapstructure:"min_rated_courses"    yaml:"min_rated_courses"`
	MinPartnerCourses  int `mapstructure:"min_partner_courses"  yaml:"min_partner_courses"`
	TopPartners        int `mapstructure:"top_partners"         yaml:"top_partners"`
	TopCourses         int `mapstructure:"top_courses"          yaml:"top_courses"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			SearchURL:           "https://www.futurelearn.com/search?q=*&filter_type=course",
			BaseURL:             "https://www.futurelearn.com",
			ItemSelector:        ".m-link-list__item",
			TitleSelector:       "h3 a",
			CourseTypeSelector:  "span.u-regular, span.u-no-margin-top",
			PartnerSelector:     "a[href*='/partners/']",
			DescriptionSelector: "p",
		},
		Scraper: ScraperConfig{
			Concurrency:   5,
			PageDelay:     2 * time.Second,
			DetailDelay:   500 * time.Millisecond,
			PageTimeout:   45 * time.Second,
			ListingWait:   15 * time.Second,
			DetailTimeout: 30 * time.Second,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Locale:        "en-GB",
			ViewportW:     1280,
			ViewportH:     900,
			RobotsAgent:   "courselens",
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			Headless:        true,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			Proxy: ProxyConfig{
				Rotation: "round_robin",
			},
		},
		Storage: StorageConfig{
			OutputPath: "data/data.csv",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "courselens",
				Collection: "courses",
				Timeout:    10 * time.Second,
			},
		},
		Report: ReportConfig{
			InputPath: "data/data.csv",
			OutputDir: "charts",
			Thresholds: ThresholdsConfig{
				MinCategoryCourses: 5,
				MinRatedCourses:    3,
				MinPartnerCourses:  2,
				TopPartners:        12,
				TopCourses:         15,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
