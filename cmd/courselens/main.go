package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/engine"
	"github.com/IshaanNene/CourseLens/internal/fetcher"
	"github.com/IshaanNene/CourseLens/internal/observability"
	"github.com/IshaanNene/CourseLens/internal/storage"
	"github.com/IshaanNene/CourseLens/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	limitFlag  int
	fetchType  string
	outputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "courselens",
		Short: "CourseLens: course catalogue scraper and BI report",
		Long: `CourseLens collects the public course catalogue of an online learning
marketplace into a CSV table and turns it into a set of business charts.

  scrape   walk the search results, enrich every course from its page, write the table
  report   read the table and render the charts`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [limit]",
		Short: "Scrape the course catalogue into the CSV table",
		Long: `Collect courses from the paginated search results, visit every course page
for its details and write the table. An optional limit (positional or --limit)
stops collection after that many distinct courses; 0 means all.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScrape,
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "l", 0, "maximum number of courses (0 = all)")
	cmd.Flags().StringVar(&fetchType, "fetcher", "", "page fetcher: http or browser")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV output path")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	limit, err := resolveLimit(cmd, args, cfg.Scraper.Limit)
	if err != nil {
		return err
	}
	if fetchType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetchType)
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	eng, err := engine.New(cfg, f, metrics, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	fmt.Printf("Source : %s\n", cfg.Source.SearchURL)
	fmt.Printf("Output : %s\n", cfg.Storage.OutputPath)
	if limit > 0 {
		fmt.Printf("Limit  : %d\n\n", limit)
	} else {
		fmt.Printf("Limit  : all\n\n")
	}

	courses, err := eng.Run(ctx, limit)
	switch {
	case errors.Is(err, types.ErrNoCourses):
		fmt.Println("No courses found, aborting. Nothing was written.")
		return nil
	case ctx.Err() != nil:
		logger.Warn("scrape interrupted, nothing written")
		return ctx.Err()
	case err != nil:
		return err
	}

	st, err := storage.Open(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if err := eng.Persist(st, courses); err != nil {
		return fmt.Errorf("write courses: %w", err)
	}

	printSummary(cfg, metrics, len(courses), eng.Elapsed())
	return nil
}

// resolveLimit picks the positional limit, then --limit, then the config value.
func resolveLimit(cmd *cobra.Command, args []string, fallback int) (int, error) {
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("limit must be a non-negative integer, got %q", args[0])
		}
		return n, nil
	}
	if cmd.Flags().Changed("limit") {
		if limitFlag < 0 {
			return 0, fmt.Errorf("limit must be a non-negative integer, got %d", limitFlag)
		}
		return limitFlag, nil
	}
	return fallback, nil
}

func printSummary(cfg *config.Config, m *observability.Metrics, n int, elapsed time.Duration) {
	snap := m.Snapshot()

	t := newTable()
	t.SetTitle("Scrape complete in %s", elapsed.Round(time.Millisecond))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Courses written", n},
		{"Listing pages", snap["pages_fetched"]},
		{"Duplicates skipped", snap["duplicates_skipped"]},
		{"Details enriched", snap["details_fetched"]},
		{"Details failed", snap["details_failed"]},
		{"Details timed out", snap["details_timeout"]},
		{"Peak in flight", snap["peak_in_flight"]},
		{"Normalize failures", snap["normalize_failed"]},
		{"Bytes downloaded", snap["bytes_downloaded"]},
	})
	if snap["robots_blocked"] > 0 {
		t.AppendRow(table.Row{"Blocked by robots.txt", snap["robots_blocked"]})
	}
	t.AppendFooter(table.Row{"Output", cfg.Storage.OutputPath})
	t.Render()
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CourseLens %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			t := newTable()
			t.AppendHeader(table.Row{"Section", "Key", "Value"})
			t.AppendRows([]table.Row{
				{"source", "search_url", cfg.Source.SearchURL},
				{"source", "base_url", cfg.Source.BaseURL},
				{"source", "item_selector", cfg.Source.ItemSelector},
				{"scraper", "concurrency", cfg.Scraper.Concurrency},
				{"scraper", "page_delay", cfg.Scraper.PageDelay},
				{"scraper", "detail_delay", cfg.Scraper.DetailDelay},
				{"scraper", "page_timeout", cfg.Scraper.PageTimeout},
				{"scraper", "listing_wait", cfg.Scraper.ListingWait},
				{"scraper", "detail_timeout", cfg.Scraper.DetailTimeout},
				{"scraper", "locale", cfg.Scraper.Locale},
				{"scraper", "viewport", fmt.Sprintf("%dx%d", cfg.Scraper.ViewportW, cfg.Scraper.ViewportH)},
				{"scraper", "limit", cfg.Scraper.Limit},
				{"scraper", "respect_robots", cfg.Scraper.RespectRobots},
				{"fetcher", "type", cfg.Fetcher.Type},
				{"fetcher", "headless", cfg.Fetcher.Headless},
				{"fetcher", "max_body_size", cfg.Fetcher.MaxBodySize},
				{"storage", "output_path", cfg.Storage.OutputPath},
				{"storage", "mongo.enabled", cfg.Storage.Mongo.Enabled},
				{"storage", "mongo.database", cfg.Storage.Mongo.Database},
				{"report", "input_path", cfg.Report.InputPath},
				{"report", "output_dir", cfg.Report.OutputDir},
				{"logging", "level", cfg.Logging.Level},
				{"metrics", "enabled", cfg.Metrics.Enabled},
				{"metrics", "port", cfg.Metrics.Port},
			})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
			t.Render()
			return nil
		},
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(&cfg.Logging), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
