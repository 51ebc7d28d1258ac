package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/CourseLens/internal/report"
)

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Render the BI charts from the scraped table",
		Long: `Read the CSV written by scrape (report.input_path) and render every chart
as an HTML file into report.output_dir. Existing charts are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			gen := report.NewGenerator(&cfg.Report, os.Stdout, logger)
			if _, err := gen.Run(); err != nil {
				return fmt.Errorf("generate report: %w", err)
			}
			return nil
		},
	}
}
