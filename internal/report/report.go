// Package report turns the scraped course table into a set of HTML charts.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/IshaanNene/CourseLens/internal/config"
)

// chart is one report artifact. build returns nil when the view has no
// data worth rendering.
type chart struct {
	name  string
	build func(rows []Row) *components.Page
}

// Generator renders every chart of the report.
type Generator struct {
	cfg    config.ReportConfig
	out    io.Writer
	logger *slog.Logger
}

// NewGenerator creates a report generator. Status lines go to out.
func NewGenerator(cfg *config.ReportConfig, out io.Writer, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    *cfg,
		out:    out,
		logger: logger.With("component", "report"),
	}
}

func (g *Generator) charts() []chart {
	th := g.cfg.Thresholds
	return []chart{
		{"01_category_volume_vs_demand", func(rows []Row) *components.Page {
			return categoryVolumeChart(CategoryVolumes(rows, th))
		}},
		{"02_free_vs_paid_enrollment", func(rows []Row) *components.Page {
			return freeVsPaidChart(FreeVsPaid(rows))
		}},
		{"03_price_point_strategy", func(rows []Row) *components.Page {
			return pricePointChart(PricePoints(rows))
		}},
		{"04_duration_sweet_spot", func(rows []Row) *components.Page {
			return durationChart(Durations(rows))
		}},
		{"05_partner_performance", func(rows []Row) *components.Page {
			return partnerChart(Partners(rows, th))
		}},
		{"06_level_strategy", func(rows []Row) *components.Page {
			return levelChart(LevelStats(rows))
		}},
		{"07_rating_by_category", func(rows []Row) *components.Page {
			return ratingChart(RatingsByCategory(rows, th))
		}},
		{"08_opportunity_map", func(rows []Row) *components.Page {
			return opportunityChart(Opportunities(rows, th))
		}},
		{"09_top_courses_enrollment", func(rows []Row) *components.Page {
			return topCoursesChart(TopCourses(rows, th))
		}},
		{"10_premium_quality_enrollment", func(rows []Row) *components.Page {
			p := PremiumQuality(rows)
			if len(p.Points) == 0 {
				return nil
			}
			return premiumChart(p)
		}},
	}
}

// Run loads the configured input table and generates the report.
func (g *Generator) Run() ([]string, error) {
	rows, err := LoadCSV(g.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(g.out, "Loaded %d courses.\n\n", len(rows))
	return g.Generate(rows)
}

// Generate writes one HTML file per chart into the output directory and
// returns their paths.
func (g *Generator) Generate(rows []Row) ([]string, error) {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	var saved []string
	for _, c := range g.charts() {
		page := c.build(rows)
		if page == nil {
			g.logger.Info("no data for chart, skipping", "chart", c.name)
			continue
		}
		path := filepath.Join(g.cfg.OutputDir, c.name+".html")
		if err := writePage(path, page); err != nil {
			return saved, err
		}
		saved = append(saved, path)
		fmt.Fprintf(g.out, "  Saved %s\n", path)
	}

	fmt.Fprintf(g.out, "\nAll charts generated successfully.\nOutput directory: %s\n", g.cfg.OutputDir)
	g.logger.Debug("report complete", "charts", len(saved), "rows", len(rows))
	return saved, nil
}

func writePage(path string, page *components.Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
