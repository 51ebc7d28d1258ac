package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/fetcher"
	"github.com/IshaanNene/CourseLens/internal/observability"
	"github.com/IshaanNene/CourseLens/internal/parser"
	"github.com/IshaanNene/CourseLens/internal/pipeline"
	"github.com/IshaanNene/CourseLens/internal/storage"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle       State = 0
	StateCollecting State = 1
	StateEnriching  State = 2
	StateNormalize  State = 3
	StateStopped    State = 4
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateEnriching:
		return "enriching"
	case StateNormalize:
		return "normalizing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Engine runs one scrape: listing collection, detail enrichment and
// normalization. Persisting the result is a separate step.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *Collector
	enricher  *Enricher
	pipeline  *pipeline.Pipeline
	metrics   *observability.Metrics

	state     atomic.Int32
	startTime time.Time
}

// New wires an Engine from the configuration and a fetcher.
func New(cfg *config.Config, f fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) (*Engine, error) {
	listing, err := parser.NewCourseListingParser(&cfg.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("listing parser: %w", err)
	}
	return NewWithParsers(cfg, f, listing, parser.NewCourseDetailExtractor(logger), metrics, logger), nil
}

// NewWithParsers wires an Engine with explicit extraction implementations.
func NewWithParsers(cfg *config.Config, f fetcher.Fetcher, lp parser.ListingParser, dx parser.DetailExtractor, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		logger:    logger.With("component", "engine"),
		collector: NewCollector(cfg, f, lp, metrics, logger),
		enricher:  NewEnricher(cfg, f, dx, metrics, logger),
		pipeline:  pipeline.Default(logger),
		metrics:   metrics,
	}
	if cfg.Scraper.RespectRobots {
		robots := NewRobotsPolicy(cfg.Scraper.RobotsAgent, cfg.Scraper.UserAgent, cfg.Scraper.PageTimeout, logger)
		e.collector.robots = robots
		e.enricher.robots = robots
	}
	return e
}

// Run collects up to limit courses (0 = unbounded), enriches and normalizes
// them. It returns ErrNoCourses when nothing was collected, and the context
// error when the run was cancelled; in both cases nothing should be written.
func (e *Engine) Run(ctx context.Context, limit int) ([]*types.Course, error) {
	e.startTime = time.Now()
	defer e.state.Store(int32(StateStopped))

	e.logger.Info("scrape starting",
		"search_url", e.cfg.Source.SearchURL,
		"limit", limit,
		"concurrency", e.cfg.Scraper.Concurrency,
	)

	e.state.Store(int32(StateCollecting))
	courses, err := e.collector.Collect(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("collect listings: %w", err)
	}
	if len(courses) == 0 {
		return nil, types.ErrNoCourses
	}
	e.logger.Info("listing phase complete", "courses", len(courses))

	e.state.Store(int32(StateEnriching))
	e.enricher.Enrich(ctx, courses)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich details: %w", err)
	}

	e.state.Store(int32(StateNormalize))
	failed := e.pipeline.Run(courses)
	e.metrics.NormalizeFailed.Add(int64(failed))

	e.logger.Info("scrape complete",
		"courses", len(courses),
		"elapsed", time.Since(e.startTime).Round(time.Millisecond),
		"stats", e.metrics.Snapshot(),
	)
	return courses, nil
}

// Persist stores the courses and closes the storage. Storage failures are
// returned; they are fatal for the run.
func (e *Engine) Persist(st storage.Storage, courses []*types.Course) error {
	if err := st.Store(courses); err != nil {
		_ = st.Close()
		return err
	}
	if err := st.Close(); err != nil {
		return err
	}
	e.metrics.RecordsWritten.Add(int64(len(courses)))
	e.logger.Info("records written", "backend", st.Name(), "count", len(courses))
	return nil
}

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// Elapsed returns the time since Run started.
func (e *Engine) Elapsed() time.Duration {
	if e.startTime.IsZero() {
		return 0
	}
	return time.Since(e.startTime)
}
