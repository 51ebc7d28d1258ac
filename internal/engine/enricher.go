package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/fetcher"
	"github.com/IshaanNene/CourseLens/internal/observability"
	"github.com/IshaanNene/CourseLens/internal/parser"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// Enricher visits each course's detail page and merges the extracted
// fields into the record.
type Enricher struct {
	cfg       config.ScraperConfig
	fetcher   fetcher.Fetcher
	extractor parser.DetailExtractor
	robots    *RobotsPolicy
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEnricher creates a detail enricher.
func NewEnricher(cfg *config.Config, f fetcher.Fetcher, x parser.DetailExtractor, m *observability.Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		cfg:       cfg.Scraper,
		fetcher:   f,
		extractor: x,
		metrics:   m,
		logger:    logger.With("component", "enricher"),
	}
}

// Enrich mutates every course in place. At most cfg.Concurrency detail
// fetches are in flight; each worker owns exactly one record and its own
// session. Failures are logged and leave the record's detail fields as
// they were.
func (e *Enricher) Enrich(ctx context.Context, courses []*types.Course) {
	concurrency := max(e.cfg.Concurrency, 1)
	sem := semaphore.NewWeighted(int64(concurrency))
	total := len(courses)

	e.logger.Info("enriching courses", "total", total, "concurrency", concurrency)

	var wg sync.WaitGroup
	for idx, course := range courses {
		if course.URL == "" {
			e.logger.Debug("skipping course without url", "title", course.Title)
			continue
		}
		wg.Add(1)
		go func(idx int, course *types.Course) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			e.enrichOne(ctx, idx, total, concurrency, course)
		}(idx, course)
	}
	wg.Wait()
}

func (e *Enricher) enrichOne(ctx context.Context, idx, total, concurrency int, course *types.Course) {
	progress := fmt.Sprintf("[%d/%d]", idx+1, total)

	if e.robots != nil && !e.robots.Allowed(ctx, course.URL) {
		e.metrics.RobotsBlocked.Add(1)
		e.logger.Warn("detail page disallowed by robots.txt", "progress", progress, "url", course.URL)
		return
	}

	// Stagger the start of workers admitted together.
	if delay := e.cfg.DetailDelay * time.Duration(idx%concurrency); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	e.metrics.DetailStarted()
	defer e.metrics.DetailFinished()

	sess, err := e.fetcher.NewSession(ctx)
	if err != nil {
		e.metrics.DetailsFailed.Add(1)
		e.logger.Error("open detail session", "progress", progress, "url", course.URL, "error", err)
		return
	}
	defer sess.Close()

	req, err := types.NewRequest(course.URL, types.TagDetail)
	if err != nil {
		e.metrics.DetailsFailed.Add(1)
		e.logger.Warn("invalid course url", "progress", progress, "url", course.URL, "error", err)
		return
	}
	req.Timeout = e.cfg.DetailTimeout
	req.Index = idx

	resp, err := sess.Fetch(ctx, req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// run cancelled
		case types.IsTimeout(err):
			e.metrics.DetailsTimeout.Add(1)
			e.logger.Warn("detail page timeout", "progress", progress, "url", course.URL)
		default:
			e.metrics.DetailsFailed.Add(1)
			e.logger.Warn("detail page error", "progress", progress, "url", course.URL, "error", err)
		}
		return
	}
	e.metrics.BytesDownloaded.Add(int64(len(resp.Body)))

	detail, err := e.extractor.ExtractDetail(resp)
	if err != nil {
		e.metrics.DetailsFailed.Add(1)
		e.logger.Warn("detail extraction failed", "progress", progress, "url", course.URL, "error", err)
		return
	}
	detail.MergeInto(course)
	e.metrics.DetailsFetched.Add(1)

	e.logger.Info("course enriched",
		"progress", progress,
		"title", shorten(course.Title, 55),
		"rating", orDefault(course.Rating, "?"),
		"price", orDefault(course.Price, "free"),
		"weeks", orDefault(course.DurationWeeks, "?"),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
