package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for one scrape run.
type Metrics struct {
	// Listing phase
	PagesFetched      atomic.Int64
	PagesFailed       atomic.Int64
	ListingItems      atomic.Int64
	CoursesCollected  atomic.Int64
	DuplicatesSkipped atomic.Int64
	RobotsBlocked     atomic.Int64

	// Detail phase
	DetailsFetched atomic.Int64
	DetailsFailed  atomic.Int64
	DetailsTimeout atomic.Int64
	ActiveDetails  atomic.Int32
	PeakDetails    atomic.Int32

	// Output
	NormalizeFailed atomic.Int64
	RecordsWritten  atomic.Int64
	BytesDownloaded atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// DetailStarted marks one more detail fetch in flight and records the peak.
func (m *Metrics) DetailStarted() {
	n := m.ActiveDetails.Add(1)
	for {
		peak := m.PeakDetails.Load()
		if n <= peak || m.PeakDetails.CompareAndSwap(peak, n) {
			return
		}
	}
}

// DetailFinished marks a detail fetch as no longer in flight.
func (m *Metrics) DetailFinished() {
	m.ActiveDetails.Add(-1)
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"courselens_pages_fetched_total", "Listing pages fetched", "counter", m.PagesFetched.Load()},
		{"courselens_pages_failed_total", "Listing pages that failed to load", "counter", m.PagesFailed.Load()},
		{"courselens_listing_items_total", "Listing items located", "counter", m.ListingItems.Load()},
		{"courselens_courses_collected_total", "Distinct courses collected", "counter", m.CoursesCollected.Load()},
		{"courselens_duplicates_skipped_total", "Duplicate listing items skipped", "counter", m.DuplicatesSkipped.Load()},
		{"courselens_robots_blocked_total", "Pages skipped because robots.txt disallows them", "counter", m.RobotsBlocked.Load()},
		{"courselens_details_fetched_total", "Detail pages fetched", "counter", m.DetailsFetched.Load()},
		{"courselens_details_failed_total", "Detail pages that failed", "counter", m.DetailsFailed.Load()},
		{"courselens_details_timeout_total", "Detail pages that timed out", "counter", m.DetailsTimeout.Load()},
		{"courselens_details_in_flight", "Detail fetches in flight", "gauge", int64(m.ActiveDetails.Load())},
		{"courselens_normalize_failed_total", "Records the pipeline could not normalize", "counter", m.NormalizeFailed.Load()},
		{"courselens_records_written_total", "Records written to storage", "counter", m.RecordsWritten.Load()},
		{"courselens_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server and shuts it down when ctx ends.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":      m.PagesFetched.Load(),
		"pages_failed":       m.PagesFailed.Load(),
		"listing_items":      m.ListingItems.Load(),
		"courses_collected":  m.CoursesCollected.Load(),
		"duplicates_skipped": m.DuplicatesSkipped.Load(),
		"robots_blocked":     m.RobotsBlocked.Load(),
		"details_fetched":    m.DetailsFetched.Load(),
		"details_failed":     m.DetailsFailed.Load(),
		"details_timeout":    m.DetailsTimeout.Load(),
		"peak_in_flight":     int64(m.PeakDetails.Load()),
		"normalize_failed":   m.NormalizeFailed.Load(),
		"records_written":    m.RecordsWritten.Load(),
		"bytes_downloaded":   m.BytesDownloaded.Load(),
	}
}
