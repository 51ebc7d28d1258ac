package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
// A Fetcher owns long-lived resources (connection pool, browser process);
// pages are retrieved through Sessions that share nothing else.
type Fetcher interface {
	// NewSession opens an isolated browsing session.
	NewSession(ctx context.Context) (Session, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Session is one isolated browsing context: its own cookies and, for the
// browser fetcher, its own incognito context and page.
type Session interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close discards the session state.
	Close() error
}

// New creates the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "http", "":
		return NewHTTPFetcher(cfg, logger)
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrNoFetcher, cfg.Fetcher.Type)
	}
}
