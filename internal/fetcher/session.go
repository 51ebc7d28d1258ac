package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// sessionContext derives the per-fetch context from the request timeout,
// falling back to the session default.
func sessionContext(ctx context.Context, req *types.Request, fallback time.Duration) (context.Context, context.CancelFunc) {
	timeout := fallback
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapFetchError converts a transport failure into a FetchError, marking
// per-fetch deadline expiry as a timeout. Cancellation of the parent
// context is passed through unchanged.
func wrapFetchError(parent context.Context, rawURL string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if isTimeout(err) {
		return &types.FetchError{
			URL:     rawURL,
			Err:     fmt.Errorf("%w: %v", types.ErrTimeout, err),
			Timeout: true,
		}
	}
	return &types.FetchError{URL: rawURL, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
