package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout       = errors.New("request timed out")
	ErrEmptyResponse = errors.New("empty response body")
	ErrBodyTooLarge  = errors.New("response body exceeds size limit")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrNoCourses     = errors.New("no courses found")
	ErrNoFetcher     = errors.New("no fetcher available for type")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Timeout    bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTimeout reports whether the fetch failed because its deadline passed.
func (e *FetchError) IsTimeout() bool { return e.Timeout }

// IsTimeout reports whether err (or anything it wraps) is a fetch timeout.
func IsTimeout(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) && fe.IsTimeout() {
		return true
	}
	return errors.Is(err, ErrTimeout)
}

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors from normalization middleware.
type PipelineError struct {
	Stage string
	Key   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.Key, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
