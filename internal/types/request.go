package types

import (
	"fmt"
	"net/url"
	"time"
)

// Request tags.
const (
	TagListing = "listing"
	TagDetail  = "detail"
)

// Request describes a single page visit.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Tag categorizes this request ("listing" or "detail").
	Tag string

	// Timeout bounds this fetch. Zero means the session default.
	Timeout time.Duration

	// WaitSelector, if set, asks rendering fetchers to wait for a matching element.
	WaitSelector string

	// WaitTimeout bounds the WaitSelector wait.
	WaitTimeout time.Duration

	// Index is the position of the record this request serves, -1 for listings.
	Index int
}

// NewRequest creates a new Request with sensible defaults.
func NewRequest(rawURL, tag string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	return &Request{
		URL:   u,
		Tag:   tag,
		Index: -1,
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
