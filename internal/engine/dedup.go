package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// Deduplicator tracks the identity keys of accepted courses.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicator creates a new Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// Add records the course's identity and reports whether it was new.
// A course whose identity was seen before is a duplicate and must be discarded.
func (d *Deduplicator) Add(c *types.Course) bool {
	key := IdentityKey(c)
	if key == "" {
		return false
	}
	hash := hashKey(key)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		return false
	}
	d.seen[hash] = struct{}{}
	return true
}

// Count returns the number of distinct identities seen.
func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// IdentityKey returns the de-duplication key of a course: its canonical URL,
// or its whitespace-normalized title when the URL is absent. The two key
// spaces are prefixed so a title can never collide with a URL.
func IdentityKey(c *types.Course) string {
	if c.URL != "" {
		return "url:" + CanonicalizeURL(c.URL)
	}
	title := strings.Join(strings.Fields(c.Title), " ")
	if title == "" {
		return ""
	}
	return "title:" + title
}

// CanonicalizeURL normalizes a URL for deduplication:
// - lowercases scheme and host
// - removes fragment
// - sorts query parameters
// - removes trailing slash (except root)
// - removes default ports (80 for http, 443 for https)
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}

// hashKey creates a compact hash of an identity key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:16])
}
