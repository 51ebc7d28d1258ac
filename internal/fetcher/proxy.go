package fetcher

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/IshaanNene/CourseLens/internal/config"
)

// ProxyPool hands out egress proxies. A session takes one proxy when it
// opens and keeps it for its lifetime.
type ProxyPool struct {
	proxies  []*url.URL
	rotation string
	index    atomic.Int64
	logger   *slog.Logger
}

// NewProxyPool parses the configured proxy URLs. It returns nil, nil when
// no proxies are configured.
func NewProxyPool(cfg *config.ProxyConfig, logger *slog.Logger) (*ProxyPool, error) {
	if len(cfg.URLs) == 0 {
		return nil, nil
	}

	pool := &ProxyPool{
		proxies:  make([]*url.URL, 0, len(cfg.URLs)),
		rotation: strings.ToLower(cfg.Rotation),
		logger:   logger.With("component", "proxy_pool"),
	}
	for _, raw := range cfg.URLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", raw)
		}
		pool.proxies = append(pool.proxies, u)
	}

	pool.logger.Info("proxy pool initialized", "count", len(pool.proxies), "rotation", pool.rotation)
	return pool, nil
}

// Next returns the proxy for a new session.
func (p *ProxyPool) Next() *url.URL {
	if p == nil || len(p.proxies) == 0 {
		return nil
	}
	if p.rotation == "random" {
		return p.proxies[rand.Intn(len(p.proxies))]
	}
	i := p.index.Add(1) - 1
	return p.proxies[int(i%int64(len(p.proxies)))]
}

// Len reports the number of proxies in the pool.
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}
