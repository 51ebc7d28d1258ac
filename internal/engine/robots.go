package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// robotsMaxSize caps the robots.txt body read per origin.
const robotsMaxSize = 512 * 1024

// RobotsPolicy answers whether a page may be visited according to the
// origin's robots.txt. Rules are fetched once per origin and cached; an
// unreachable or missing robots.txt allows everything.
type RobotsPolicy struct {
	agent     string
	userAgent string
	client    *http.Client
	logger    *slog.Logger

	mu    sync.Mutex
	rules map[string]*robotsRules
}

// robotsRules holds the rules of the group that applies to our agent.
type robotsRules struct {
	disallowed []string
	allowed    []string
	crawlDelay time.Duration
}

// NewRobotsPolicy creates a policy matching groups for agent (a product
// token such as "courselens"; "*" groups always apply). userAgent is sent
// when fetching robots.txt.
func NewRobotsPolicy(agent, userAgent string, timeout time.Duration, logger *slog.Logger) *RobotsPolicy {
	return &RobotsPolicy{
		agent:     strings.ToLower(agent),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With("component", "robots"),
		rules:     make(map[string]*robotsRules),
	}
}

// Allowed reports whether rawURL may be fetched.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	rules := p.rulesFor(ctx, u)
	if rules == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return rules.allows(path)
}

// allows applies the most specific rule: the longest matching pattern
// wins, and Allow wins a tie.
func (r *robotsRules) allows(path string) bool {
	return longestMatch(r.disallowed, path) <= longestMatch(r.allowed, path)
}

// longestMatch returns the length of the longest pattern matching path,
// or -1 when none does.
func longestMatch(patterns []string, path string) int {
	best := -1
	for _, pattern := range patterns {
		if len(pattern) > best && matchRobotsPattern(pattern, path) {
			best = len(pattern)
		}
	}
	return best
}

// CrawlDelay returns the Crawl-delay of rawURL's origin, or 0.
func (p *RobotsPolicy) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0
	}
	if rules := p.rulesFor(ctx, u); rules != nil {
		return rules.crawlDelay
	}
	return 0
}

func (p *RobotsPolicy) rulesFor(ctx context.Context, u *url.URL) *robotsRules {
	origin := u.Scheme + "://" + u.Host

	// Held across the fetch so concurrent workers download robots.txt once.
	p.mu.Lock()
	defer p.mu.Unlock()
	if rules, ok := p.rules[origin]; ok {
		return rules
	}

	rules, err := p.fetch(ctx, origin)
	if err != nil {
		p.logger.Debug("robots.txt unavailable, allowing all", "origin", origin, "error", err)
		if ctx.Err() != nil {
			return nil
		}
	}
	p.rules[origin] = rules
	return rules
}

func (p *RobotsPolicy) fetch(ctx context.Context, origin string) (*robotsRules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots.txt status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxSize))
	if err != nil {
		return nil, err
	}
	return parseRobots(string(body), p.agent), nil
}

// parseRobots extracts the rules for agent. A group naming the agent
// replaces the "*" group entirely.
func parseRobots(content, agent string) *robotsRules {
	var (
		wildcard, specific  robotsRules
		haveSpecific        bool
		groupAgents         []string
		inRules             bool
		forWildcard, forOur bool
	)

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "user-agent" {
			// Consecutive user-agent lines share one group.
			if inRules {
				groupAgents = nil
				inRules = false
			}
			groupAgents = append(groupAgents, strings.ToLower(value))
			forWildcard, forOur = false, false
			for _, a := range groupAgents {
				if a == "*" {
					forWildcard = true
				}
				if agent != "" && strings.Contains(a, agent) {
					forOur = true
				}
			}
			if forOur {
				haveSpecific = true
			}
			continue
		}

		inRules = true
		var targets []*robotsRules
		if forOur {
			targets = append(targets, &specific)
		}
		if forWildcard {
			targets = append(targets, &wildcard)
		}
		for _, r := range targets {
			switch key {
			case "disallow":
				if value != "" {
					r.disallowed = append(r.disallowed, value)
				}
			case "allow":
				if value != "" {
					r.allowed = append(r.allowed, value)
				}
			case "crawl-delay":
				var delay float64
				if _, err := fmt.Sscanf(value, "%f", &delay); err == nil && delay > 0 {
					r.crawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		}
	}

	if haveSpecific {
		return &specific
	}
	return &wildcard
}

// matchRobotsPattern checks if a URL path matches a robots.txt pattern.
// Supports * (any sequence) and $ (end of URL) wildcards.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path, anchored)
	}
	if anchored {
		return path == pattern
	}
	return strings.HasPrefix(path, pattern)
}

func matchWildcard(pattern, path string, mustEnd bool) bool {
	parts := strings.Split(pattern, "*")
	pos := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}

	if !mustEnd {
		return true
	}
	// The last literal part has to end the path unless the pattern ends in *.
	last := parts[len(parts)-1]
	return last == "" || strings.HasSuffix(path, last)
}
