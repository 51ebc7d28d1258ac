package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/fetcher"
	"github.com/IshaanNene/CourseLens/internal/observability"
	"github.com/IshaanNene/CourseLens/internal/parser"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// Collector walks the paginated search results and builds the base record set.
type Collector struct {
	source  config.SourceConfig
	scraper config.ScraperConfig
	fetcher fetcher.Fetcher
	parser  parser.ListingParser
	robots  *RobotsPolicy
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCollector creates a listing collector.
func NewCollector(cfg *config.Config, f fetcher.Fetcher, p parser.ListingParser, m *observability.Metrics, logger *slog.Logger) *Collector {
	return &Collector{
		source:  cfg.Source,
		scraper: cfg.Scraper,
		fetcher: f,
		parser:  p,
		metrics: m,
		logger:  logger.With("component", "collector"),
	}
}

// Collect fetches listing pages in order until the limit is reached, a page
// adds nothing new, or a page fails to load or shows no items. limit 0 means
// unbounded. Load failures end collection with what was gathered; only
// context cancellation is returned as an error.
func (c *Collector) Collect(ctx context.Context, limit int) ([]*types.Course, error) {
	sess, err := c.fetcher.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open listing session: %w", err)
	}
	defer sess.Close()

	delay := c.scraper.PageDelay
	if c.robots != nil {
		if d := c.robots.CrawlDelay(ctx, c.source.SearchURL); d > delay {
			c.logger.Info("using robots.txt crawl delay", "delay", d)
			delay = d
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	dedup := NewDeduplicator(256)
	var courses []*types.Course

	for page := 1; ; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return courses, ctx.Err()
		}

		pageURL, err := PageURL(c.source.SearchURL, page)
		if err != nil {
			return courses, err
		}
		if c.robots != nil && !c.robots.Allowed(ctx, pageURL) {
			c.metrics.RobotsBlocked.Add(1)
			c.logger.Warn("listing page disallowed by robots.txt, ending collection", "page", page, "url", pageURL)
			break
		}
		req, err := types.NewRequest(pageURL, types.TagListing)
		if err != nil {
			return courses, err
		}
		req.Timeout = c.scraper.PageTimeout
		req.WaitSelector = c.source.ItemSelector
		req.WaitTimeout = c.scraper.ListingWait

		c.logger.Info("fetching listing page", "page", page, "url", pageURL)

		resp, err := sess.Fetch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return courses, ctx.Err()
			}
			c.metrics.PagesFailed.Add(1)
			c.logger.Warn("listing page failed, ending collection",
				"page", page,
				"timeout", types.IsTimeout(err),
				"error", err,
			)
			break
		}
		c.metrics.PagesFetched.Add(1)
		c.metrics.BytesDownloaded.Add(int64(len(resp.Body)))

		listing, err := c.parser.ParseListing(resp)
		if err != nil {
			c.logger.Warn("listing page unparsable, ending collection", "page", page, "error", err)
			break
		}
		c.metrics.ListingItems.Add(int64(listing.Items))

		if listing.Items == 0 {
			c.logger.Info("no listing items, end of results", "page", page)
			break
		}

		added := 0
		for _, course := range listing.Courses {
			if !dedup.Add(course) {
				c.metrics.DuplicatesSkipped.Add(1)
				continue
			}
			courses = append(courses, course)
			added++
			if limit > 0 && len(courses) >= limit {
				break
			}
		}
		c.metrics.CoursesCollected.Add(int64(added))

		c.logger.Info("listing page collected",
			"page", page,
			"items", listing.Items,
			"new", added,
			"total", len(courses),
		)

		if limit > 0 && len(courses) >= limit {
			break
		}
		if added == 0 {
			c.logger.Info("no new courses on page, stopping", "page", page)
			break
		}
	}

	if limit > 0 && len(courses) > limit {
		courses = courses[:limit]
	}
	return courses, nil
}

// PageURL returns the URL of results page n. Page 1 is the bare search URL;
// later pages add the page query parameter.
func PageURL(searchURL string, n int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	if n <= 1 {
		return u.String(), nil
	}
	q := u.Query()
	if q.Has("page") {
		q.Set("page", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	param := "page=" + strconv.Itoa(n)
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	return u.String(), nil
}
