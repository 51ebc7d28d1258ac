package parser

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// CourseListingParser extracts base course records from a search-results page
// using CSS selectors.
type CourseListingParser struct {
	sel    config.SourceConfig
	base   *url.URL
	logger *slog.Logger
}

// NewCourseListingParser creates a listing parser from the source settings.
func NewCourseListingParser(cfg *config.SourceConfig, logger *slog.Logger) (*CourseListingParser, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &CourseListingParser{
		sel:    *cfg,
		base:   base,
		logger: logger.With("component", "listing_parser"),
	}, nil
}

// ParseListing implements ListingParser.
func (p *CourseListingParser) ParseListing(resp *types.Response) (*ListingPage, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.BaseURL(), Selector: p.sel.ItemSelector, Err: err}
	}

	page := &ListingPage{}
	doc.Find(p.sel.ItemSelector).Each(func(i int, item *goquery.Selection) {
		page.Items++
		course, ok := p.parseItem(item)
		if !ok {
			page.Skipped++
			p.logger.Debug("skipping listing item without title", "url", resp.BaseURL(), "index", i)
			return
		}
		page.Courses = append(page.Courses, course)
	})

	return page, nil
}

// parseItem builds a course from one listing item. It reports false when the
// item has no title link.
func (p *CourseListingParser) parseItem(item *goquery.Selection) (*types.Course, bool) {
	titleLink := item.Find(p.sel.TitleSelector).First()
	if titleLink.Length() == 0 {
		return nil, false
	}
	title := visibleText(titleLink)
	if title == "" {
		return nil, false
	}
	href, _ := titleLink.Attr("href")

	course := &types.Course{
		Title:       title,
		URL:         resolveURL(p.base, href),
		CourseType:  firstText(item, p.sel.CourseTypeSelector),
		Description: firstText(item, p.sel.DescriptionSelector),
	}

	if p.sel.PartnerSelector != "" {
		if partner := item.Find(p.sel.PartnerSelector).First(); partner.Length() > 0 {
			course.Partner = visibleText(partner)
			partnerHref, _ := partner.Attr("href")
			course.PartnerURL = resolveURL(p.base, partnerHref)
		}
	}

	return course, true
}
