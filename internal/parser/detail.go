package parser

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// Detail-page selectors. They follow the site's generated class names and
// are expected to drift.
const (
	keyInfoPrimary  = "[class*='keyInfo-module_wrapper']"
	keyInfoFallback = "[class*='keyInfo']"
	levelSelector   = "[class*='listItemWithIcon'] [class*='text-module']"
	enrolSelector   = "[class*='enrol']"

	// bodyTextLimit caps the body text scanned when no key-info block exists.
	bodyTextLimit = 3000
)

// CourseDetailExtractor implements DetailExtractor for course pages.
type CourseDetailExtractor struct {
	logger *slog.Logger
}

// NewCourseDetailExtractor creates a new detail extractor.
func NewCourseDetailExtractor(logger *slog.Logger) *CourseDetailExtractor {
	return &CourseDetailExtractor{
		logger: logger.With("component", "detail_extractor"),
	}
}

// ExtractDetail implements DetailExtractor.
func (e *CourseDetailExtractor) ExtractDetail(resp *types.Response) (*types.CourseDetail, error) {
	root, err := resp.Node()
	if err != nil {
		return nil, &types.ParseError{URL: resp.BaseURL(), Err: err}
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.BaseURL(), Err: err}
	}

	d := &types.CourseDetail{}

	for _, obj := range jsonLDObjects(root) {
		switch {
		case hasType(obj, "Product"):
			applyProduct(d, obj)
		case hasType(obj, "BreadcrumbList"):
			// The first breadcrumb is the catalogue root; the second is the category.
			if name := breadcrumbName(obj, 1); name != "" {
				d.Category = name
			}
		}
	}

	keyInfo := keyInfoText(doc)
	d.DurationWeeks = DurationWeeks(keyInfo)
	d.HoursPerWeek = HoursPerWeek(keyInfo)
	d.Level = levelText(doc)
	d.EnrolledCount = enrolledText(doc)

	e.logger.Debug("detail extracted",
		"url", resp.BaseURL(),
		"rating", d.Rating,
		"price", d.Price,
		"weeks", d.DurationWeeks,
		"category", d.Category,
	)

	return d, nil
}

// applyProduct copies the rating, offer and image fields of a Product object.
// Absent keys leave the corresponding fields untouched.
func applyProduct(d *types.CourseDetail, obj map[string]any) {
	if rating := object(obj, "aggregateRating"); rating != nil {
		setIf(&d.Rating, scalar(rating["ratingValue"]))
		setIf(&d.RatingCount, scalar(rating["reviewCount"]))
		if d.RatingCount == "" {
			setIf(&d.RatingCount, scalar(rating["ratingCount"]))
		}
	}
	if offer := object(obj, "offers"); offer != nil {
		setIf(&d.Price, scalar(offer["price"]))
		setIf(&d.Currency, scalar(offer["priceCurrency"]))
		setIf(&d.StartDate, scalar(offer["validFrom"]))
	}
	setIf(&d.ImageURL, imageURL(obj["image"]))
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// keyInfoText returns the text the duration and weekly-hours patterns run
// against: the key-info block if present, else the leading body text.
func keyInfoText(doc *goquery.Document) string {
	for _, sel := range []string{keyInfoPrimary, keyInfoFallback} {
		if m := doc.Find(sel).First(); m.Length() > 0 {
			if text := visibleText(m); text != "" {
				return text
			}
		}
	}
	body := []rune(visibleText(doc.Find("body")))
	if len(body) > bodyTextLimit {
		body = body[:bodyTextLimit]
	}
	return string(body)
}

// levelText returns the first icon-list entry naming a course level.
func levelText(doc *goquery.Document) string {
	var level string
	doc.Find(levelSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := visibleText(s); IsLevel(t) {
			level = t
			return false
		}
		return true
	})
	return level
}

// enrolledText reads the count from the first enrolment element only.
func enrolledText(doc *goquery.Document) string {
	m := doc.Find(enrolSelector).First()
	if m.Length() == 0 {
		return ""
	}
	return EnrolledCount(visibleText(m))
}
