package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// TrimMiddleware collapses whitespace in every field.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(course *types.Course) error {
	for _, f := range course.Fields() {
		if *f != "" {
			*f = strings.Join(strings.Fields(*f), " ")
		}
	}
	return nil
}

// HTMLSanitizeMiddleware strips tags and decodes entities in free-text fields.
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(course *types.Course) error {
	for _, f := range []*string{
		&course.Title, &course.Description, &course.Partner,
		&course.CourseType, &course.Category, &course.Level,
	} {
		if *f == "" {
			continue
		}
		cleaned := m.stripRe.ReplaceAllString(*f, " ")
		cleaned = html.UnescapeString(cleaned)
		*f = strings.Join(strings.Fields(cleaned), " ")
	}
	return nil
}

// CurrencyNormalizeMiddleware reduces the price to a plain decimal string.
// Prices with no digits at all (e.g. "Free", "Contact us") are left as-is
// so that they keep their meaning downstream.
type CurrencyNormalizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewCurrencyNormalizeMiddleware() *CurrencyNormalizeMiddleware {
	return &CurrencyNormalizeMiddleware{
		stripRe: regexp.MustCompile(`[^0-9.,\-]`),
	}
}

func (m *CurrencyNormalizeMiddleware) Name() string { return "currency_normalize" }

func (m *CurrencyNormalizeMiddleware) Process(course *types.Course) error {
	s := course.Price
	if s == "" || !strings.ContainsAny(s, "0123456789") {
		return nil
	}

	numeric := m.stripRe.ReplaceAllString(s, "")

	// 1.234,56 (European) vs 1,234.56 (US)
	if strings.Contains(numeric, ",") {
		lastComma := strings.LastIndex(numeric, ",")
		lastDot := strings.LastIndex(numeric, ".")
		if lastComma > lastDot {
			numeric = strings.ReplaceAll(numeric, ".", "")
			numeric = strings.Replace(numeric, ",", ".", 1)
		} else {
			numeric = strings.ReplaceAll(numeric, ",", "")
		}
	}

	if _, err := strconv.ParseFloat(numeric, 64); err != nil {
		return fmt.Errorf("price %q: %w", s, err)
	}
	course.Price = numeric
	return nil
}

// DateNormalizeMiddleware rewrites the start date as YYYY-MM-DD.
// Unrecognized layouts are left untouched.
type DateNormalizeMiddleware struct {
	outFormat string
	inFormats []string
}

func NewDateNormalizeMiddleware() *DateNormalizeMiddleware {
	return &DateNormalizeMiddleware{
		outFormat: time.DateOnly,
		inFormats: []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02T15:04",
			"2006-01-02 15:04:05",
			time.DateOnly,
			"2 January 2006",
			"2 Jan 2006",
			"January 2, 2006",
			"Jan 2, 2006",
			"02/01/2006",
		},
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(course *types.Course) error {
	s := strings.TrimSpace(course.StartDate)
	if s == "" {
		return nil
	}
	for _, format := range m.inFormats {
		if t, err := time.Parse(format, s); err == nil {
			course.StartDate = t.Format(m.outFormat)
			return nil
		}
	}
	return nil
}
