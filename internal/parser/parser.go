package parser

import (
	"github.com/IshaanNene/CourseLens/internal/types"
)

// ListingParser turns one search-results page into base course records.
type ListingParser interface {
	ParseListing(resp *types.Response) (*ListingPage, error)
}

// DetailExtractor recovers the enrichable fields from a course page.
// Fields the page does not expose are left empty; that is not an error.
type DetailExtractor interface {
	ExtractDetail(resp *types.Response) (*types.CourseDetail, error)
}

// ListingPage is the result of parsing one search-results page.
type ListingPage struct {
	// Items is the number of listing items located, parsable or not.
	Items int

	// Courses holds the records built from parsable items, in page order.
	Courses []*types.Course

	// Skipped counts items dropped because no title could be parsed.
	Skipped int
}
