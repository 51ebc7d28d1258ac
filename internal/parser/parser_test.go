package parser

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<!DOCTYPE html>
<html><body>
<ul class="m-link-list">
  <li class="m-link-list__item">
    <span class="u-regular">Course</span>
    <h3><a href="/courses/intro-to-data">  Introduction to
        Data Science </a></h3>
    <a href="/partners/uni-leeds">University of Leeds</a>
    <p>Learn the   basics of data.</p>
  </li>
  <li class="m-link-list__item">
    <span class="u-no-margin-top">ExpertTrack</span>
    <h3><a href="https://www.futurelearn.com/experttracks/python">Python for Everyone</a></h3>
    <p>Three courses in one.</p>
  </li>
  <li class="m-link-list__item">
    <p>An advert with no title</p>
  </li>
</ul>
</body></html>`

const detailHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Product","name":"Intro to Data",
 "image":"https://cdn.example.com/data.jpg",
 "aggregateRating":{"@type":"AggregateRating","ratingValue":4.6,"reviewCount":1200},
 "offers":{"@type":"Offer","price":"49.00","priceCurrency":"GBP","validFrom":"2024-05-06"}}
</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[
 {"@type":"ListItem","position":1,"item":{"@id":"/courses","name":"Courses"}},
 {"@type":"ListItem","position":2,"item":{"@id":"/subjects/it","name":"IT & Computer Science"}}]}
</script>
</head><body>
<div class="keyInfo-module_wrapper__x1">
  <span>Duration</span><strong>4 weeks</strong>
  <span>Weekly study</span><strong>3 hours per week</strong>
</div>
<ul>
  <li class="listItemWithIcon-module_item__a"><span class="text-module_text__b">Digital upgrade</span></li>
  <li class="listItemWithIcon-module_item__a"><span class="text-module_text__b">Introductory level</span></li>
</ul>
<p class="enrolledCount-module_x">12,345 enrolled on this course</p>
</body></html>`

func makeResp(rawURL, body string) *types.Response {
	req, _ := types.NewRequest(rawURL, types.TagDetail)
	return &types.Response{
		Request:    req,
		StatusCode: 200,
		Body:       []byte(body),
		FinalURL:   rawURL,
	}
}

func newListingParser(t *testing.T) *CourseListingParser {
	t.Helper()
	cfg := config.DefaultConfig()
	p, err := NewCourseListingParser(&cfg.Source, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// --- Listing ---

func TestParseListing(t *testing.T) {
	p := newListingParser(t)
	page, err := p.ParseListing(makeResp("https://www.futurelearn.com/search", listingHTML))
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}

	if page.Items != 3 {
		t.Errorf("Items = %d, want 3", page.Items)
	}
	if page.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", page.Skipped)
	}

	want := []*types.Course{
		{
			Title:       "Introduction to Data Science",
			URL:         "https://www.futurelearn.com/courses/intro-to-data",
			Partner:     "University of Leeds",
			PartnerURL:  "https://www.futurelearn.com/partners/uni-leeds",
			CourseType:  "Course",
			Description: "Learn the basics of data.",
		},
		{
			Title:       "Python for Everyone",
			URL:         "https://www.futurelearn.com/experttracks/python",
			CourseType:  "ExpertTrack",
			Description: "Three courses in one.",
		},
	}
	if diff := cmp.Diff(want, page.Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListingNoItems(t *testing.T) {
	p := newListingParser(t)
	page, err := p.ParseListing(makeResp("https://www.futurelearn.com/search?page=99", "<html><body><p>No results</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if page.Items != 0 || len(page.Courses) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

// --- Detail ---

func TestExtractDetail(t *testing.T) {
	e := NewCourseDetailExtractor(testLogger)
	d, err := e.ExtractDetail(makeResp("https://www.futurelearn.com/courses/intro-to-data", detailHTML))
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}

	want := &types.CourseDetail{
		Category:      "IT & Computer Science",
		ImageURL:      "https://cdn.example.com/data.jpg",
		DurationWeeks: "4",
		HoursPerWeek:  "3",
		Level:         "Introductory level",
		Rating:        "4.6",
		RatingCount:   "1200",
		EnrolledCount: "12345",
		Price:         "49.00",
		Currency:      "GBP",
		StartDate:     "2024-05-06",
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("detail mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractDetailMissingFields(t *testing.T) {
	e := NewCourseDetailExtractor(testLogger)
	body := `<html><body><h1>A bare course page</h1><p>Nothing structured here.</p></body></html>`

	d, err := e.ExtractDetail(makeResp("https://www.futurelearn.com/courses/bare", body))
	if err != nil {
		t.Fatalf("missing fields must not be an error: %v", err)
	}
	if !d.IsEmpty() {
		t.Errorf("expected empty detail, got %+v", d)
	}
}

func TestExtractDetailBodyFallback(t *testing.T) {
	e := NewCourseDetailExtractor(testLogger)
	body := `<html><body>
<script>var x = "99 weeks";</script>
<div>Study for 6 weeks at 2 hours/week</div>
</body></html>`

	d, err := e.ExtractDetail(makeResp("https://www.futurelearn.com/courses/fallback", body))
	if err != nil {
		t.Fatal(err)
	}
	if d.DurationWeeks != "6" {
		t.Errorf("DurationWeeks = %q, want 6 (script text must be ignored)", d.DurationWeeks)
	}
	if d.HoursPerWeek != "2" {
		t.Errorf("HoursPerWeek = %q, want 2", d.HoursPerWeek)
	}
}

func TestExtractDetailGraphAndImageObject(t *testing.T) {
	e := NewCourseDetailExtractor(testLogger)
	body := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":["Product","Thing"],"image":{"@type":"ImageObject","url":"https://cdn.example.com/g.png"},
   "offers":[{"price":0,"priceCurrency":"USD"}]}
]}
</script></head><body></body></html>`

	d, err := e.ExtractDetail(makeResp("https://www.futurelearn.com/courses/graph", body))
	if err != nil {
		t.Fatal(err)
	}
	if d.ImageURL != "https://cdn.example.com/g.png" {
		t.Errorf("ImageURL = %q", d.ImageURL)
	}
	if d.Price != "0" || d.Currency != "USD" {
		t.Errorf("price/currency = %q/%q", d.Price, d.Currency)
	}
}

func TestExtractDetailMalformedJSONLD(t *testing.T) {
	e := NewCourseDetailExtractor(testLogger)
	body := `<html><head><script type="application/ld+json">{not json</script></head>
<body><div class="keyInfo">8 weeks</div></body></html>`

	d, err := e.ExtractDetail(makeResp("https://www.futurelearn.com/courses/bad", body))
	if err != nil {
		t.Fatal(err)
	}
	if d.Rating != "" {
		t.Errorf("Rating = %q, want empty", d.Rating)
	}
	if d.DurationWeeks != "8" {
		t.Errorf("DurationWeeks = %q, want 8", d.DurationWeeks)
	}
}

// --- Patterns ---

func TestPatterns(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"weeks plural", DurationWeeks, "Duration 4 weeks", "4"},
		{"weeks singular", DurationWeeks, "1 Week course", "1"},
		{"weeks none", DurationWeeks, "self-paced", ""},
		{"hours per week", HoursPerWeek, "3 hours per week", "3"},
		{"hours slash week", HoursPerWeek, "5 hrs / 2 hours/week", "2"},
		{"hours without week", HoursPerWeek, "10 hours total", ""},
		{"enrolled commas", EnrolledCount, "12,345 enrolled", "12345"},
		{"enrolled plain", EnrolledCount, "Join 980 learners", "980"},
		{"enrolled leading comma", EnrolledCount, ", 1,000 people", "1000"},
		{"enrolled none", EnrolledCount, "Be the first", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsLevel(t *testing.T) {
	if !IsLevel("Advanced level") {
		t.Error("Advanced level should match")
	}
	if IsLevel("Digital upgrade") {
		t.Error("Digital upgrade should not match")
	}
	if IsLevel("Generalist") {
		t.Error("word boundary: Generalist should not match")
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  a \n\t b  "); got != "a b" {
		t.Errorf("Clean = %q", got)
	}
	if !strings.Contains(Clean("x"), "x") {
		t.Error("Clean dropped content")
	}
}
