package types

// Columns is the fixed column order of the persisted course table.
var Columns = []string{
	"title", "url", "partner", "partner_url", "course_type", "description",
	"category", "image_url",
	"duration_weeks", "hours_per_week", "level",
	"rating", "rating_count", "enrolled_count",
	"price", "currency", "start_date",
}

// Course represents one distinct course found on the listing pages.
// Every field is a string; an empty value means the site did not expose it.
type Course struct {
	// Listing-level fields, populated by the collector.
	Title       string `json:"title"        bson:"title"`
	URL         string `json:"url"          bson:"url"`
	Partner     string `json:"partner"      bson:"partner"`
	PartnerURL  string `json:"partner_url"  bson:"partner_url"`
	CourseType  string `json:"course_type"  bson:"course_type"`
	Description string `json:"description"  bson:"description"`

	// Detail-level fields, populated by the enricher.
	Category      string `json:"category"       bson:"category"`
	ImageURL      string `json:"image_url"      bson:"image_url"`
	DurationWeeks string `json:"duration_weeks" bson:"duration_weeks"`
	HoursPerWeek  string `json:"hours_per_week" bson:"hours_per_week"`
	Level         string `json:"level"          bson:"level"`
	Rating        string `json:"rating"         bson:"rating"`
	RatingCount   string `json:"rating_count"   bson:"rating_count"`
	EnrolledCount string `json:"enrolled_count" bson:"enrolled_count"`
	Price         string `json:"price"          bson:"price"`
	Currency      string `json:"currency"       bson:"currency"`
	StartDate     string `json:"start_date"     bson:"start_date"`
}

// Key returns the de-duplication key: the URL, or the title when no URL is known.
func (c *Course) Key() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Title
}

// Row returns the field values in Columns order.
func (c *Course) Row() []string {
	return []string{
		c.Title, c.URL, c.Partner, c.PartnerURL, c.CourseType, c.Description,
		c.Category, c.ImageURL,
		c.DurationWeeks, c.HoursPerWeek, c.Level,
		c.Rating, c.RatingCount, c.EnrolledCount,
		c.Price, c.Currency, c.StartDate,
	}
}

// Fields returns pointers to every field in Columns order, for in-place rewrites.
func (c *Course) Fields() []*string {
	return []*string{
		&c.Title, &c.URL, &c.Partner, &c.PartnerURL, &c.CourseType, &c.Description,
		&c.Category, &c.ImageURL,
		&c.DurationWeeks, &c.HoursPerWeek, &c.Level,
		&c.Rating, &c.RatingCount, &c.EnrolledCount,
		&c.Price, &c.Currency, &c.StartDate,
	}
}

// ToMap returns the course as a column-name keyed map.
func (c *Course) ToMap() map[string]string {
	row := c.Row()
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = row[i]
	}
	return m
}

// Clone creates a copy of the course.
func (c *Course) Clone() *Course {
	clone := *c
	return &clone
}

// CourseDetail holds the fields recovered from a course's own page.
type CourseDetail struct {
	Category      string
	ImageURL      string
	DurationWeeks string
	HoursPerWeek  string
	Level         string
	Rating        string
	RatingCount   string
	EnrolledCount string
	Price         string
	Currency      string
	StartDate     string
}

// MergeInto copies every non-empty detail field onto the course.
// Fields the page did not expose leave the course untouched.
func (d *CourseDetail) MergeInto(c *Course) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Category, d.Category)
	set(&c.ImageURL, d.ImageURL)
	set(&c.DurationWeeks, d.DurationWeeks)
	set(&c.HoursPerWeek, d.HoursPerWeek)
	set(&c.Level, d.Level)
	set(&c.Rating, d.Rating)
	set(&c.RatingCount, d.RatingCount)
	set(&c.EnrolledCount, d.EnrolledCount)
	set(&c.Price, d.Price)
	set(&c.Currency, d.Currency)
	set(&c.StartDate, d.StartDate)
}

// IsEmpty reports whether no detail field was recovered.
func (d *CourseDetail) IsEmpty() bool {
	return *d == CourseDetail{}
}
