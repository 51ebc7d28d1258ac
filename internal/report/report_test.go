package report

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/storage"
	"github.com/IshaanNene/CourseLens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func defaultThresholds() config.ThresholdsConfig {
	return config.DefaultConfig().Report.Thresholds
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestGroupMean(t *testing.T) {
	rows := []Row{
		{"category": "Business", "enrolled_count": "100"},
		{"category": "Business", "enrolled_count": "300"},
		{"category": "Business", "enrolled_count": ""},
		{"category": "Business", "enrolled_count": "n/a"},
		{"category": "Art", "enrolled_count": ""},
		{"category": "", "enrolled_count": "5000"},
	}
	got := GroupMean(rows, "category", "enrolled_count")

	want := map[string]Group{
		"Business": {Key: "Business", Count: 2, Sum: 400, Mean: 200},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupMean mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyPrice(t *testing.T) {
	tests := []struct {
		price string
		want  PriceClass
	}{
		{"", PriceFree},
		{"0", PriceFree},
		{"0.00", PriceFree},
		{"49.00", PricePaid},
		{" 12 ", PricePaid},
		{"Contact us", PriceUnknown},
		{"-5", PriceUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyPrice(tt.price); got != tt.want {
			t.Errorf("ClassifyPrice(%q) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestEnrollmentBucket(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "< 1K"},
		{999, "< 1K"},
		{1000, "1K–5K"},
		{4999, "1K–5K"},
		{5000, "5K–20K"},
		{20000, "20K–50K"},
		{49999, "20K–50K"},
		{50000, "> 50K"},
		{1_000_000, "> 50K"},
	}
	for _, tt := range tests {
		if got := BucketLabels[EnrollmentBucket(tt.n)]; got != tt.want {
			t.Errorf("EnrollmentBucket(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestReadRows(t *testing.T) {
	in := "title,price,enrolled_count\n" +
		"\"Go, Fast\",49.00,1200\n" +
		"Short\n"
	rows, err := ReadRows(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Row{
		{"title": "Go, Fast", "price": "49.00", "enrolled_count": "1200"},
		{"title": "Short", "price": "", "enrolled_count": ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	empty, err := ReadRows(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Errorf("empty input: rows=%v err=%v", empty, err)
	}
}

func TestReadRowsMatchesWrittenTable(t *testing.T) {
	courses := []*types.Course{
		{
			Title: "Data Science, Applied", URL: "https://example.com/courses/ds",
			Partner: "Uni A", Category: "Science", Level: "Introductory",
			Rating: "4.6", EnrolledCount: "12000", Price: "49.00", Currency: "GBP",
		},
		{Title: "Bare", URL: "https://example.com/courses/bare"},
	}

	var buf bytes.Buffer
	if err := storage.WriteCSV(&buf, courses); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadRows(&buf)
	if err != nil {
		t.Fatal(err)
	}

	want := make([]Row, len(courses))
	for i, c := range courses {
		want[i] = Row(c.ToMap())
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func repeat(n int, r Row) []Row {
	out := make([]Row, n)
	for i := range out {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

func TestCategoryVolumesThreshold(t *testing.T) {
	var rows []Row
	rows = append(rows, repeat(5, Row{"category": "Business", "enrolled_count": "1000"})...)
	rows = append(rows, repeat(6, Row{"category": "Health", "enrolled_count": "500"})...)
	rows = append(rows, repeat(4, Row{"category": "Art", "enrolled_count": "90000"})...)
	rows = append(rows, repeat(5, Row{"category": "Nature"})...)

	got := CategoryVolumes(rows, defaultThresholds())
	want := []CategoryVolume{
		{Category: "Nature", Courses: 5, AvgEnrollment: 0},
		{Category: "Health", Courses: 6, AvgEnrollment: 500},
		{Category: "Business", Courses: 5, AvgEnrollment: 1000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("category volumes mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeVsPaid(t *testing.T) {
	rows := []Row{
		{"price": "", "enrolled_count": "500"},
		{"price": "0", "enrolled_count": "1500"},
		{"price": "49.00", "enrolled_count": "60000"},
		{"price": "Contact us", "enrolled_count": "100"},
		{"price": "19.00", "enrolled_count": ""},
	}
	fp := FreeVsPaid(rows)

	if fp.FreeCourses != 2 || fp.PaidCourses != 1 {
		t.Errorf("counts = %d free / %d paid", fp.FreeCourses, fp.PaidCourses)
	}
	if !approx(fp.FreeAvg, 1000) || !approx(fp.PaidAvg, 60000) {
		t.Errorf("averages = %v / %v", fp.FreeAvg, fp.PaidAvg)
	}
	if fp.FreeBuckets != [5]int{1, 1, 0, 0, 0} || fp.PaidBuckets != [5]int{0, 0, 0, 0, 1} {
		t.Errorf("buckets = %v / %v", fp.FreeBuckets, fp.PaidBuckets)
	}
}

func TestPricePointsAndDurations(t *testing.T) {
	rows := []Row{
		{"price": "49.99", "enrolled_count": "100", "duration_weeks": "4"},
		{"price": "49.00", "enrolled_count": "300", "duration_weeks": "4"},
		{"price": "19", "enrolled_count": "", "duration_weeks": "2"},
		{"price": "", "enrolled_count": "50", "duration_weeks": "6"},
	}

	wantPrices := []PricePoint{
		{Price: 19, Courses: 1, AvgEnrollment: 0},
		{Price: 49, Courses: 2, AvgEnrollment: 200},
	}
	if diff := cmp.Diff(wantPrices, PricePoints(rows)); diff != "" {
		t.Errorf("price points mismatch (-want +got):\n%s", diff)
	}

	// Week 2 has no enrollment data and is left out.
	wantDurations := []DurationPoint{
		{Weeks: 4, Courses: 2, AvgEnrollment: 200},
		{Weeks: 6, Courses: 1, AvgEnrollment: 50},
	}
	if diff := cmp.Diff(wantDurations, Durations(rows)); diff != "" {
		t.Errorf("durations mismatch (-want +got):\n%s", diff)
	}
}

func TestPartners(t *testing.T) {
	rows := []Row{
		{"partner": "Uni A", "enrolled_count": "100"},
		{"partner": "Uni A", "enrolled_count": "300"},
		{"partner": "Uni B", "enrolled_count": "1000"},
		{"partner": "Uni B", "enrolled_count": "2000"},
		{"partner": "Uni C", "enrolled_count": "90000"},
		{"partner": "Uni D", "enrolled_count": "10"},
		{"partner": "Uni D", "enrolled_count": "20"},
	}
	th := defaultThresholds()
	th.TopPartners = 2

	got := Partners(rows, th)
	want := []PartnerReach{
		{Partner: "Uni B", Courses: 2, Total: 3000, AvgEnrollment: 1500},
		{Partner: "Uni A", Courses: 2, Total: 400, AvgEnrollment: 200},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partners mismatch (-want +got):\n%s", diff)
	}
}

func TestLevelStats(t *testing.T) {
	rows := []Row{
		{"level": "Introductory level", "enrolled_count": "1000", "price": ""},
		{"level": "Introductory level", "enrolled_count": "3000", "price": "40.00"},
		{"level": "Advanced level", "enrolled_count": "", "price": "59.00"},
		{"level": "Advanced level", "enrolled_count": "", "price": "60.00"},
		{"level": "Expert level", "enrolled_count": "99999"},
	}
	got := LevelStats(rows)
	want := []LevelStat{
		{Level: "Introductory", Courses: 2, AvgEnrollment: 2000, AvgPaidPrice: 40},
		{Level: "Intermediate"},
		{Level: "Advanced", Courses: 2, AvgPaidPrice: 59.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("level stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRatingsAndOpportunities(t *testing.T) {
	var rows []Row
	rows = append(rows, repeat(3, Row{"category": "Business", "rating": "4.5", "enrolled_count": "1000"})...)
	rows = append(rows, repeat(3, Row{"category": "Health", "rating": "4.7", "enrolled_count": "3000"})...)
	rows = append(rows, repeat(3, Row{"category": "Tech", "rating": "4.3"})...)
	rows = append(rows, repeat(2, Row{"category": "Art", "rating": "5.0", "enrolled_count": "9000"})...)

	s := RatingsByCategory(rows, defaultThresholds())
	if len(s.Categories) != 3 {
		t.Fatalf("expected 3 rated categories, got %+v", s.Categories)
	}
	if s.Categories[0].Category != "Tech" || s.Leader != "Health" {
		t.Errorf("order = %+v, leader = %q", s.Categories, s.Leader)
	}
	if !approx(s.OverallMean, 4.5) {
		t.Errorf("overall mean = %v", s.OverallMean)
	}

	m := Opportunities(rows, defaultThresholds())
	if len(m.Points) != 2 {
		t.Fatalf("categories without enrollment must be left out, got %+v", m.Points)
	}
	if !approx(m.MedianEnrollment, 2000) || !approx(m.MedianRating, 4.6) {
		t.Errorf("medians = %v / %v", m.MedianEnrollment, m.MedianRating)
	}
	if m.Points[0].Volume != 3 {
		t.Errorf("volume = %d", m.Points[0].Volume)
	}
}

func TestTopCourses(t *testing.T) {
	rows := []Row{
		{"title": "A", "enrolled_count": "10"},
		{"title": "B", "enrolled_count": "30"},
		{"title": "C", "enrolled_count": ""},
		{"title": "D", "enrolled_count": "20"},
	}
	th := defaultThresholds()
	th.TopCourses = 2

	got := TopCourses(rows, th)
	if len(got) != 2 || got[0].Title != "B" || got[1].Title != "D" {
		t.Errorf("top courses = %+v", got)
	}
}

func TestPremiumQuality(t *testing.T) {
	rows := []Row{
		{"title": "P1", "price": "49", "rating": "4.0", "enrolled_count": "100"},
		{"title": "P2", "price": "79", "rating": "5.0", "enrolled_count": "300"},
		{"title": "Free", "price": "", "rating": "4.9", "enrolled_count": "99999"},
		{"title": "Unrated", "price": "29", "rating": "", "enrolled_count": "10"},
	}
	p := PremiumQuality(rows)
	if len(p.Points) != 2 {
		t.Fatalf("expected 2 paid points, got %d", len(p.Points))
	}
	if !p.HasTrend {
		t.Fatal("expected a trend line")
	}
	if !approx(p.Trend[0].X, 4) || !approx(p.Trend[0].Y, 100) ||
		!approx(p.Trend[1].X, 5) || !approx(p.Trend[1].Y, 300) {
		t.Errorf("trend = %+v", p.Trend)
	}

	flat := PremiumQuality(rows[:1])
	if flat.HasTrend {
		t.Error("a single point has no trend")
	}
}

func sampleRows() []Row {
	var rows []Row
	cats := []string{"Business", "Health", "Tech"}
	levels := []string{"Introductory level", "Intermediate level", "Advanced level"}
	for i := 0; i < 30; i++ {
		price := ""
		if i%3 == 0 {
			price = "49.00"
		}
		rows = append(rows, Row{
			"title":          "Course " + string(rune('A'+i%26)),
			"partner":        "Partner " + string(rune('A'+i%4)),
			"category":       cats[i%3],
			"duration_weeks": "4",
			"level":          levels[i%3],
			"rating":         "4.5",
			"enrolled_count": "1200",
			"price":          price,
		})
	}
	rows[0]["rating"] = "4.8"
	rows[0]["enrolled_count"] = "54000"
	return rows
}

func TestGenerateWritesCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	cfg := config.DefaultConfig().Report
	cfg.OutputDir = dir

	var out bytes.Buffer
	g := NewGenerator(&cfg, &out, testLogger)
	saved, err := g.Generate(sampleRows())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(saved) != 10 {
		t.Fatalf("expected 10 charts, got %d", len(saved))
	}
	for _, path := range saved {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("missing %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", path)
		}
	}
	if got := strings.Count(out.String(), "  Saved "); got != 10 {
		t.Errorf("expected 10 status lines, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), filepath.Join(dir, "01_category_volume_vs_demand.html")) {
		t.Errorf("status lines must name the artifact paths:\n%s", out.String())
	}
}

func TestGenerateSkipsPremiumWithoutPaidCourses(t *testing.T) {
	rows := sampleRows()
	for _, r := range rows {
		r["price"] = ""
	}
	cfg := config.DefaultConfig().Report
	cfg.OutputDir = t.TempDir()

	var out bytes.Buffer
	saved, err := NewGenerator(&cfg, &out, testLogger).Generate(rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 9 {
		t.Errorf("expected 9 charts, got %d", len(saved))
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "10_premium_quality_enrollment.html")); !os.IsNotExist(err) {
		t.Error("premium chart must be skipped when there are no paid courses")
	}
}

func TestRunReadsInputTable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.csv")
	csv := "title,partner,category,rating,enrolled_count,price\n" +
		"A,Uni,Business,4.5,100,\n" +
		"B,Uni,Business,4.6,300,49.00\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig().Report
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "charts")

	var out bytes.Buffer
	if _, err := NewGenerator(&cfg, &out, testLogger).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "Loaded 2 courses.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	cfg.InputPath = filepath.Join(dir, "missing.csv")
	if _, err := NewGenerator(&cfg, &out, testLogger).Run(); err == nil {
		t.Error("expected an error for a missing input table")
	}
}
