package report

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/IshaanNene/CourseLens/internal/config"
)

// CategoryVolume is one bar pair of the category overview.
type CategoryVolume struct {
	Category      string
	Courses       int
	AvgEnrollment float64
}

// CategoryVolumes returns categories with at least MinCategoryCourses
// courses, ascending by average enrollment.
func CategoryVolumes(rows []Row, th config.ThresholdsConfig) []CategoryVolume {
	counts := countBy(rows, colCategory)
	enroll := GroupMean(rows, colCategory, colEnrolled)

	var out []CategoryVolume
	for cat, n := range counts {
		if n < th.MinCategoryCourses {
			continue
		}
		out = append(out, CategoryVolume{Category: cat, Courses: n, AvgEnrollment: enroll[cat].Mean})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgEnrollment != out[j].AvgEnrollment {
			return out[i].AvgEnrollment < out[j].AvgEnrollment
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FreePaid compares free and paid courses that report an enrollment.
type FreePaid struct {
	FreeCourses, PaidCourses int
	FreeAvg, PaidAvg         float64
	FreeBuckets, PaidBuckets [5]int
}

// FreeVsPaid splits enrolled courses by price class. Courses with an
// unreadable price belong to neither side.
func FreeVsPaid(rows []Row) FreePaid {
	var fp FreePaid
	var free, paid []float64
	for _, r := range rows {
		n, ok := Number(r[colEnrolled])
		if !ok {
			continue
		}
		switch ClassifyPrice(r[colPrice]) {
		case PriceFree:
			free = append(free, n)
			fp.FreeBuckets[EnrollmentBucket(n)]++
		case PricePaid:
			paid = append(paid, n)
			fp.PaidBuckets[EnrollmentBucket(n)]++
		}
	}
	fp.FreeCourses, fp.PaidCourses = len(free), len(paid)
	fp.FreeAvg, fp.PaidAvg = mean(free), mean(paid)
	return fp
}

// PricePoint aggregates paid courses sharing one whole-number price.
type PricePoint struct {
	Price         int
	Courses       int
	AvgEnrollment float64
}

// PricePoints returns paid price points in ascending order.
func PricePoints(rows []Row) []PricePoint {
	counts := make(map[int]int)
	enroll := make(map[int][]float64)
	for _, r := range rows {
		if ClassifyPrice(r[colPrice]) != PricePaid {
			continue
		}
		p, _ := Number(r[colPrice])
		key := int(p)
		counts[key]++
		if n, ok := Number(r[colEnrolled]); ok {
			enroll[key] = append(enroll[key], n)
		}
	}

	out := make([]PricePoint, 0, len(counts))
	for price, n := range counts {
		out = append(out, PricePoint{Price: price, Courses: n, AvgEnrollment: mean(enroll[price])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// DurationPoint aggregates courses of one length in weeks.
type DurationPoint struct {
	Weeks         int
	Courses       int
	AvgEnrollment float64
}

// Durations returns the course lengths that have enrollment data, ascending.
func Durations(rows []Row) []DurationPoint {
	counts := make(map[int]int)
	enroll := make(map[int][]float64)
	for _, r := range rows {
		w, ok := Number(r[colWeeks])
		if !ok {
			continue
		}
		key := int(w)
		counts[key]++
		if n, ok := Number(r[colEnrolled]); ok {
			enroll[key] = append(enroll[key], n)
		}
	}

	var out []DurationPoint
	for weeks, values := range enroll {
		out = append(out, DurationPoint{Weeks: weeks, Courses: counts[weeks], AvgEnrollment: mean(values)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weeks < out[j].Weeks })
	return out
}

// PartnerReach is one partner's enrollment totals.
type PartnerReach struct {
	Partner       string
	Courses       int
	Total         float64
	AvgEnrollment float64
}

// Partners returns the TopPartners partners by total enrollment among those
// with at least MinPartnerCourses enrolled courses, in descending order.
func Partners(rows []Row, th config.ThresholdsConfig) []PartnerReach {
	groups := GroupMean(rows, colPartner, colEnrolled)

	var out []PartnerReach
	for p, g := range groups {
		if g.Count < th.MinPartnerCourses {
			continue
		}
		out = append(out, PartnerReach{Partner: p, Courses: g.Count, Total: g.Sum, AvgEnrollment: g.Mean})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Partner < out[j].Partner
	})
	if th.TopPartners > 0 && len(out) > th.TopPartners {
		out = out[:th.TopPartners]
	}
	return out
}

// Levels charted, in display order.
var Levels = []string{"Introductory", "Intermediate", "Advanced"}

// LevelStat aggregates the courses of one difficulty level.
type LevelStat struct {
	Level         string
	Courses       int
	AvgEnrollment float64
	AvgPaidPrice  float64
}

// levelName maps "Intermediate level" and similar to a Levels entry.
func levelName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "level"))
	for _, l := range Levels {
		if strings.EqualFold(s, l) {
			return l
		}
	}
	return ""
}

// LevelStats returns one entry per Levels element, zero-valued when absent.
func LevelStats(rows []Row) []LevelStat {
	counts := make(map[string]int)
	enroll := make(map[string][]float64)
	prices := make(map[string][]float64)
	for _, r := range rows {
		lv := levelName(r[colLevel])
		if lv == "" {
			continue
		}
		counts[lv]++
		if n, ok := Number(r[colEnrolled]); ok {
			enroll[lv] = append(enroll[lv], n)
		}
		if ClassifyPrice(r[colPrice]) == PricePaid {
			p, _ := Number(r[colPrice])
			prices[lv] = append(prices[lv], p)
		}
	}

	out := make([]LevelStat, len(Levels))
	for i, lv := range Levels {
		out[i] = LevelStat{
			Level:         lv,
			Courses:       counts[lv],
			AvgEnrollment: mean(enroll[lv]),
			AvgPaidPrice:  math.Round(mean(prices[lv])*10) / 10,
		}
	}
	return out
}

// CategoryRating is a category's mean star rating.
type CategoryRating struct {
	Category string
	Mean     float64
	Rated    int
}

// RatingSummary holds the rated categories, ascending by mean, plus the
// mean of their means and the leader.
type RatingSummary struct {
	Categories  []CategoryRating
	OverallMean float64
	Leader      string
}

// RatingsByCategory keeps categories with at least MinRatedCourses ratings.
func RatingsByCategory(rows []Row, th config.ThresholdsConfig) RatingSummary {
	groups := GroupMean(rows, colCategory, colRating)

	var s RatingSummary
	var means []float64
	for cat, g := range groups {
		if g.Count < th.MinRatedCourses {
			continue
		}
		s.Categories = append(s.Categories, CategoryRating{Category: cat, Mean: g.Mean, Rated: g.Count})
		means = append(means, g.Mean)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Mean != s.Categories[j].Mean {
			return s.Categories[i].Mean < s.Categories[j].Mean
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	s.OverallMean = mean(means)
	if n := len(s.Categories); n > 0 {
		s.Leader = s.Categories[n-1].Category
	}
	return s
}

// OpportunityPoint places a rated category by demand and satisfaction.
type OpportunityPoint struct {
	Category      string
	AvgEnrollment float64
	AvgRating     float64
	Volume        int
}

// OpportunityMap is the quadrant view with its median split lines.
type OpportunityMap struct {
	Points           []OpportunityPoint
	MedianEnrollment float64
	MedianRating     float64
}

// Opportunities combines the rated categories with their enrollment.
// Categories without enrollment data are left out.
func Opportunities(rows []Row, th config.ThresholdsConfig) OpportunityMap {
	ratings := RatingsByCategory(rows, th)
	enroll := GroupMean(rows, colCategory, colEnrolled)
	volume := countBy(rows, colCategory)

	var m OpportunityMap
	var xs, ys []float64
	for _, cr := range ratings.Categories {
		g, ok := enroll[cr.Category]
		if !ok {
			continue
		}
		m.Points = append(m.Points, OpportunityPoint{
			Category:      cr.Category,
			AvgEnrollment: g.Mean,
			AvgRating:     cr.Mean,
			Volume:        volume[cr.Category],
		})
		xs = append(xs, g.Mean)
		ys = append(ys, cr.Mean)
	}
	m.MedianEnrollment = median(xs)
	m.MedianRating = median(ys)
	return m
}

// TopCourse is one entry of the enrollment leaderboard.
type TopCourse struct {
	Title    string
	Partner  string
	Category string
	Enrolled float64
}

// TopCourses returns the TopCourses most enrolled courses, descending.
func TopCourses(rows []Row, th config.ThresholdsConfig) []TopCourse {
	var out []TopCourse
	for _, r := range rows {
		n, ok := Number(r[colEnrolled])
		if !ok {
			continue
		}
		out = append(out, TopCourse{Title: r[colTitle], Partner: r[colPartner], Category: r[colCategory], Enrolled: n})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Enrolled > out[j].Enrolled })
	if th.TopCourses > 0 && len(out) > th.TopCourses {
		out = out[:th.TopCourses]
	}
	return out
}

// PremiumPoint is a paid course with a rating and an enrollment.
type PremiumPoint struct {
	Title    string
	Rating   float64
	Enrolled float64
	Price    float64
}

// Premium is the paid-course scatter with its least-squares trend.
// HasTrend is false when the ratings do not spread along the x axis.
type Premium struct {
	Points   []PremiumPoint
	HasTrend bool
	Trend    [2]stats.Coordinate
}

// PremiumQuality collects paid courses reporting both rating and enrollment.
func PremiumQuality(rows []Row) Premium {
	var p Premium
	var series stats.Series
	for _, r := range rows {
		if ClassifyPrice(r[colPrice]) != PricePaid {
			continue
		}
		rating, ok := Number(r[colRating])
		if !ok {
			continue
		}
		enrolled, ok := Number(r[colEnrolled])
		if !ok {
			continue
		}
		price, _ := Number(r[colPrice])
		p.Points = append(p.Points, PremiumPoint{Title: r[colTitle], Rating: rating, Enrolled: enrolled, Price: price})
		series = append(series, stats.Coordinate{X: rating, Y: enrolled})
	}

	if len(series) < 2 {
		return p
	}
	minX, maxX := series[0].X, series[0].X
	for _, c := range series {
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
	}
	if minX == maxX {
		return p
	}

	fit, err := stats.LinearRegression(series)
	if err != nil || len(fit) < 2 {
		return p
	}
	sort.Slice(fit, func(i, j int) bool { return fit[i].X < fit[j].X })
	p.Trend = [2]stats.Coordinate{fit[0], fit[len(fit)-1]}
	p.HasTrend = true
	return p
}
