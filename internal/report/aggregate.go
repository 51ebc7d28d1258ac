package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Column names read by the views.
const (
	colTitle    = "title"
	colPartner  = "partner"
	colCategory = "category"
	colWeeks    = "duration_weeks"
	colLevel    = "level"
	colRating   = "rating"
	colEnrolled = "enrolled_count"
	colPrice    = "price"
)

// Group is the aggregate of one group's parseable values.
type Group struct {
	Key   string
	Count int
	Sum   float64
	Mean  float64
}

// Number parses a numeric cell. Empty, malformed and non-finite values
// report false.
func Number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// GroupMean aggregates valueField per distinct non-empty groupField. Rows
// whose value is empty or malformed count in neither the sum nor the
// denominator; groups left with no values are omitted.
func GroupMean(rows []Row, groupField, valueField string) map[string]Group {
	out := make(map[string]Group)
	for _, r := range rows {
		key := r[groupField]
		if key == "" {
			continue
		}
		v, ok := Number(r[valueField])
		if !ok {
			continue
		}
		g := out[key]
		g.Key = key
		g.Count++
		g.Sum += v
		out[key] = g
	}
	for k, g := range out {
		g.Mean = g.Sum / float64(g.Count)
		out[k] = g
	}
	return out
}

// countBy counts rows per distinct non-empty field value.
func countBy(rows []Row, field string) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		if k := r[field]; k != "" {
			out[k]++
		}
	}
	return out
}

// PriceClass classifies a course by its price cell.
type PriceClass int

const (
	PriceUnknown PriceClass = iota
	PriceFree
	PricePaid
)

func (c PriceClass) String() string {
	switch c {
	case PriceFree:
		return "free"
	case PricePaid:
		return "paid"
	default:
		return "unknown"
	}
}

// ClassifyPrice reports free for an empty or zero price, paid for a
// parseable positive price and unknown otherwise.
func ClassifyPrice(price string) PriceClass {
	if strings.TrimSpace(price) == "" {
		return PriceFree
	}
	v, ok := Number(price)
	switch {
	case !ok:
		return PriceUnknown
	case v == 0:
		return PriceFree
	case v > 0:
		return PricePaid
	default:
		return PriceUnknown
	}
}

// BucketLabels names the enrollment buckets in ascending order.
var BucketLabels = []string{"< 1K", "1K–5K", "5K–20K", "20K–50K", "> 50K"}

// EnrollmentBucket returns the BucketLabels index for n learners.
func EnrollmentBucket(n float64) int {
	switch {
	case n < 1_000:
		return 0
	case n < 5_000:
		return 1
	case n < 20_000:
		return 2
	case n < 50_000:
		return 3
	default:
		return 4
	}
}

// mean returns the arithmetic mean, or 0 for no values.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return m
}
