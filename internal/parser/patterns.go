package parser

import (
	"regexp"
	"strings"
)

var (
	weeksPattern    = regexp.MustCompile(`(?i)(\d+)\s*weeks?`)
	hoursPattern    = regexp.MustCompile(`(?i)(\d+)\s*hours?\s*(?:per\s*week|/\s*week)`)
	levelPattern    = regexp.MustCompile(`(?i)\b(Beginner|Intermediate|Advanced|Introductory|General)\b`)
	enrolledPattern = regexp.MustCompile(`\d[\d,]*`)
)

// firstGroup returns the first capture group of the first match, or "".
func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// DurationWeeks extracts the first "N week(s)" figure.
func DurationWeeks(text string) string {
	return firstGroup(weeksPattern, text)
}

// HoursPerWeek extracts the first "N hour(s) per week" or "N hours/week" figure.
func HoursPerWeek(text string) string {
	return firstGroup(hoursPattern, text)
}

// IsLevel reports whether text names a course level.
func IsLevel(text string) bool {
	return levelPattern.MatchString(text)
}

// EnrolledCount extracts the first digit run (thousands separators allowed)
// and strips the separators: "12,345 enrolled" becomes "12345".
func EnrolledCount(text string) string {
	m := enrolledPattern.FindString(text)
	return strings.ReplaceAll(m, ",", "")
}
