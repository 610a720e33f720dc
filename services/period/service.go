package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
)

// monthNames accepts full names and common abbreviations, including both
// "sep" and "sept"
var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	compactPattern = regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])`)
	tokenSplitter  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	yearPattern    = regexp.MustCompile(`^20\d{2}$`)
	monthPattern   = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
)

// FromFilename infers the report month from an upload's filename.
// Recognized forms, tried in order: numeric "2025-03" / "2025_03" / "202503",
// then "March 2025" and "2025 March" with full or abbreviated month names.
// Returns the first day of the month in UTC.
func FromFilename(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, ext(name))
	tokens := tokenSplitter.Split(base, -1)

	// adjacent year + numeric month tokens, either order
	for i := 0; i < len(tokens)-1; i++ {
		if yearPattern.MatchString(tokens[i]) && monthPattern.MatchString(tokens[i+1]) {
			return monthDate(atoi(tokens[i]), time.Month(atoi(tokens[i+1]))), nil
		}
		if monthPattern.MatchString(tokens[i]) && yearPattern.MatchString(tokens[i+1]) {
			return monthDate(atoi(tokens[i+1]), time.Month(atoi(tokens[i]))), nil
		}
	}

	// compact YYYYMM embedded in a token
	if m := compactPattern.FindStringSubmatch(base); m != nil {
		return monthDate(atoi(m[1]), time.Month(atoi(m[2]))), nil
	}

	// month name next to a year, either order
	for i := 0; i < len(tokens)-1; i++ {
		if month, ok := monthNames[strings.ToLower(tokens[i])]; ok && yearPattern.MatchString(tokens[i+1]) {
			return monthDate(atoi(tokens[i+1]), month), nil
		}
		if month, ok := monthNames[strings.ToLower(tokens[i+1])]; ok && yearPattern.MatchString(tokens[i]) {
			return monthDate(atoi(tokens[i]), month), nil
		}
	}

	return time.Time{}, localerrors.ErrUnrecognizedFilenamePattern
}

func monthDate(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func ext(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
