package utils

import (
	"time"
)

// MonthKeyLayout is the wire format for report months
const MonthKeyLayout = "2006-01"

func Now() time.Time {
	return time.Now().UTC()
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

// FirstOfMonth truncates a time to the first day of its month in UTC
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonthKey parses a "YYYY-MM" month selection
func ParseMonthKey(s string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return FirstOfMonth(t), nil
}

// QuarterMonths returns the three first-of-month dates of a calendar quarter
func QuarterMonths(year, quarter int) []time.Time {
	start := time.Month((quarter-1)*3 + 1)
	months := make([]time.Time, 0, 3)
	for i := 0; i < 3; i++ {
		months = append(months, time.Date(year, start+time.Month(i), 1, 0, 0, 0, 0, time.UTC))
	}
	return months
}
