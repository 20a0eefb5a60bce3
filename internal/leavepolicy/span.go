package leavepolicy

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Midnight keeps the calendar date of t, as seen in t's own location, and
// returns midnight UTC of that date. Spans between two Midnight values are
// always whole days regardless of daylight saving.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, err
	}
	return Midnight(t), nil
}

// InclusiveDaySpan counts the calendar days from earlier to later with both
// ends included, so equal dates give 1. The result is negative when earlier
// is after later; callers rely on that to detect ordering errors.
// Midnight values are exact multiples of a day in Unix seconds, so the
// division never truncates and no range of parseable dates overflows.
func InclusiveDaySpan(later, earlier time.Time) int {
	diff := Midnight(later).Unix() - Midnight(earlier).Unix()
	return int(diff/secondsPerDay) + 1
}
