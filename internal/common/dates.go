package common

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical wire format for snapshot dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"01-02-2006",
	"01/02/2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseDate accepts ISO dates as well as the month-first forms used by the
// upstream accounting exports.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// FormatDate renders a date in DateLayout, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1)
}

// PreviousMonthEnd returns the last day of the month before t.
func PreviousMonthEnd(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 0, -1)
}
