package readings

import (
	"strings"
	"time"
)

// PeriodLayout is the canonical calendar-date form of a billing period key.
const PeriodLayout = "2006-01-02"

var readingDateLayouts = []string{
	PeriodLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// NormalizeReadingDate parses a submitted reading date and strips any time
// component, so that every submission for the same calendar day resolves to
// the same merge key regardless of the format the client sent. Timestamps
// carrying a zone offset are keyed by their UTC calendar day: a local evening
// reading west of UTC lands on the following period, so clients that care
// about the local day should submit a plain date.
func NormalizeReadingDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, ErrInvalidReadingDate
	}
	for _, layout := range readingDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return DayStart(parsed), nil
		}
	}
	return time.Time{}, ErrInvalidReadingDate
}

// DayStart truncates a timestamp to its UTC calendar day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodKey formats a reading date as the canonical period key.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}
