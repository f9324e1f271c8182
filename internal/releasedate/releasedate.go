package releasedate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnrecognized marks input that matches neither grammar.
var ErrUnrecognized = errors.New("unrecognized release date")

const (
	layoutISODate   = "2006-01-02"
	layoutFullMonth = "2 January 2006"
	layoutAbbrMonth = "2 Jan 2006"
)

var (
	strictPattern = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3,9})\s+(\d{4})$`)
	loosePattern  = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3,9})[.,]?\s+,?\s*(\d{4})$`)
)

// ParseStrict parses "<day> <full month name> <year>" or an ISO date.
func ParseStrict(value string, loc *time.Location) (time.Time, error) {
	value = normalizeSpace(value)
	if t, ok := parseISO(value, loc); ok {
		return t, nil
	}
	m := strictPattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
	}
	return parseParts(m[1], m[2], m[3], layoutFullMonth, loc, value)
}

// ParseLoose parses "<day> <month>[.|,] [,]<year>" where month is an
// abbreviation or full name, or an ISO date.
func ParseLoose(value string, loc *time.Location) (time.Time, error) {
	value = normalizeSpace(value)
	if t, ok := parseISO(value, loc); ok {
		return t, nil
	}
	m := loosePattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
	}
	month := m[2]
	layout := layoutFullMonth
	switch {
	case strings.EqualFold(month, "sept"):
		month, layout = "Sep", layoutAbbrMonth
	case len(month) == 3:
		layout = layoutAbbrMonth
	}
	return parseParts(m[1], month, m[3], layout, loc, value)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// FormatLong renders a date as "5 September 2025".
func FormatLong(t time.Time) string {
	return t.Format(layoutFullMonth)
}

// FormatShort renders a date as "5 Sep 2025".
func FormatShort(t time.Time) string {
	return t.Format(layoutAbbrMonth)
}

func parseParts(day, month, year, layout string, loc *time.Location, original string) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(layout, day+" "+month+" "+year, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnrecognized, original, err)
	}
	return t, nil
}

func parseISO(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(layoutISODate, value, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

func normalizeSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
