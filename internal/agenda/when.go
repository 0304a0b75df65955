package agenda

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{"15:04", "3:04pm", "3pm"}

// ParseWhen reads a human friendly point in time relative to now:
//
//	+15m, in 2h             a duration from now
//	14:30, 2:30pm           today at that time
//	tomorrow 09:00          tomorrow at that time
//	2030-01-31 09:00        an explicit local date and time
//	2030-01-31T09:00:00Z    RFC 3339
func ParseWhen(input string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return afterDuration(rest, now)
	}
	if rest, ok := strings.CutPrefix(s, "in "); ok {
		return afterDuration(strings.TrimSpace(rest), now)
	}

	day := StartOfDay(now)
	if rest, ok := strings.CutPrefix(s, "tomorrow"); ok {
		day = day.AddDate(0, 0, 1)
		s = strings.TrimSpace(rest)
		if s == "" {
			return time.Time{}, fmt.Errorf("missing time after %q", "tomorrow")
		}
	} else if rest, ok := strings.CutPrefix(s, "today"); ok {
		s = strings.TrimSpace(rest)
	}

	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
		}
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(s)); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognised time %q", input)
}

func afterDuration(s string, now time.Time) (time.Time, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return now.Add(d), nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts the date forms allowed as range bounds. Forms without
// a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// IsDateOnly reports whether s names a whole day rather than an instant.
func IsDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
