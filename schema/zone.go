package schema

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // the schedule zone must resolve on hosts without zoneinfo
)

// Zone is the civil time zone all branches are in.
const Zone = "America/Indiana/Indianapolis"

// LoadZone loads [Zone].
func LoadZone() (*time.Location, error) {
	loc, err := time.LoadLocation(Zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", Zone, err)
	}
	return loc, nil
}

// ParseInstant parses an ISO-8601 instant. Instants without an offset are
// assumed to be UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse instant %q: unsupported format", s)
}

// ZonedCivilTime converts an instant into the wall-clock date (YYYY-MM-DD) and
// 12-hour time in loc, using the offset in effect at that instant.
func ZonedCivilTime(instant string, loc *time.Location) (date, clock string, err error) {
	t, err := ParseInstant(instant)
	if err != nil {
		return "", "", err
	}
	t = t.In(loc)
	return t.Format(time.DateOnly), ClockTimeOf(t).Format12(), nil
}
