// Package tz provides timezone utilities used throughout the scheduling
// pipeline. All internal times are zone-aware; nothing here round-trips
// through naive UTC (spec.md §9).
package tz

import (
	"fmt"
	"time"
)

// UTC is the coordinated universal time zone.
var UTC = time.UTC

// Parse parses an IANA timezone identifier (e.g. "America/New_York"). An
// empty string resolves to UTC.
func Parse(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// MustParse parses a timezone or panics. Only for values known valid at
// process startup (e.g. compiled-in defaults).
func MustParse(name string) *time.Location {
	loc, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// StartOfDay returns 00:00:00 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}

// Now returns the current time in loc.
func Now(loc *time.Location) time.Time {
	if loc == nil {
		loc = UTC
	}
	return time.Now().In(loc)
}

// NextMonday returns 09:00 on the next Monday strictly after t (today does
// not count, matching the source's NEXT_MONDAY anchor semantics).
func NextMonday(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	daysUntil := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	next := t.AddDate(0, 0, daysUntil)
	return time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, loc)
}

// NextOccurrence returns the next calendar date (at midnight) on which the
// given weekday falls, strictly after today.
func NextOccurrence(t time.Time, loc *time.Location, wd time.Weekday) time.Time {
	t = t.In(loc)
	daysUntil := (int(wd) - int(t.Weekday()) + 7) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	next := t.AddDate(0, 0, daysUntil)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
}

// EndOfWeek returns 23:59:59 on the coming Sunday (today if today is
// already Sunday).
func EndOfWeek(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	daysUntilSunday := (int(time.Sunday) - int(t.Weekday()) + 7) % 7
	sunday := t.AddDate(0, 0, daysUntilSunday)
	return EndOfDay(sunday, loc)
}

// EndOfMonth returns 23:59:59 on the last calendar day of t's month.
func EndOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	return EndOfDay(lastDay, loc)
}
