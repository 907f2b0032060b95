package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeStandardizer is the only rule-based (non-LLM) pipeline stage: it
// parses AR's canonical absolute-time strings into zone-aware instants and
// normalizes durations to time.Duration, enforcing the StandardWindow
// invariants of spec.md §3 (spec.md §4.3).
type TimeStandardizer struct{}

// NewTimeStandardizer builds a TimeStandardizer.
func NewTimeStandardizer() *TimeStandardizer {
	return &TimeStandardizer{}
}

var durationMinutesPattern = regexp.MustCompile(`(?i)(\d+)\s*min`)
var durationHoursPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*h(?:our|r)?s?`)
var durationCompoundPattern = regexp.MustCompile(`(?i)(\d+)\s*h(?:our|r)?s?\s*(?:and\s*)?(\d+)\s*min`)
var durationClockPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)
var durationISOPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Standardize converts an AbsoluteSlot into a StandardWindow, anchored at
// now for past-time adjustment, in loc.
func (s *TimeStandardizer) Standardize(slot AbsoluteSlot, now time.Time, loc *time.Location) (StandardWindow, error) {
	now = now.In(loc)

	var (
		start, end *time.Time
		dur        *time.Duration
	)

	if slot.StartText != nil {
		t, err := parseCanonical(*slot.StartText, loc)
		if err != nil {
			return StandardWindow{}, NewStageError(StageTS, KindTSParse, "unparseable start_text", err)
		}
		start = &t
	}
	if slot.EndText != nil {
		t, err := parseCanonical(*slot.EndText, loc)
		if err != nil {
			return StandardWindow{}, NewStageError(StageTS, KindTSParse, "unparseable end_text", err)
		}
		end = &t
	}
	if slot.Duration != nil {
		d, err := ParseDuration(*slot.Duration)
		if err != nil {
			return StandardWindow{}, NewStageError(StageTS, KindTSParse, "unparseable duration", err)
		}
		dur = &d
	}

	start, end = fillMissingEndpoint(start, end, dur, now)
	adjustPastTimes(start, end, now)
	enforceOrderInvariant(start, end)

	if start == nil || end == nil {
		return StandardWindow{}, NewStageError(StageTS, KindTSInvariant, "window missing both start and end after resolution", nil)
	}
	if start.After(*end) {
		return StandardWindow{}, NewStageError(StageTS, KindTSInvariant, "start after end even after repair", nil)
	}
	if dur != nil && end.Sub(*start) < *dur {
		return StandardWindow{}, NewStageError(StageTS, KindTSInvariant, "window shorter than declared duration", nil)
	}

	return StandardWindow{Start: *start, End: *end, Duration: dur}, nil
}

// fillMissingEndpoint derives a missing start or end from whichever
// endpoint and duration are available, matching AR's own "by X" rule as a
// deterministic backstop in case AR left a field null.
func fillMissingEndpoint(start, end *time.Time, dur *time.Duration, now time.Time) (*time.Time, *time.Time) {
	if start == nil && end != nil {
		s := now
		start = &s
	}
	if end == nil && start != nil {
		e := *start
		if dur != nil {
			e = start.Add(*dur)
		} else {
			e = time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, 0, start.Location())
		}
		end = &e
	}
	return start, end
}

// adjustPastTimes mirrors the source's three-way repair: if both
// endpoints are already in the past, roll both forward a day; if only
// start is past, snap it to now; if only end is past, move its date to
// start's date while preserving its time of day.
func adjustPastTimes(start, end *time.Time, now time.Time) {
	if start == nil || end == nil {
		return
	}
	startPast := start.Before(now)
	endPast := end.Before(now)

	switch {
	case startPast && endPast:
		*start = start.AddDate(0, 0, 1)
		*end = end.AddDate(0, 0, 1)
	case startPast:
		*start = now
	case endPast:
		*end = time.Date(start.Year(), start.Month(), start.Day(), end.Hour(), end.Minute(), end.Second(), 0, end.Location())
	}
}

// enforceOrderInvariant repairs end=23:59:59 on start's date if end still
// precedes start after past-time adjustment.
func enforceOrderInvariant(start, end *time.Time) {
	if start == nil || end == nil {
		return
	}
	if end.Before(*start) {
		*end = time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, 0, start.Location())
	}
}

func parseCanonical(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "AM", "am")
	s = strings.ReplaceAll(s, "PM", "pm")
	return time.ParseInLocation(canonicalLayout, s, loc)
}

// ParseDuration accepts "N minutes|hours", "H:MM", compound "Xh Ym", and
// ISO-8601 "PT#H#M#S" forms, returning a time.Duration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if m := durationISOPattern.FindStringSubmatch(s); m != nil && s != "" {
		h, _ := strconv.Atoi(zeroIfEmpty(m[1]))
		mi, _ := strconv.Atoi(zeroIfEmpty(m[2]))
		sec, _ := strconv.Atoi(zeroIfEmpty(m[3]))
		return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second, nil
	}

	if m := durationClockPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute, nil
	}

	if m := durationCompoundPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute, nil
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "half an hour") || strings.Contains(lower, "half-hour") {
		return 30 * time.Minute, nil
	}
	if strings.Contains(lower, "an hour") {
		return time.Hour, nil
	}

	if m := durationHoursPattern.FindStringSubmatch(s); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("parse hours %q: %w", m[1], err)
		}
		return time.Duration(hours * float64(time.Hour)), nil
	}

	if m := durationMinutesPattern.FindStringSubmatch(s); m != nil {
		mi, _ := strconv.Atoi(m[1])
		return time.Duration(mi) * time.Minute, nil
	}

	return 0, fmt.Errorf("unrecognized duration format %q", s)
}

// FormatISO8601 renders d as ISO-8601 "PT#H#M#S".
func FormatISO8601(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	if h == 0 && m == 0 && sec == 0 {
		return "PT0S"
	}
	out := "PT"
	if h > 0 {
		out += fmt.Sprintf("%dH", h)
	}
	if m > 0 {
		out += fmt.Sprintf("%dM", m)
	}
	if sec > 0 {
		out += fmt.Sprintf("%dS", sec)
	}
	return out
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
