package pipeline

import (
	"fmt"
	"time"

	"github.com/kestrelsched/calscribe/internal/tz"
)

// TemporalContext is the bundle of "what day/time is it" anchors AR needs
// to resolve relative expressions into absolute ones (spec.md §4.2).
type TemporalContext struct {
	NowISO         string
	TZ             string
	TodayHuman     string
	TodayDOWIndex  int
	IsDST          bool
	EndOfToday     string
	EndOfWeek      string
	EndOfMonth     string
	NextMonday     string
	NextOccurrences map[time.Weekday]string
}

// canonicalLayout is the "Month DD, YYYY HH:MM am|pm" wire format shared
// between AR and TS.
const canonicalLayout = "January 2, 2006 3:04 pm"

// BuildTemporalContext computes the full anchor bundle for now, in loc.
func BuildTemporalContext(now time.Time, loc *time.Location) TemporalContext {
	now = now.In(loc)
	_, offset := now.Zone()
	// DST is active when the current offset differs from January's
	// (northern-hemisphere standard time) offset at the same location.
	jan := time.Date(now.Year(), time.January, 1, 12, 0, 0, 0, loc)
	_, janOffset := jan.Zone()

	occurrences := make(map[time.Weekday]string, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		occurrences[wd] = tz.NextOccurrence(now, loc, wd).Format(canonicalLayout)
	}

	return TemporalContext{
		NowISO:          now.Format(time.RFC3339),
		TZ:              loc.String(),
		TodayHuman:      now.Format("Monday, January 2, 2006"),
		TodayDOWIndex:   int(now.Weekday()),
		IsDST:           offset != janOffset,
		EndOfToday:      tz.EndOfDay(now, loc).Format(canonicalLayout),
		EndOfWeek:       tz.EndOfWeek(now, loc).Format(canonicalLayout),
		EndOfMonth:      tz.EndOfMonth(now, loc).Format(canonicalLayout),
		NextMonday:      tz.NextMonday(now, loc).Format(canonicalLayout),
		NextOccurrences: occurrences,
	}
}

// Prompt renders the context bundle as a flat key: value block suitable
// for inlining into an LLM prompt.
func (c TemporalContext) Prompt() string {
	s := fmt.Sprintf(
		"NOW_ISO: %s\nTIMEZONE: %s\nTODAY_HUMAN: %s\nTODAY_DOW_INDEX: %d\nIS_DST: %t\nEND_OF_TODAY: %s\nEND_OF_WEEK: %s\nEND_OF_MONTH: %s\nNEXT_MONDAY: %s\n",
		c.NowISO, c.TZ, c.TodayHuman, c.TodayDOWIndex, c.IsDST, c.EndOfToday, c.EndOfWeek, c.EndOfMonth, c.NextMonday,
	)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		s += fmt.Sprintf("NEXT_%s: %s\n", weekdayUpper(wd), c.NextOccurrences[wd])
	}
	return s
}

func weekdayUpper(wd time.Weekday) string {
	switch wd {
	case time.Sunday:
		return "SUNDAY"
	case time.Monday:
		return "MONDAY"
	case time.Tuesday:
		return "TUESDAY"
	case time.Wednesday:
		return "WEDNESDAY"
	case time.Thursday:
		return "THURSDAY"
	case time.Friday:
		return "FRIDAY"
	default:
		return "SATURDAY"
	}
}
