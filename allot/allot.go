// Package allot implements the Allotter (TA): it adapts pipeline outputs
// into scheduler inputs by fetching the calendar backend's busy time,
// computing free availability, invoking the scheduler, and validating the
// result against the pipeline's own invariants (spec.md §4.7).
package allot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/scheduler"
	"github.com/pkg/errors"
)

// ValidationError is raised when a scheduler result violates one of the
// Allotter's post-conditions (spec.md §4.7, error kind TA_VALIDATION).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "TA_VALIDATION: " + e.Msg }

// Allotter wires the scheduler to a live calendar backend.
type Allotter struct {
	bridge               *calbridge.Client
	holidayCalendarTitle string
	options              scheduler.Options
}

// NewAllotter builds an Allotter against bridge, excluding the named
// holiday calendar from busy-time computation.
func NewAllotter(bridge *calbridge.Client, holidayCalendarTitle string, opts scheduler.Options) *Allotter {
	return &Allotter{bridge: bridge, holidayCalendarTitle: holidayCalendarTitle, options: opts}
}

// AllotSimple places a single simple task within [win.Start, win.End].
func (a *Allotter) AllotSimple(ctx context.Context, task pipeline.ClassifiedTask, win pipeline.StandardWindow, loc *time.Location) (pipeline.ScheduledTask, error) {
	if task.Duration == nil {
		return pipeline.ScheduledTask{}, &ValidationError{Msg: "simple task carries no duration"}
	}

	avail, busy, err := a.freeAvailability(ctx, win.Start, win.End, loc)
	if err != nil {
		return pipeline.ScheduledTask{}, err
	}

	assignments, _, err := scheduler.Schedule(avail, []time.Duration{*task.Duration}, win.End, a.options, scheduler.Constraints{})
	if err != nil {
		return pipeline.ScheduledTask{}, err
	}

	a0 := assignments[0]
	if err := validateSlot(a0.Start, a0.End, win, *task.Duration, busy); err != nil {
		return pipeline.ScheduledTask{}, err
	}

	return pipeline.ScheduledTask{
		CalendarID: task.CalendarID,
		Type:       pipeline.TaskSimple,
		Title:      task.Title,
		ID:         uuid.NewString(),
		Slot:       &pipeline.Slot{Start: a0.Start, End: a0.End},
	}, nil
}

// AllotComplex places every subtask of a decomposed task, in input order,
// within [win.Start, win.End], and wraps them under a freshly minted
// parent id.
func (a *Allotter) AllotComplex(ctx context.Context, task pipeline.DecomposedTask, win pipeline.StandardWindow, loc *time.Location) (pipeline.ScheduledTask, error) {
	if len(task.Subtasks) == 0 {
		return pipeline.ScheduledTask{}, &ValidationError{Msg: "complex task carries no subtasks"}
	}

	avail, busy, err := a.freeAvailability(ctx, win.Start, win.End, loc)
	if err != nil {
		return pipeline.ScheduledTask{}, err
	}

	durations := make([]time.Duration, len(task.Subtasks))
	for i, s := range task.Subtasks {
		durations[i] = s.Duration
	}

	assignments, _, err := scheduler.Schedule(avail, durations, win.End, a.options, scheduler.Constraints{})
	if err != nil {
		return pipeline.ScheduledTask{}, err
	}

	parentID := uuid.NewString()
	children := make([]pipeline.ScheduledChild, len(assignments))
	for i, asg := range assignments {
		if err := validateSlot(asg.Start, asg.End, win, durations[i], busy); err != nil {
			return pipeline.ScheduledTask{}, err
		}
		children[i] = pipeline.ScheduledChild{
			ID:       uuid.NewString(),
			ParentID: parentID,
			Title:    task.Subtasks[i].Title,
			Slot:     pipeline.Slot{Start: asg.Start, End: asg.End},
		}
	}

	if err := validateOrdering(children); err != nil {
		return pipeline.ScheduledTask{}, err
	}

	return pipeline.ScheduledTask{
		CalendarID: task.CalendarID,
		Type:       pipeline.TaskComplex,
		Title:      task.Title,
		ID:         parentID,
		Children:   children,
	}, nil
}

// FreeSlots reports the free intervals between start and end without
// scheduling anything, for inspecting availability ahead of committing a
// query (the "free-time" CLI path).
func (a *Allotter) FreeSlots(ctx context.Context, start, end time.Time, loc *time.Location) ([]scheduler.Interval, error) {
	free, _, err := a.freeAvailability(ctx, start, end, loc)
	return free, err
}

// freeAvailability fetches busy events over [start, end], excludes the
// holiday calendar, and returns both the complement of the busy intervals
// within [start, end] (spec.md §4.7) and the busy intervals themselves, so
// callers can re-check a scheduler result against them after the fact. The
// complement is not clipped to the work window here; scheduler.Schedule
// does that when it normalizes availability.
func (a *Allotter) freeAvailability(ctx context.Context, start, end time.Time, loc *time.Location) ([]scheduler.Interval, []scheduler.Interval, error) {
	days := int(end.Sub(start).Hours()/24) + 2
	if days < 1 {
		days = 1
	}

	events, err := a.bridge.Events(ctx, calbridge.EventsQuery{Days: days, ExcludeHolidays: true})
	if err != nil {
		return nil, nil, err
	}

	var busy []scheduler.Interval
	for _, ev := range events {
		if ev.CalendarTitle == a.holidayCalendarTitle {
			continue
		}
		s, errS := time.ParseInLocation(time.RFC3339, ev.StartISO, loc)
		e, errE := time.ParseInLocation(time.RFC3339, ev.EndISO, loc)
		if errS != nil || errE != nil {
			continue
		}
		busy = append(busy, scheduler.Interval{Start: s, End: e})
	}

	return complement(busy, start, end), busy, nil
}

// complement returns the free intervals within [start, end] given a set of
// (possibly unsorted, possibly overlapping) busy intervals.
func complement(busy []scheduler.Interval, start, end time.Time) []scheduler.Interval {
	sortIntervals(busy)

	var free []scheduler.Interval
	cursor := start
	for _, b := range busy {
		if b.End.Before(cursor) || b.Start.After(end) {
			continue
		}
		if b.Start.After(cursor) {
			free = append(free, scheduler.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(end) {
		free = append(free, scheduler.Interval{Start: cursor, End: end})
	}
	return free
}

func sortIntervals(ivs []scheduler.Interval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j].Start.Before(ivs[j-1].Start); j-- {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
		}
	}
}

func validateSlot(start, end time.Time, win pipeline.StandardWindow, duration time.Duration, busy []scheduler.Interval) error {
	if start.Before(win.Start) || end.After(win.End) {
		return &ValidationError{Msg: fmt.Sprintf("slot [%s, %s] escapes window [%s, %s]", start, end, win.Start, win.End)}
	}
	if end.Sub(start) != duration {
		return &ValidationError{Msg: "slot duration does not equal declared duration exactly"}
	}
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return &ValidationError{Msg: fmt.Sprintf("slot [%s, %s] overlaps busy interval [%s, %s]", start, end, b.Start, b.End)}
		}
	}
	return nil
}

func validateOrdering(children []pipeline.ScheduledChild) error {
	for i := 1; i < len(children); i++ {
		if children[i].Slot.Start.Before(children[i-1].Slot.End) {
			return &ValidationError{Msg: errors.New("subtask slots overlap or are out of order").Error()}
		}
	}
	return nil
}
