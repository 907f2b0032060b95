// Package pipeline implements the deterministic time-understanding chain:
// a free-form query is lifted through extraction, absolute resolution,
// ISO standardization, difficulty classification and, for multi-step work,
// decomposition — producing a typed scheduling request ready for the
// scheduler and allotter.
package pipeline

import "time"

// Query is the immutable input to the pipeline.
type Query struct {
	Text string
	TZ   *time.Location
}

// RawSlot is SlotExtractor's output: verbatim substrings lifted from the
// query text, not yet resolved to absolute dates.
type RawSlot struct {
	StartText *string
	EndText   *string
	Duration  *string
}

// Empty reports whether all three fields are null, the SE failure
// condition.
func (r RawSlot) Empty() bool {
	return r.StartText == nil && r.EndText == nil && r.Duration == nil
}

// AbsoluteSlot is AbsoluteResolver's output: every non-null RawSlot field
// resolved to the canonical "Month DD, YYYY HH:MM am|pm" string form.
type AbsoluteSlot struct {
	StartText *string
	EndText   *string
	Duration  *string
}

// StandardWindow is TimeStandardizer's output.
type StandardWindow struct {
	Start    time.Time
	End      time.Time
	Duration *time.Duration
}

// TaskType distinguishes atomic tasks from multi-step ones.
type TaskType string

const (
	TaskSimple  TaskType = "simple"
	TaskComplex TaskType = "complex"
)

// ClassifiedTask is DifficultyAnalyzer's output.
type ClassifiedTask struct {
	CalendarID string
	Type       TaskType
	Title      string
	Duration   *time.Duration
}

// SubtaskSpec is one entry of a DecomposedTask, before scheduling.
type SubtaskSpec struct {
	Title    string
	Duration time.Duration
}

// DecomposedTask augments a complex ClassifiedTask with ordered subtasks.
type DecomposedTask struct {
	ClassifiedTask
	Subtasks []SubtaskSpec
}

// Slot is a concrete, scheduled start/end pair.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Duration returns the slot's length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ScheduledChild is one placed subtask of a complex ScheduledTask.
type ScheduledChild struct {
	ID       string
	ParentID string
	Title    string
	Slot     Slot
}

// ScheduledTask is the tagged-variant output of the Allotter: Simple tasks
// carry a single slot and no children; Complex tasks carry no slot of
// their own and an ordered, non-empty Children list.
type ScheduledTask struct {
	CalendarID string
	Type       TaskType
	Title      string
	ID         string
	ParentID   *string

	// Slot is set only when Type == TaskSimple.
	Slot *Slot
	// Children is set only when Type == TaskComplex, ordered by Slot.Start.
	Children []ScheduledChild
}

// Availability is an ordered, non-overlapping list of free intervals
// within a single IANA zone. No interval crosses local midnight once
// normalized.
type Availability []Slot
