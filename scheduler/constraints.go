package scheduler

import "time"

// ConstraintBuilder incrementally assembles a Constraints value, mirroring
// the reference implementation's fluent blackout/cap setters.
type ConstraintBuilder struct {
	c Constraints
}

// NewConstraintBuilder starts from an empty, unconstrained set.
func NewConstraintBuilder() *ConstraintBuilder {
	return &ConstraintBuilder{}
}

// AddWeeklyBlackout blocks [startMinute, endMinute) of every occurrence of
// weekday.
func (b *ConstraintBuilder) AddWeeklyBlackout(weekday time.Weekday, startMinute, endMinute int) *ConstraintBuilder {
	b.c.WeeklyBlackouts = append(b.c.WeeklyBlackouts, WeeklyBlackout{
		Weekday:     weekday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
	})
	return b
}

// AddDateBlackout blocks [startMinute, endMinute) of the single calendar
// day date falls on.
func (b *ConstraintBuilder) AddDateBlackout(date time.Time, startMinute, endMinute int) *ConstraintBuilder {
	b.c.DateBlackouts = append(b.c.DateBlackouts, DateBlackout{
		Date:        date,
		StartMinute: startMinute,
		EndMinute:   endMinute,
	})
	return b
}

// SetMaxTasksPerDay caps how many tasks may be placed on any single day.
// A value of 0 means unbounded.
func (b *ConstraintBuilder) SetMaxTasksPerDay(n int) *ConstraintBuilder {
	b.c.MaxTasksPerDay = n
	return b
}

// SetMinGap sets the minimum gap required between consecutively placed
// tasks on the same day.
func (b *ConstraintBuilder) SetMinGap(d time.Duration) *ConstraintBuilder {
	b.c.MinGap = d
	return b
}

// Build returns the assembled Constraints value.
func (b *ConstraintBuilder) Build() Constraints {
	return b.c
}
