package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func workDay(date time.Time, opts Options) Interval {
	d := day(date)
	return Interval{
		Start: d.Add(time.Duration(opts.WorkStartHour) * time.Hour),
		End:   d.Add(time.Duration(opts.WorkEndHour) * time.Hour),
	}
}

func TestScheduleSingleTaskPlacedInWorkWindow(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)
	avail := []Interval{workDay(base, opts)}
	deadline := base.Add(48 * time.Hour)

	assignments, _, err := Schedule(avail, []time.Duration{30 * time.Minute}, deadline, opts, Constraints{})
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	a := assignments[0]
	require.Equal(t, 30*time.Minute, a.End.Sub(a.Start))
	require.GreaterOrEqual(t, a.Start.Hour(), opts.WorkStartHour)
	require.LessOrEqual(t, a.End.Hour(), opts.WorkEndHour)
}

func TestScheduleEvenSpreadAcrossFiveDays(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)

	var avail []Interval
	for i := 0; i < 7; i++ {
		avail = append(avail, workDay(base.AddDate(0, 0, i), opts))
	}
	deadline := base.AddDate(0, 0, 7)

	durations := []time.Duration{time.Hour, 2 * time.Hour, 90 * time.Minute, 2 * time.Hour, 45 * time.Minute}
	assignments, _, err := Schedule(avail, durations, deadline, opts, Constraints{})
	require.NoError(t, err)
	require.Len(t, assignments, 5)

	days := map[time.Time]bool{}
	for i, a := range assignments {
		require.Equal(t, durations[i], a.End.Sub(a.Start))
		days[a.Day] = true
	}
	require.Len(t, days, 5, "each task should land on a distinct day when spread across 7 open days")

	for i := 1; i < len(assignments); i++ {
		require.False(t, assignments[i].Start.Before(assignments[i-1].Start))
	}
}

func TestScheduleInfeasibleTotal(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 10, 0, 0, 0, time.UTC)
	avail := []Interval{{Start: base, End: base.Add(2 * time.Hour)}}
	deadline := base.Add(2 * time.Hour)

	_, _, err := Schedule(avail, []time.Duration{10 * time.Hour}, deadline, opts, Constraints{})
	require.Error(t, err)
	var infeasible *InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	require.True(t, infeasible.Total)
	require.Equal(t, 600, infeasible.NeedMinutes)
	require.Less(t, infeasible.HaveMinutes, 600)
}

func TestScheduleInfeasibleLocal(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	avail := []Interval{workDay(base, opts)}
	deadline := base.Add(24 * time.Hour)

	c := NewConstraintBuilder().SetMaxTasksPerDay(1).Build()
	_, _, err := Schedule(avail, []time.Duration{time.Hour, time.Hour}, deadline, opts, c)
	require.Error(t, err)
	var infeasible *InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	require.False(t, infeasible.Total)
	require.Equal(t, 1, infeasible.TaskIndex)
}

func TestScheduleRespectsWeeklyBlackout(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC) // Monday
	require.Equal(t, time.Monday, base.Weekday())
	avail := []Interval{workDay(base, opts)}
	deadline := base.Add(24 * time.Hour)

	c := NewConstraintBuilder().AddWeeklyBlackout(time.Monday, 6*60, 23*60).Build()
	_, _, err := Schedule(avail, []time.Duration{time.Hour}, deadline, opts, c)
	require.Error(t, err)
}

func TestScheduleRespectsMinGap(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	avail := []Interval{workDay(base, opts)}
	deadline := base.Add(24 * time.Hour)

	c := NewConstraintBuilder().SetMinGap(15 * time.Minute).Build()
	assignments, _, err := Schedule(avail, []time.Duration{time.Hour, time.Hour}, deadline, opts, c)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	gap := assignments[1].Start.Sub(assignments[0].End)
	require.GreaterOrEqual(t, gap, 15*time.Minute)
}

func TestScheduleDeterministicGivenSameInputs(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	var avail []Interval
	for i := 0; i < 5; i++ {
		avail = append(avail, workDay(base.AddDate(0, 0, i), opts))
	}
	deadline := base.AddDate(0, 0, 5)
	durations := []time.Duration{time.Hour, time.Hour, time.Hour}

	a1, _, err1 := Schedule(avail, durations, deadline, opts, Constraints{})
	a2, _, err2 := Schedule(avail, durations, deadline, opts, Constraints{})
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, a1, a2)
}

func TestScheduleNoSlotOverlapsDateBlackout(t *testing.T) {
	opts := DefaultOptions()
	base := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	avail := []Interval{workDay(base, opts)}
	deadline := base.Add(24 * time.Hour)

	c := NewConstraintBuilder().AddDateBlackout(base, 6*60, 20*60).Build()
	assignments, _, err := Schedule(avail, []time.Duration{30 * time.Minute}, deadline, opts, c)
	require.NoError(t, err)
	require.Equal(t, 20, assignments[0].Start.Hour())
}
