package scheduler

import (
	"math"
	"time"
)

// Schedule runs the ordered even-spread greedy algorithm. durations must be
// ordered the same way the caller wants tasks placed — that order is a hard
// constraint, not a hint (spec.md §4.6 rationale: subtask order encodes
// dependencies). Returns assignments in the same order as durations.
func Schedule(availability []Interval, durations []time.Duration, deadline time.Time, opts Options, c Constraints) ([]Assignment, map[time.Time]int, error) {
	days := normalize(availability, deadline, opts, c)

	needMinutes := 0
	for _, d := range durations {
		needMinutes += int(d.Minutes())
	}
	haveMinutes := 0
	for _, b := range days {
		for _, iv := range b.Avail {
			haveMinutes += int(iv.Duration().Minutes())
		}
	}
	if needMinutes > haveMinutes {
		return nil, nil, &InfeasibleError{Total: true, NeedMinutes: needMinutes, HaveMinutes: haveMinutes}
	}

	n := len(durations)
	d := len(days)
	targets := evenSpreadTargets(n, d)

	assignments := make([]Assignment, 0, n)
	for i, dur := range durations {
		assigned := false
		for _, candidate := range rankDays(days, i, targets[i]) {
			bucket := days[candidate]
			if c.MaxTasksPerDay > 0 && bucket.TasksPlaced >= c.MaxTasksPerDay {
				continue
			}

			earliestAllowed := bucket.Date
			if bucket.LastTaskEnd != nil {
				earliestAllowed = bucket.LastTaskEnd.Add(c.MinGap)
			}

			start, end, ok := findEarliestBlock(bucket.Avail, dur, earliestAllowed, deadline)
			if !ok {
				continue
			}

			assignments = append(assignments, Assignment{
				TaskIndex: i,
				Duration:  dur,
				Day:       bucket.Date,
				Start:     start,
				End:       end,
			})

			subtractEnd := end.Add(c.MinGap)
			bucket.Avail = subtractBlock(bucket.Avail, Interval{Start: start, End: subtractEnd})
			bucket.TasksPlaced++
			lastEnd := end
			bucket.LastTaskEnd = &lastEnd

			assigned = true
			break
		}

		if !assigned {
			return nil, nil, &InfeasibleError{TaskIndex: i}
		}
	}

	perDayCount := make(map[time.Time]int, len(days))
	for _, b := range days {
		if b.TasksPlaced > 0 {
			perDayCount[b.Date] = b.TasksPlaced
		}
	}

	return assignments, perDayCount, nil
}

// evenSpreadTargets computes each task's preferred day index, spreading n
// tasks uniformly across d non-empty days.
func evenSpreadTargets(n, d int) []int {
	targets := make([]int, n)
	if n <= 1 || d <= 1 {
		return targets
	}
	for i := 0; i < n; i++ {
		targets[i] = int(math.Round(float64(i) * float64(d-1) / float64(n-1)))
	}
	return targets
}

// rankDays orders candidate day indices by the lexicographic key
// (|day_index - target|, tasks_already_placed_on_day, day_index): closest
// to target first, then least-loaded, then earliest.
func rankDays(days []*dayBucket, taskIndex, target int) []int {
	idx := make([]int, len(days))
	for i := range days {
		idx[i] = i
	}
	less := func(a, b int) bool {
		da := abs(a - target)
		db := abs(b - target)
		if da != db {
			return da < db
		}
		if days[a].TasksPlaced != days[b].TasksPlaced {
			return days[a].TasksPlaced < days[b].TasksPlaced
		}
		return a < b
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && less(idx[j], idx[j-1]); j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// findEarliestBlock finds the earliest sub-interval of avail, no earlier
// than earliestAllowed, that fits dur and ends no later than deadline.
func findEarliestBlock(avail []Interval, dur time.Duration, earliestAllowed, deadline time.Time) (time.Time, time.Time, bool) {
	for _, iv := range avail {
		start := iv.Start
		if start.Before(earliestAllowed) {
			start = earliestAllowed
		}
		end := start.Add(dur)
		if end.After(iv.End) {
			continue
		}
		if end.After(deadline) {
			continue
		}
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}
