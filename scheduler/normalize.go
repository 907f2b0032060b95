package scheduler

import "time"

// day truncates t to local midnight in its own zone, used as a grouping
// key for normalized availability.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// splitAtMidnight breaks iv into pieces that each lie within a single
// local day.
func splitAtMidnight(iv Interval) []Interval {
	var out []Interval
	cur := iv.Start
	for cur.Before(iv.End) {
		nextMidnight := day(cur).AddDate(0, 0, 1)
		segEnd := iv.End
		if nextMidnight.Before(segEnd) {
			segEnd = nextMidnight
		}
		if cur.Before(segEnd) {
			out = append(out, Interval{Start: cur, End: segEnd})
		}
		cur = segEnd
	}
	return out
}

// clipToWorkWindow clips iv (already confined to one local day) to
// [workStartHour, workEndHour) of that day. Returns false if the result
// is empty.
func clipToWorkWindow(iv Interval, opts Options) (Interval, bool) {
	d := day(iv.Start)
	winStart := d.Add(time.Duration(opts.WorkStartHour) * time.Hour)
	winEnd := d.Add(time.Duration(opts.WorkEndHour) * time.Hour)

	start := iv.Start
	if start.Before(winStart) {
		start = winStart
	}
	end := iv.End
	if end.After(winEnd) {
		end = winEnd
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// subtractBlock removes block from each interval in intervals, splitting
// around it as needed.
func subtractBlock(intervals []Interval, block Interval) []Interval {
	var out []Interval
	for _, iv := range intervals {
		if !block.Start.Before(iv.End) || !iv.Start.Before(block.End) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(block.Start) {
			out = append(out, Interval{Start: iv.Start, End: block.Start})
		}
		if block.End.Before(iv.End) {
			out = append(out, Interval{Start: block.End, End: iv.End})
		}
	}
	return filterEmpty(out)
}

func filterEmpty(intervals []Interval) []Interval {
	out := intervals[:0]
	for _, iv := range intervals {
		if iv.Start.Before(iv.End) {
			out = append(out, iv)
		}
	}
	return out
}

// blackoutBlocksForDay returns the weekly+date blackout intervals that
// apply to the local day d.
func blackoutBlocksForDay(d time.Time, c Constraints) []Interval {
	var blocks []Interval
	for _, wb := range c.WeeklyBlackouts {
		if d.Weekday() == wb.Weekday {
			blocks = append(blocks, Interval{
				Start: d.Add(time.Duration(wb.StartMinute) * time.Minute),
				End:   d.Add(time.Duration(wb.EndMinute) * time.Minute),
			})
		}
	}
	for _, db := range c.DateBlackouts {
		if day(db.Date).Equal(d) {
			blocks = append(blocks, Interval{
				Start: d.Add(time.Duration(db.StartMinute) * time.Minute),
				End:   d.Add(time.Duration(db.EndMinute) * time.Minute),
			})
		}
	}
	return blocks
}

// dayBucket holds one local day's normalized, mutable availability during
// placement.
type dayBucket struct {
	Date          time.Time
	Avail         []Interval
	TasksPlaced   int
	LastTaskEnd   *time.Time
}

// normalize implements step 1 of the algorithm: split at midnight, clip to
// the work window, subtract blackouts, discard empty, discard anything
// past the deadline, and group by local date in chronological order.
func normalize(availability []Interval, deadline time.Time, opts Options, c Constraints) []*dayBucket {
	byDay := map[time.Time]*dayBucket{}
	var order []time.Time

	for _, raw := range availability {
		for _, piece := range splitAtMidnight(raw) {
			clipped, ok := clipToWorkWindow(piece, opts)
			if !ok {
				continue
			}
			d := day(clipped.Start)

			remaining := []Interval{clipped}
			for _, block := range blackoutBlocksForDay(d, c) {
				var next []Interval
				for _, iv := range remaining {
					next = append(next, subtractBlock([]Interval{iv}, block)...)
				}
				remaining = next
			}

			for _, iv := range remaining {
				if !iv.Start.Before(deadline) {
					continue
				}
				if iv.End.After(deadline) {
					iv.End = deadline
				}
				if !iv.Start.Before(iv.End) {
					continue
				}

				bucket, exists := byDay[d]
				if !exists {
					bucket = &dayBucket{Date: d}
					byDay[d] = bucket
					order = append(order, d)
				}
				bucket.Avail = append(bucket.Avail, iv)
			}
		}
	}

	sortTimes(order)

	out := make([]*dayBucket, 0, len(order))
	for _, d := range order {
		b := byDay[d]
		sortIntervals(b.Avail)
		out = append(out, b)
	}
	return out
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

func sortIntervals(ivs []Interval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j].Start.Before(ivs[j-1].Start); j-- {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
		}
	}
}
