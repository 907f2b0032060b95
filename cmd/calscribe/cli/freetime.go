package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kestrelsched/calscribe/scheduler"
	"github.com/spf13/cobra"
)

func newFreeTimeCmd(app *App) *cobra.Command {
	var showSlots bool
	var maxSlots int

	cmd := &cobra.Command{
		Use:   "free-time DEADLINE",
		Short: "Show free time between now and a deadline, without scheduling anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			now := time.Now().In(app.loc)
			deadline, err := parseDeadline(args[0], now, app.loc)
			if err != nil {
				return err
			}

			slots, err := app.allotter.FreeSlots(cmd.Context(), now, deadline, app.loc)
			if err != nil {
				return err
			}

			totalMinutes := 0
			for _, s := range slots {
				totalMinutes += int(s.Duration().Minutes())
			}

			if app.JSON {
				out := struct {
					TotalFreeSlots   int    `json:"total_free_slots"`
					TotalFreeMinutes int    `json:"total_free_minutes"`
					Slots            []slot `json:"free_slots,omitempty"`
				}{TotalFreeSlots: len(slots), TotalFreeMinutes: totalMinutes}
				if showSlots {
					out.Slots = toSlots(slots, maxSlots)
				}
				b, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				writeOut(cmd, "%s\n", b)
				return nil
			}

			writeOut(cmd, "%d free slot(s), %d free minute(s) before %s\n", len(slots), totalMinutes, deadline.Format(time.RFC1123))
			if showSlots {
				for i, s := range toSlots(slots, maxSlots) {
					writeOut(cmd, "  %d. %s — %s\n", i+1, s.Start, s.End)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSlots, "show-slots", false, "list individual free time slots")
	cmd.Flags().IntVar(&maxSlots, "max-slots", 10, "maximum number of slots to show")
	return cmd
}

type slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSlots(intervals []scheduler.Interval, max int) []slot {
	if max > len(intervals) {
		max = len(intervals)
	}
	out := make([]slot, max)
	for i := 0; i < max; i++ {
		out[i] = slot{Start: intervals[i].Start.Format(time.RFC3339), End: intervals[i].End.Format(time.RFC3339)}
	}
	return out
}

// parseDeadline accepts an RFC3339 timestamp, a bare YYYY-MM-DD date
// (interpreted as 23:59 that day), or a relative shorthand: "+Nd" for 23:59
// on the day N days from now, "Nh" for N hours from now.
func parseDeadline(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative-days deadline %q: %w", s, err)
		}
		d := now.AddDate(0, 0, n)
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc), nil
	}
	if strings.HasSuffix(s, "h") {
		if n, err := strconv.Atoi(s[:len(s)-1]); err == nil {
			return now.Add(time.Duration(n) * time.Hour), nil
		}
	}
	if len(s) == len("2006-01-02") {
		d, err := time.ParseInLocation("2006-01-02", s, loc)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc), nil
		}
	}
	if t, err := time.ParseInLocation(time.RFC3339, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline format %q", s)
}
