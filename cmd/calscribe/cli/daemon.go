package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/store"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// newDaemonCmd runs calscribe as a background process that periodically
// reconciles the local store against the calendar backend: every mapped
// task's backend event should still exist, since nothing else in this
// system is notified when a human deletes or moves an event directly in
// their calendar app. The daemon only reports drift; fixing it back up is
// an iterative-replanning feature spec.md excludes (§12).
func newDaemonCmd(app *App) *cobra.Command {
	var schedule string
	var lookaheadDays int

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Periodically check that scheduled events still exist on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			c := cron.New()
			if _, err := c.AddFunc(schedule, func() {
				if err := reconcile(cmd, app, lookaheadDays); err != nil {
					writeErr(cmd, "daemon: reconcile failed: %v\n", err)
				}
			}); err != nil {
				return err
			}

			c.Start()
			writeOut(cmd, "daemon reconciling on schedule %q, ctrl-c to stop\n", schedule)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			<-sigs

			ctx := c.Stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "0 */6 * * *", "cron expression the reconciliation runs on")
	cmd.Flags().IntVar(&lookaheadDays, "lookahead-days", 60, "how many days of backend events to check tasks against")
	return cmd
}

// reconcile fetches every task with a backend event mapping and flags any
// whose mapped event no longer shows up in the backend's own event list.
func reconcile(cmd *cobra.Command, app *App, lookaheadDays int) error {
	ctx := cmd.Context()

	tasks, err := app.st.ListTasks(ctx, &store.FindTask{})
	if err != nil {
		return err
	}

	byCalendar := map[string][]struct {
		taskID  string
		eventID string
	}{}
	for _, t := range tasks {
		mapping, err := app.st.GetEventMapping(ctx, t.ID)
		if err != nil {
			return err
		}
		if mapping == nil {
			continue // complex-task parent rows carry no backend event
		}
		byCalendar[mapping.CalendarID] = append(byCalendar[mapping.CalendarID], struct {
			taskID  string
			eventID string
		}{t.ID, mapping.BackendEventID})
	}

	stale := 0
	for calendarID, mapped := range byCalendar {
		present, err := presentEventIDs(ctx, app.bridge, calendarID, lookaheadDays)
		if err != nil {
			return err
		}
		for _, m := range mapped {
			if !present[m.eventID] {
				stale++
				writeErr(cmd, "stale: task %s's event %s is no longer on the backend\n", m.taskID, m.eventID)
			}
		}
	}

	if stale == 0 {
		writeOut(cmd, "reconcile: %d task(s) checked, all present\n", len(tasks))
	}
	return nil
}

func presentEventIDs(ctx context.Context, bridge *calbridge.Client, calendarID string, days int) (map[string]bool, error) {
	events, err := bridge.Events(ctx, calbridge.EventsQuery{Days: days, CalendarID: calendarID})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(events))
	for _, e := range events {
		out[e.ID] = true
	}
	return out, nil
}
