package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/kestrelsched/calscribe/internal/version"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	var cleanup bool

	cmd := &cobra.Command{
		Use:   "schedule QUERY",
		Short: "Resolve and schedule a natural-language request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()
			return runScheduleWithCleanup(cmd, app, args[0], cleanup)
		},
	}

	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "delete the events just created, immediately after scheduling")
	return cmd
}

func runSchedule(cmd *cobra.Command, app *App, query string) error {
	return runScheduleWithCleanup(cmd, app, query, false)
}

func runScheduleWithCleanup(cmd *cobra.Command, app *App, query string, cleanup bool) error {
	if status, err := app.bridge.Status(cmd.Context()); err == nil {
		if verr := version.CheckBackendVersion(status.Version); verr != nil {
			return classifyRunErr(verr)
		}
	}

	q := pipeline.Query{Text: strings.TrimSpace(query), TZ: app.loc}
	result, trace, err := app.oc.Run(cmd.Context(), q, time.Now().In(app.loc))

	if app.JSON {
		j, jerr := trace.JSON()
		if jerr != nil {
			return jerr
		}
		writeOut(cmd, "%s\n", j)
	} else {
		writeOut(cmd, "%s", trace.String())
	}

	if err != nil {
		return classifyRunErr(err)
	}

	if result.Created.Partial() {
		writeErr(cmd, "warning: %d of %d subtasks failed to create\n",
			len(result.Created.Failures), len(result.Created.CreatedTaskIDs)-1+len(result.Created.Failures))
	}

	if !app.JSON {
		writeOut(cmd, "scheduled %q (%s)\n", result.Scheduled.Title, result.Scheduled.Type)
	}

	if cleanup {
		deleted, err := app.ec.DeleteByTaskID(cmd.Context(), result.Scheduled.ID)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		writeOut(cmd, "cleanup: deleted %d task(s), %d backend event(s)\n", len(deleted.DeletedTaskIDs), deleted.BackendDeletes)
	}
	return nil
}
