package cli

import (
	"bufio"
	"strings"

	"github.com/kestrelsched/calscribe/store"
	"github.com/spf13/cobra"
)

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task and, if it is a parent, all of its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			result, err := app.ec.DeleteByTaskID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeOut(cmd, "deleted %d task(s), %d backend event(s)\n", len(result.DeletedTaskIDs), result.BackendDeletes)
			return nil
		},
	}
}

func newDeleteParentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-parent TASK_ID",
		Short: "Delete only the children of a complex task, keeping the parent row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			result, err := app.ec.DeleteByParentID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeOut(cmd, "deleted %d child task(s)\n", len(result.DeletedTaskIDs))
			return nil
		},
	}
}

func newDeleteAllCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every task calscribe is tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			if !yes && !confirmed(cmd) {
				writeErr(cmd, "aborted: type \"yes\" to confirm\n")
				return nil
			}

			roots, err := app.st.ListTasks(cmd.Context(), &store.FindTask{})
			if err != nil {
				return err
			}

			deleted, events := 0, 0
			for _, t := range roots {
				if t.ParentID != nil {
					continue // removed as part of its parent's cascade
				}
				result, err := app.ec.DeleteByTaskID(cmd.Context(), t.ID)
				if err != nil {
					return err
				}
				deleted += len(result.DeletedTaskIDs)
				events += result.BackendDeletes
			}
			writeOut(cmd, "deleted %d task(s), %d backend event(s)\n", deleted, events)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the typed confirmation prompt")
	return cmd
}

// confirmed prompts the user to type "yes" on stdin before a destructive,
// irreversible delete-all.
func confirmed(cmd *cobra.Command) bool {
	writeOut(cmd, "this deletes every task calscribe tracks. Type \"yes\" to continue: ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "yes"
}
