package cli

import (
	"encoding/json"

	"github.com/kestrelsched/calscribe/store"
	"github.com/spf13/cobra"
)

func newListCmd(app *App) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks tracked in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			find := &store.FindTask{}
			if parentID != "" {
				find.ParentID = &parentID
			}
			tasks, err := app.st.ListTasks(cmd.Context(), find)
			if err != nil {
				return err
			}

			if app.JSON {
				b, err := json.MarshalIndent(tasks, "", "  ")
				if err != nil {
					return err
				}
				writeOut(cmd, "%s\n", b)
				return nil
			}

			for _, t := range tasks {
				if t.ParentID != nil {
					writeOut(cmd, "%s  (child of %s)  %s\n", t.ID, *t.ParentID, t.Title)
				} else {
					writeOut(cmd, "%s  %s\n", t.ID, t.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "only list children of this parent task ID")
	return cmd
}
