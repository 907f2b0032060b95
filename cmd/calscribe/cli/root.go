package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds calscribe's command tree. With no subcommand and no
// positional query, root falls back to the interactive bubbletea mode.
func NewRootCmd() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "calscribe [query]",
		Short:         "Turn a natural-language request into scheduled calendar events",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 0 {
				return runInteractive(cmd, app)
			}
			return runSchedule(cmd, app, args[0])
		},
	}

	root.PersistentFlags().StringVar(&app.Timezone, "timezone", envOr("TIMEZONE", ""), "IANA timezone, e.g. America/New_York")
	root.PersistentFlags().StringVar(&app.DBPath, "db-path", envOr("CALSCRIBE_DB_PATH", ""), "path to the calscribe SQLite store")
	root.PersistentFlags().BoolVar(&app.JSON, "json", false, "emit machine-readable JSON instead of text")

	viper.SetEnvPrefix("calscribe")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("timezone", root.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("db-path", root.PersistentFlags().Lookup("db-path"))

	root.AddCommand(
		newScheduleCmd(app),
		newInteractiveCmd(app),
		newListCmd(app),
		newDeleteCmd(app),
		newDeleteParentCmd(app),
		newDeleteAllCmd(app),
		newDaemonCmd(app),
		newFreeTimeCmd(app),
	)

	return root
}

func writeOut(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func writeErr(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
