// Command calscribe turns a natural-language scheduling request into
// placed calendar events: run it with a query, leave off the query for an
// interactive prompt, or run the daemon subcommand to periodically check
// that scheduled events still exist on the backend.
package main

import (
	"fmt"
	"os"

	"github.com/kestrelsched/calscribe/cmd/calscribe/cli"
)

func main() {
	root := cli.NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCodeFor(err))
}
