package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmcp718/ll-win-client/cmd/llwin/handlers"
)

// Start returns the start command.
//
// Starting re-runs the full readiness chain and rewrites the DCV
// connection files: public addresses change across a stop/start cycle.
func Start() *cobra.Command {
	var (
		configPath string
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start all stopped instances and refresh connection files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Start(cmd.Context(), configPath, plain)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVar(&plain, "plain", false, "Log progress as plain text instead of the interactive UI")

	return cmd
}
