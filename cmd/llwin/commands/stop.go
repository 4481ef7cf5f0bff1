package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmcp718/ll-win-client/cmd/llwin/handlers"
)

// Stop returns the stop command.
//
// Stopped instances keep their disks but no longer accrue compute
// charges. On Azure the instances are deallocated for the same reason.
func Stop() *cobra.Command {
	var (
		configPath  string
		autoApprove bool
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop all running instances without destroying them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Stop(cmd.Context(), configPath, autoApprove)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
