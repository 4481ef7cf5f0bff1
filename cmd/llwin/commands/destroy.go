package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmcp718/ll-win-client/cmd/llwin/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command terminates all instances and removes the terraform
// managed infrastructure (network, security groups, IAM roles).
func Destroy() *cobra.Command {
	var (
		configPath  string
		autoApprove bool
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy all instances and supporting infrastructure",
		Long: `Destroy terminates every deployed instance and removes all
infrastructure created by deploy, including networks, security groups
and IAM roles.

Example:
  llwin destroy -c config.json

WARNING: This operation is irreversible. All instance data will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, autoApprove)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
