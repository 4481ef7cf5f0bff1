package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmcp718/ll-win-client/cmd/llwin/handlers"
)

// Deploy returns the deploy command.
//
// The deploy command provisions the Windows instances with terraform,
// waits for each to become ready, verifies the LucidLink filespace mount
// and writes the DCV connection files.
func Deploy() *cobra.Command {
	var (
		configPath  string
		autoApprove bool
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy Windows LucidLink client instances",
		Long: `Deploy provisions Windows instances running the LucidLink client.

The deployment runs in stages per instance:
  1. terraform apply creates the cloud infrastructure
  2. wait for the instance power state, guest agent and install steps
  3. verify the filespace is mounted at the configured drive letter
  4. set the Administrator password and write DCV connection files

Connection files and PASSWORDS.txt land in ~/Desktop/LucidLink-DCV.

Example:
  llwin deploy -c config.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), handlers.DeployOptions{
				ConfigPath:  configPath,
				AutoApprove: autoApprove,
				Plain:       plain,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&plain, "plain", false, "Log progress as plain text instead of the interactive UI")

	return cmd
}
