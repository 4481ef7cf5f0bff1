// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the llwin CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llwin",
		Short: "Deploy Windows LucidLink client instances on AWS or Azure",
	}

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Status())
	cmd.AddCommand(Verify())
	cmd.AddCommand(Stop())
	cmd.AddCommand(Start())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Version())

	return cmd
}
