// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the webhook client CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "webhook-client",
		Short:         "Provision reserved bare metal servers from reservation webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Serve())
	cmd.AddCommand(VLAN())
	cmd.AddCommand(Version())

	return cmd
}
