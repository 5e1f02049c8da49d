package commands

import (
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/cmd/webhook-client/handlers"
)

// Serve returns the command that runs the webhook server.
//
// All settings come from the environment; see config.Load.
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Run the webhook server until SIGINT or SIGTERM.

Configuration is read from environment variables. When
NETWORK_CONFIG_ENABLED=true the switch and VLAN settings are read from
NETWORK_CONFIG_PATH (default: network_config.yaml).

Examples:
  # Serve on the default port
  K8S_NAMESPACE=metal3 PROVISION_IMAGE=http://images/ubuntu.qcow2 webhook-client serve`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Serve(ctrl.SetupSignalHandler(), version)
		},
	}
}
