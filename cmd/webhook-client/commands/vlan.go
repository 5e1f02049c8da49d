package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/cmd/webhook-client/handlers"
)

// VLAN returns the command group for switch VLAN tooling.
func VLAN() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vlan",
		Short: "Inspect switch VLAN assignments",
	}
	cmd.AddCommand(vlanPreview())
	return cmd
}

// vlanPreview prints the VLAN a batch would get without touching the switch.
//
// Flags:
//
//	--config, -c: Path to the network configuration file (default: network_config.yaml)
//	--user, -u: Reservation owner (required)
//	--at: Batch timestamp in RFC 3339 (default: now)
//	--json: Output in JSON format
func vlanPreview() *cobra.Command {
	var (
		configPath string
		username   string
		at         string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "preview RESOURCE...",
		Short: "Show the VLAN and switch commands for a set of servers",
		Long: `Show the VLAN id, name and IOS commands that a successful
EVENT_START batch for the given servers would produce.

Examples:
  webhook-client vlan preview -u alice restart-srv01 restart-srv02
  webhook-client vlan preview -u alice --at 2025-05-29T12:00:00Z --json restart-srv01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return err
				}
				ts = parsed
			}
			return handlers.VLANPreview(cmd.OutOrStdout(), handlers.VLANPreviewOptions{
				ConfigPath: configPath,
				Username:   username,
				Resources:  args,
				Timestamp:  ts,
				JSON:       jsonOutput,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "network_config.yaml", "Path to network configuration file")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Reservation owner")
	cmd.Flags().StringVar(&at, "at", "", "Batch timestamp in RFC 3339 (default: now)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
