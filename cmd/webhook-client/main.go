// Package main is the entry point for the reservation webhook client.
//
// The client receives reservation webhooks from the booking system,
// provisions or releases metal3 BareMetalHosts and isolates freshly
// provisioned servers on a dedicated switch VLAN.
//
// Commands: serve, vlan, version.
//
// For detailed usage information, run:
//
//	webhook-client --help
package main

import (
	"fmt"
	"os"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/cmd/webhook-client/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
