// Package quipscmder
package quipscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/quipworks/quips/cmd/quips/config"
	generatecmder "github.com/quipworks/quips/cmd/quips/generate"
	servecmder "github.com/quipworks/quips/cmd/quips/serve"
	synccmder "github.com/quipworks/quips/cmd/quips/sync"
	versioncmder "github.com/quipworks/quips/cmd/version"
)

const quipsLongDesc string = `Quips generates short original one-liners from a remote model
and keeps them durable across restarts.

Common commands:
  quips serve          Run the HTTP API server
  quips generate       Generate one quip from the command line
  quips sync           Reconcile local records with the remote store
  quips config         Manage persistent configuration`

const quipsShortDesc string = "Quips - on-demand one-liner generation"

func NewQuipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quips",
		Short: quipsShortDesc,
		Long:  quipsLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: working directory)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(synccmder.NewSyncCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
