// Package configcmder provides the config command for managing persistent
// quips configuration stored as config.toml.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent quips configuration.

Configuration is stored as config.toml and provides default values for
command flags. CLI flags and QUIPS_* environment variables always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen,
  inference.registry_url, inference.registry_token, inference.model,
  inference.chat_timeout_seconds,
  generation.max_attempts, generation.dedup_threshold, generation.recent_window,
  generation.max_tokens, generation.min_length,
  storage.records_dir,
  remote.repo, remote.dir, remote.token,
  corpus.factoids_path, corpus.examples_path

Use subcommands to get, set, or list configuration values:
  quips config set <key> <value>    Set a configuration value
  quips config get <key>            Get a configuration value
  quips config list                 List all configuration values

Examples:
  quips config set inference.model Qwen/Qwen3-4B
  quips config set remote.repo myorg/quips-archive
  quips config get server.listen
  quips config list`

const configShortDesc string = "Manage persistent quips configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
