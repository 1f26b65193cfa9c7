// Package configcmder provides the config command for managing persistent
// denguesense configuration stored in the .denguesense/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/config"
)

const configLongDesc string = `Manage persistent denguesense configuration.

Configuration is stored as config.toml in the .denguesense/ directory and
provides default values for command flags. CLI flags and DENGUESENSE_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  assistant.endpoint, assistant.api_key, assistant.timeout,
  assistant.max_buffer_bytes, assistant.max_rollbacks,
  api.listen, client.api_target,
  storage.sqlite_path, storage.postgres_dsn,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  fixtures.path, notify.limit

Use subcommands to get, set, or list configuration values:
  denguesense config set <key> <value>    Set a configuration value
  denguesense config get <key>            Get a configuration value
  denguesense config list                 List all configuration values

Examples:
  denguesense config set assistant.endpoint https://example.org/health-assistant
  denguesense config set eventstream.brokers kafka-1:9092,kafka-2:9092
  denguesense config get api.listen
  denguesense config list`

const configShortDesc string = "Manage persistent denguesense configuration"

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

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

// printTarget reports which config file a command is reading.
func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
