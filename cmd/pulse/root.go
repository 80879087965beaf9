package main

import (
	"fmt"

	"pulse/internal/appversion"
	"pulse/internal/config"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root pulse command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "Real-time status synchronization for agent dashboards",
		Long:          "pulse keeps dashboard state in sync with backend status events.\nIt runs the hub daemon, queries live state, and replays scenarios.",
		Version:       fmt.Sprintf("pulse %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to pulse.toml")

	cmd.AddCommand(
		newServeCmd(&configPath),
		newStatusCmd(&configPath),
		newDashCmd(&configPath),
		newSimulateCmd(&configPath),
		newLogsCmd(&configPath),
	)

	return cmd
}
