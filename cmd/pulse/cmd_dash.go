package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pulse/internal/config"
	"pulse/pkg/engine"
)

// newDashCmd creates the "pulse dash" subcommand.
func newDashCmd(configPath *string) *cobra.Command {
	var robot bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Launch interactive dashboard",
		Long:  "Opens the pulse dashboard TUI for watching executions,\nprocessing jobs, and system health in real time.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Robot mode: one-shot JSON snapshot instead of the TUI.
			if robot || !isatty.IsTerminal(os.Stdout.Fd()) {
				return dashRobot(cmd.Context(), *configPath, cmd.OutOrStdout())
			}

			dashCmd := exec.CommandContext(cmd.Context(), "pulse-dash")
			dashCmd.Stdin = os.Stdin
			dashCmd.Stdout = os.Stdout
			dashCmd.Stderr = os.Stderr
			dashCmd.Env = append(os.Environ(), "PULSE_CONFIG="+*configPath)

			if err := dashCmd.Run(); err != nil {
				return fmt.Errorf("run pulse-dash: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&robot, "robot", false, "print a one-shot JSON snapshot instead of the TUI")
	return cmd
}

func dashRobot(ctx context.Context, configPath string, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	client := &engine.Client{
		SocketPath:  cfg.SocketPath,
		SessionID:   cfg.SessionID,
		DialTimeout: 5 * time.Second,
	}
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snap, err := client.Fetch(fetchCtx)
	if err != nil {
		return err
	}
	return printSnapshotJSON(w, snap)
}
