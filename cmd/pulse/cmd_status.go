package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pulse/internal/config"
	"pulse/pkg/engine"
	"pulse/pkg/protocol"
)

// newStatusCmd creates the "pulse status" subcommand: a one-shot snapshot
// of current execution, processing and health state.
func newStatusCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current synchronized state",
		Long:  "Requests a snapshot from the hub and prints executions,\nprocessing jobs, and system health.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			client := &engine.Client{
				SocketPath:  cfg.SocketPath,
				SessionID:   cfg.SessionID,
				DialTimeout: 5 * time.Second,
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			snap, err := client.Fetch(ctx)
			if err != nil {
				return err
			}

			// Robot mode: machine-readable output when piped.
			if asJSON || !isatty.IsTerminal(os.Stdout.Fd()) {
				return printSnapshotJSON(cmd.OutOrStdout(), snap)
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printSnapshotJSON(w io.Writer, snap *protocol.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func printSnapshot(w io.Writer, snap *protocol.Snapshot) {
	fmt.Fprintf(w, "executions (%d):\n", len(snap.Executions))
	for _, e := range snap.Executions {
		fmt.Fprintf(w, "  %-20s %-10s %3d%%", e.ExecutionID, e.Status, e.Progress)
		if e.CurrentStep != "" {
			fmt.Fprintf(w, "  %s", e.CurrentStep)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "processing (%d):\n", len(snap.Processing))
	for _, p := range snap.Processing {
		name := p.Filename
		if name == "" {
			name = p.FileID
		}
		fmt.Fprintf(w, "  %-20s %-10s %3d%%", name, p.Status, p.Progress)
		if p.Error != "" {
			fmt.Fprintf(w, "  %s", p.Error)
		}
		fmt.Fprintln(w)
	}

	if snap.Health != nil {
		fmt.Fprintf(w, "health: %s\n", snap.Health.Status)
		for name, up := range snap.Health.Services {
			state := "up"
			if !up {
				state = "down"
			}
			fmt.Fprintf(w, "  %-20s %s\n", name, state)
		}
	} else {
		fmt.Fprintln(w, "health: unknown")
	}
}
