package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"pulse/internal/config"
	"pulse/pkg/protocol"
)

// newSimulateCmd creates the "pulse simulate" subcommand: replays a YAML
// scenario of status events into the hub as a publisher.
func newSimulateCmd(configPath *string) *cobra.Command {
	var loop bool

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Publish a scripted scenario of status events",
		Long:  "Reads a YAML scenario file and publishes its events to the hub\nwith the scripted delays. Useful for demos and dashboard testing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			scenario, err := config.LoadScenario(args[0])
			if err != nil {
				return err
			}
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), cfg.SocketPath, scenario, loop)
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "replay the scenario until interrupted")
	return cmd
}

func runSimulate(ctx context.Context, w io.Writer, socketPath string, scenario *config.Scenario, loop bool) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return &protocol.HubUnreachableError{SocketPath: socketPath, Reason: err.Error()}
	}
	defer conn.Close() //nolint:errcheck // best-effort close

	name := scenario.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(w, "publishing %s (%d steps)\n", name, len(scenario.Steps))

	for {
		if err := publishSteps(ctx, conn, scenario); err != nil {
			return err
		}
		if !loop || ctx.Err() != nil {
			return nil
		}
	}
}

func publishSteps(ctx context.Context, conn net.Conn, scenario *config.Scenario) error {
	for i, step := range scenario.Steps {
		if delay := step.Delay(scenario); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}

		evt, err := step.Event()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		data, err := json.Marshal(protocol.Message{Type: protocol.MsgEvent, Event: &evt})
		if err != nil {
			return fmt.Errorf("step %d: marshal: %w", i+1, err)
		}
		data = append(data, '\n')
		if _, err := conn.Write(data); err != nil {
			return fmt.Errorf("step %d: publish: %w", i+1, err)
		}
	}
	return nil
}
