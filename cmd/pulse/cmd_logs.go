package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pulse/internal/config"
	"pulse/pkg/eventlog"
	"pulse/pkg/protocol"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail    int
	follow  bool
	kind    string
	session string
}

// newLogsCmd creates the "pulse logs" subcommand.
func newLogsCmd(configPath *string) *cobra.Command {
	var lc logsConfig

	cmd := &cobra.Command{
		Use:   "logs [entity-id]",
		Short: "Query and tail the hub event log",
		Long:  "Displays events from the hub event log.\nOptionally filter by entity-id, kind, or session and follow new events.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entityID string
			if len(args) == 1 {
				entityID = args[0]
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			reader, err := eventlog.NewReader(cfg.DBPath)
			if err != nil {
				return err
			}
			defer reader.Close() //nolint:errcheck // read-only handle

			w := cmd.OutOrStdout()
			if lc.follow {
				return followLogs(cmd.Context(), reader, w, entityID, lc)
			}
			return printLogs(cmd.Context(), reader, w, entityID, lc)
		},
	}

	cmd.Flags().IntVar(&lc.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().BoolVarP(&lc.follow, "follow", "f", false, "poll for new events every 1s")
	cmd.Flags().StringVar(&lc.kind, "kind", "", "filter by event kind (execution, processing, health)")
	cmd.Flags().StringVar(&lc.session, "session", "", "filter by hub session id")

	return cmd
}

func queryOpts(entityID string, lc logsConfig) eventlog.QueryOpts {
	return eventlog.QueryOpts{
		Kind:      protocol.EventKind(lc.kind),
		EntityID:  entityID,
		SessionID: lc.session,
		Limit:     lc.tail,
	}
}

// printLogs displays the last N matching events in chronological order.
func printLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, entityID string, lc logsConfig) error {
	events, err := reader.Query(ctx, queryOpts(entityID, lc))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return nil
	}
	// Query returns newest first; print oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, events[i])
	}
	return nil
}

// followLogs prints the initial batch and then polls for new events.
func followLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, entityID string, lc logsConfig) error {
	events, err := reader.Query(ctx, queryOpts(entityID, lc))
	if err != nil {
		return err
	}
	var lastID int64
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, events[i])
		lastID = events[i].ID
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			opts := queryOpts(entityID, lc)
			opts.Limit = 100
			batch, err := reader.Query(ctx, opts)
			if err != nil {
				return err
			}
			for i := len(batch) - 1; i >= 0; i-- {
				if batch[i].ID <= lastID {
					continue
				}
				formatEvent(w, batch[i])
				lastID = batch[i].ID
			}
		}
	}
}

func formatEvent(w io.Writer, e eventlog.Event) {
	ts := e.CreatedAt.Format("15:04:05")
	entity := e.EntityID
	if entity == "" {
		entity = "-"
	}
	fmt.Fprintf(w, "%s  %-10s  %-20s  %s\n", ts, e.Kind, entity, e.Payload)
}
