package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite" // SQLite driver

	"pulse/internal/config"
	"pulse/internal/logger"
	"pulse/pkg/statushub"
)

// newServeCmd creates the "pulse serve" subcommand running the hub daemon.
func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pulse hub daemon",
		Long:  "Starts the hub: accepts published status events on the unix socket,\nstreams them to subscribers, and appends them to the event log.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, *configPath)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, configPath string) error {
	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close on shutdown

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Log config reloads; a socket or db path change needs a restart, so
	// the watcher only reports.
	watcher, err := config.NewWatcher(configPath)
	if err == nil {
		if err := watcher.Start(ctx); err == nil {
			defer watcher.Stop() //nolint:errcheck // shutdown path
			go func() {
				for evt := range watcher.Events() {
					if evt.Error != nil {
						log.Warn("config reload failed", logger.F("err", evt.Error))
						continue
					}
					log.Info("config file changed, restart to apply", logger.F("path", configPath))
				}
			}()
		}
	}

	hub := statushub.New(statushub.Config{
		SocketPath:     cfg.SocketPath,
		DBPath:         cfg.DBPath,
		RetainTerminal: cfg.RetainTerminal,
		Logger:         log,
	}, db)

	return hub.Run(ctx)
}

// openLogger builds the daemon logger from config: a log file when set,
// stderr otherwise.
func openLogger(cfg *config.Config) (logger.Logger, func(), error) {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		return logger.NewStderr(level), func() {}, nil
	}
	log, closer, err := logger.OpenFile(cfg.LogFile, level)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = closer.Close() }, nil
}
