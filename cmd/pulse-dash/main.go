// Package main implements the pulse-dash interactive dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"pulse/internal/config"
	"pulse/pkg/engine"
)

func main() {
	cfgPath := config.DefaultConfigPath()
	if v := os.Getenv("PULSE_CONFIG"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Robot mode: when piped, print one JSON snapshot instead of the TUI.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		if err := robotMode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	eng := engine.New(engine.Config{
		SocketPath:     cfg.SocketPath,
		SessionID:      cfg.SessionID,
		PollInterval:   cfg.PollInterval(),
		ReconnectBase:  cfg.ReconnectBase(),
		ReconnectMax:   cfg.ReconnectMax(),
		RetainTerminal: cfg.RetainTerminal,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	p := tea.NewProgram(newModel(eng.View()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}

// robotMode fetches one snapshot over the pull channel and prints it as JSON.
func robotMode(cfg *config.Config) error {
	client := &engine.Client{
		SocketPath:  cfg.SocketPath,
		SessionID:   cfg.SessionID,
		DialTimeout: 5 * time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := client.Fetch(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
