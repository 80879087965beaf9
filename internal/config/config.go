// Package config loads and watches the pulse.toml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pulse/pkg/protocol"
)

// Config holds the recognized pulse options. Zero values select defaults.
type Config struct {
	// SocketPath is the hub's unix socket. Defaults to ~/.pulse/pulse.sock.
	SocketPath string `toml:"socket_path"`

	// DBPath is the hub's event log database. Defaults to ~/.pulse/pulse.db.
	DBPath string `toml:"db_path"`

	// SessionID scopes which stream/snapshot the hub serves.
	SessionID string `toml:"session_id"`

	// PollIntervalMS is the fallback poll cadence in milliseconds.
	PollIntervalMS int `toml:"poll_interval_ms"`

	// ReconnectBaseMS is the first reconnect delay in milliseconds.
	ReconnectBaseMS int `toml:"reconnect_base_ms"`

	// ReconnectMaxMS is the reconnect backoff ceiling in milliseconds.
	ReconnectMaxMS int `toml:"reconnect_max_ms"`

	// RetainTerminal caps terminal entries kept per collection.
	RetainTerminal int `toml:"retain_terminal"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile receives structured logs; empty means stderr.
	LogFile string `toml:"log_file"`
}

func (c *Config) withDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = DefaultPath(protocol.SocketName)
	}
	if c.DBPath == "" {
		c.DBPath = DefaultPath(protocol.DBName)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// PollInterval returns the configured poll cadence, zero if unset.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ReconnectBase returns the configured first reconnect delay, zero if unset.
func (c *Config) ReconnectBase() time.Duration {
	return time.Duration(c.ReconnectBaseMS) * time.Millisecond
}

// ReconnectMax returns the configured backoff ceiling, zero if unset.
func (c *Config) ReconnectMax() time.Duration {
	return time.Duration(c.ReconnectMaxMS) * time.Millisecond
}

// DefaultPath returns name inside the user-level pulse directory.
func DefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(protocol.PulseDir, name)
	}
	return filepath.Join(home, protocol.PulseDir, name)
}

// DefaultConfigPath returns the default pulse.toml location.
func DefaultConfigPath() string {
	return DefaultPath(protocol.ConfigName)
}

// Load reads a pulse.toml file and applies defaults. A missing file is not
// an error: the defaults are the configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own flag
	if err != nil {
		if os.IsNotExist(err) {
			cfg.withDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.withDefaults()
	return &cfg, nil
}
