package protocol

// Directory and path constants used throughout Pulse.
const (
	// PulseDir is the user-level state directory (e.g., ~/.pulse).
	PulseDir = ".pulse"

	// SocketName is the hub's unix socket filename inside PulseDir.
	SocketName = "pulse.sock"

	// DBName is the hub's event log database filename inside PulseDir.
	DBName = "pulse.db"

	// ConfigName is the configuration filename inside PulseDir.
	ConfigName = "pulse.toml"
)
