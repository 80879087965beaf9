package protocol

// ExecutionState represents the lifecycle state of an agent execution.
type ExecutionState string

// Execution state constants.
const (
	ExecQueued    ExecutionState = "queued"
	ExecRunning   ExecutionState = "running"
	ExecCompleted ExecutionState = "completed"
	ExecFailed    ExecutionState = "failed"
	ExecCancelled ExecutionState = "cancelled"
)

// Terminal reports whether s is a terminal execution state. Records in a
// terminal state are frozen: no further delta may mutate them.
func (s ExecutionState) Terminal() bool {
	switch s {
	case ExecCompleted, ExecFailed, ExecCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the five known execution states.
func (s ExecutionState) Valid() bool {
	switch s {
	case ExecQueued, ExecRunning, ExecCompleted, ExecFailed, ExecCancelled:
		return true
	default:
		return false
	}
}

// ProcessingState represents the lifecycle state of a file processing job.
type ProcessingState string

// Processing state constants.
const (
	ProcQueued     ProcessingState = "queued"
	ProcProcessing ProcessingState = "processing"
	ProcCompleted  ProcessingState = "completed"
	ProcFailed     ProcessingState = "failed"
)

// Terminal reports whether s is a terminal processing state.
func (s ProcessingState) Terminal() bool {
	return s == ProcCompleted || s == ProcFailed
}

// Valid reports whether s is one of the four known processing states.
func (s ProcessingState) Valid() bool {
	switch s {
	case ProcQueued, ProcProcessing, ProcCompleted, ProcFailed:
		return true
	default:
		return false
	}
}

// HealthState represents aggregate system health.
type HealthState string

// Health state constants.
const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthDown     HealthState = "down"
)

// AgentType categorizes an execution by the kind of agent that runs it.
type AgentType string

// Known agent types. The engine treats the type as an opaque tag; these
// constants exist for producers and display code.
const (
	AgentPlanning AgentType = "planning"
	AgentQuery    AgentType = "query"
	AgentInsight  AgentType = "insight"
)

// Step is one entry in an execution's ordered step sequence.
type Step struct {
	Label  string         `json:"label"`
	Status ExecutionState `json:"status"`
}

// ExecutionStatus tracks one agent run. ExecutionID is stable for the run's
// lifetime; StartTime is immutable once set; Steps is append/update only.
type ExecutionStatus struct {
	ExecutionID string         `json:"execution_id"`
	AgentType   AgentType      `json:"agent_type,omitempty"`
	Status      ExecutionState `json:"status"`
	CurrentStep string         `json:"current_step,omitempty"`
	Progress    int            `json:"progress"`
	StartTime   string         `json:"start_time,omitempty"` // ISO 8601
	Steps       []Step         `json:"steps,omitempty"`
}

// ProcessingStatus tracks one uploaded file / processing job.
type ProcessingStatus struct {
	FileID   string          `json:"file_id"`
	Filename string          `json:"filename,omitempty"`
	Status   ProcessingState `json:"status"`
	Stage    string          `json:"stage,omitempty"`
	Progress int             `json:"progress"`
	Error    string          `json:"error,omitempty"` // set only on failed
}

// HealthMetrics carries optional numeric health indicators. All values are
// non-negative.
type HealthMetrics struct {
	ResponseTime      float64 `json:"response_time"`
	MemoryUsage       float64 `json:"memory_usage"`
	CPUUsage          float64 `json:"cpu_usage"`
	ActiveConnections int     `json:"active_connections"`
}

// SystemHealth is a singleton replaced wholesale on every health event.
type SystemHealth struct {
	Status   HealthState     `json:"status"`
	Services map[string]bool `json:"services,omitempty"`
	Metrics  *HealthMetrics  `json:"metrics,omitempty"`
}
