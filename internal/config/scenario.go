package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pulse/pkg/protocol"
)

// Scenario is a scripted sequence of status events for the simulate command.
type Scenario struct {
	// Name labels the scenario in logs.
	Name string `yaml:"name"`

	// DefaultDelayMS is the pause between steps when a step sets none.
	DefaultDelayMS int `yaml:"default_delay_ms"`

	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one event to publish, with an optional pause before it.
// Exactly one of Execution, Processing, Health is set.
type ScenarioStep struct {
	DelayMS    int                 `yaml:"delay_ms,omitempty"`
	Execution  *scenarioExecution  `yaml:"execution,omitempty"`
	Processing *scenarioProcessing `yaml:"processing,omitempty"`
	Health     *scenarioHealth     `yaml:"health,omitempty"`
}

// Local YAML shapes for the wire payloads; protocol types carry JSON tags
// only, so the scenario format declares its own field names.
type scenarioExecution struct {
	ExecutionID string         `yaml:"execution_id"`
	AgentType   string         `yaml:"agent_type,omitempty"`
	Status      string         `yaml:"status,omitempty"`
	CurrentStep string         `yaml:"current_step,omitempty"`
	Progress    int            `yaml:"progress,omitempty"`
	Steps       []scenarioStep `yaml:"steps,omitempty"`
}

type scenarioStep struct {
	Label  string `yaml:"label"`
	Status string `yaml:"status,omitempty"`
}

type scenarioProcessing struct {
	FileID   string `yaml:"file_id"`
	Filename string `yaml:"filename,omitempty"`
	Status   string `yaml:"status,omitempty"`
	Stage    string `yaml:"stage,omitempty"`
	Progress int    `yaml:"progress,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

type scenarioHealth struct {
	Status   string          `yaml:"status"`
	Services map[string]bool `yaml:"services,omitempty"`
}

// Event converts the step into a wire event.
func (s ScenarioStep) Event() (protocol.StatusEvent, error) {
	switch {
	case s.Execution != nil:
		exec := &protocol.ExecutionStatus{
			ExecutionID: s.Execution.ExecutionID,
			AgentType:   protocol.AgentType(s.Execution.AgentType),
			Status:      protocol.ExecutionState(s.Execution.Status),
			CurrentStep: s.Execution.CurrentStep,
			Progress:    s.Execution.Progress,
		}
		for _, st := range s.Execution.Steps {
			exec.Steps = append(exec.Steps, protocol.Step{Label: st.Label, Status: protocol.ExecutionState(st.Status)})
		}
		return protocol.StatusEvent{Kind: protocol.KindExecution, Execution: exec}, nil
	case s.Processing != nil:
		proc := &protocol.ProcessingStatus{
			FileID:   s.Processing.FileID,
			Filename: s.Processing.Filename,
			Status:   protocol.ProcessingState(s.Processing.Status),
			Stage:    s.Processing.Stage,
			Progress: s.Processing.Progress,
			Error:    s.Processing.Error,
		}
		return protocol.StatusEvent{Kind: protocol.KindProcessing, Processing: proc}, nil
	case s.Health != nil:
		health := &protocol.SystemHealth{
			Status:   protocol.HealthState(s.Health.Status),
			Services: s.Health.Services,
		}
		return protocol.StatusEvent{Kind: protocol.KindHealth, Health: health}, nil
	default:
		return protocol.StatusEvent{}, fmt.Errorf("step carries no payload")
	}
}

// Delay returns the pause before this step, falling back to the scenario
// default.
func (s ScenarioStep) Delay(scenario *Scenario) time.Duration {
	ms := s.DelayMS
	if ms == 0 {
		ms = scenario.DefaultDelayMS
	}
	return time.Duration(ms) * time.Millisecond
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own flag
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	for i, step := range sc.Steps {
		evt, err := step.Event()
		if err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %w", path, i+1, err)
		}
		if err := evt.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %w", path, i+1, err)
		}
	}
	return &sc, nil
}
