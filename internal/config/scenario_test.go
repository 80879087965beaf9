package config //nolint:testpackage // white-box test needs internal access

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pulse/pkg/protocol"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `
name: demo
default_delay_ms: 200
steps:
  - execution:
      execution_id: e1
      agent_type: planning
      status: running
      progress: 25
      steps:
        - label: fetch
          status: completed
        - label: analyze
          status: running
  - delay_ms: 50
    processing:
      file_id: f1
      filename: report.pdf
      status: processing
      stage: extract
  - health:
      status: healthy
      services:
        api: true
`)

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Name != "demo" || len(sc.Steps) != 3 {
		t.Fatalf("scenario = %+v", sc)
	}

	evt, err := sc.Steps[0].Event()
	if err != nil {
		t.Fatalf("step 0 Event: %v", err)
	}
	if evt.Kind != protocol.KindExecution || evt.Execution.Progress != 25 {
		t.Errorf("step 0 = %+v", evt)
	}
	if len(evt.Execution.Steps) != 2 || evt.Execution.Steps[1].Status != protocol.ExecRunning {
		t.Errorf("step 0 steps = %+v", evt.Execution.Steps)
	}

	if got := sc.Steps[0].Delay(sc); got != 200*time.Millisecond {
		t.Errorf("default delay = %v", got)
	}
	if got := sc.Steps[1].Delay(sc); got != 50*time.Millisecond {
		t.Errorf("explicit delay = %v", got)
	}

	evt, err = sc.Steps[2].Event()
	if err != nil {
		t.Fatalf("step 2 Event: %v", err)
	}
	if evt.Kind != protocol.KindHealth || evt.Health.Status != protocol.HealthHealthy {
		t.Errorf("step 2 = %+v", evt)
	}
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, "name: empty\nsteps: []\n")
	if _, err := LoadScenario(path); err == nil {
		t.Fatal("expected error for empty scenario")
	}
}

func TestLoadScenarioRejectsPayloadlessStep(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `
steps:
  - delay_ms: 10
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatal("expected error for step without payload")
	}
}

func TestLoadScenarioRejectsMalformedEvent(t *testing.T) {
	t.Parallel()

	// Execution without an id fails wire validation.
	path := writeScenario(t, `
steps:
  - execution:
      status: running
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatal("expected validation error")
	}
}
