package protocol_test

import (
	"testing"

	"pulse/pkg/protocol"
)

func TestExecutionStateTerminal(t *testing.T) {
	t.Parallel()

	terminal := []protocol.ExecutionState{
		protocol.ExecCompleted,
		protocol.ExecFailed,
		protocol.ExecCancelled,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}

	live := []protocol.ExecutionState{
		protocol.ExecQueued,
		protocol.ExecRunning,
		protocol.ExecutionState(""),
		protocol.ExecutionState("bogus"),
	}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestProcessingStateTerminal(t *testing.T) {
	t.Parallel()

	if !protocol.ProcCompleted.Terminal() || !protocol.ProcFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
	if protocol.ProcQueued.Terminal() || protocol.ProcProcessing.Terminal() {
		t.Error("queued and processing must be non-terminal")
	}
}

func TestStateValid(t *testing.T) {
	t.Parallel()

	if protocol.ExecutionState("sideways").Valid() {
		t.Error("unknown execution state must not validate")
	}
	if !protocol.ExecRunning.Valid() {
		t.Error("running must validate")
	}
	if protocol.ProcessingState("melting").Valid() {
		t.Error("unknown processing state must not validate")
	}
	if !protocol.ProcProcessing.Valid() {
		t.Error("processing must validate")
	}
}
