package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pulse/pkg/engine"
	"pulse/pkg/protocol"
)

// seededView builds a view over a store with a mix of live and done records.
func seededView(t *testing.T, connected bool) *engine.View {
	t.Helper()
	store := engine.NewStore(0, nil)

	apply := func(evt protocol.StatusEvent) {
		t.Helper()
		if err := store.ApplyEvent(evt); err != nil {
			t.Fatalf("ApplyEvent: %v", err)
		}
	}

	apply(protocol.StatusEvent{Kind: protocol.KindExecution, Execution: &protocol.ExecutionStatus{
		ExecutionID: "exec-live", AgentType: protocol.AgentPlanning,
		Status: protocol.ExecRunning, Progress: 40, CurrentStep: "analyze",
	}})
	apply(protocol.StatusEvent{Kind: protocol.KindExecution, Execution: &protocol.ExecutionStatus{
		ExecutionID: "exec-done", Status: protocol.ExecCompleted, Progress: 100,
	}})
	apply(protocol.StatusEvent{Kind: protocol.KindProcessing, Processing: &protocol.ProcessingStatus{
		FileID: "f1", Filename: "report.pdf", Status: protocol.ProcProcessing, Stage: "extract", Progress: 30,
	}})
	apply(protocol.StatusEvent{Kind: protocol.KindHealth, Health: &protocol.SystemHealth{
		Status:   protocol.HealthDegraded,
		Services: map[string]bool{"api": true, "worker": false},
	}})

	return engine.NewView(store, func() bool { return connected })
}

func TestViewRendersSections(t *testing.T) {
	t.Parallel()

	m := newModel(seededView(t, true))
	out := m.View()

	for _, want := range []string{
		"pulse", "live",
		"Executions (2)", "exec-live", "exec-done", "planning", "analyze",
		"Processing (1)", "report.pdf", "extract",
		"Health", "degraded", "api", "worker",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewShowsReconnectingWhenDisconnected(t *testing.T) {
	t.Parallel()

	m := newModel(seededView(t, false))
	out := m.View()

	if !strings.Contains(out, "reconnecting") {
		t.Errorf("view should show reconnecting indicator:\n%s", out)
	}
	if strings.Contains(out, "● live") {
		t.Errorf("view should not show live indicator while disconnected:\n%s", out)
	}
}

func TestQuitKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"q", "ctrl+c"} {
		m := newModel(seededView(t, true))
		var msg tea.KeyMsg
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("key %q: no command returned", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q should quit", key)
		}
	}
}

func TestClearKeys(t *testing.T) {
	t.Parallel()

	view := seededView(t, true)
	m := newModel(view)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = updated.(Model)

	if got := len(view.CompletedExecutions()); got != 0 {
		t.Errorf("completed executions after clear = %d", got)
	}
	if len(view.ActiveExecutions()) != 1 {
		t.Error("clear removed an active execution")
	}
	if !strings.Contains(m.View(), "cleared 1 completed executions") {
		t.Error("footer does not confirm the clear")
	}

	// No completed processing jobs yet: the action is a no-op.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(Model)
	if len(view.Processing()) != 1 {
		t.Error("clear removed an active processing job")
	}
	if !strings.Contains(m.View(), "no completed processing jobs") {
		t.Error("footer does not report the no-op")
	}
}

func TestTickSchedulesNextTick(t *testing.T) {
	t.Parallel()

	m := newModel(seededView(t, true))
	_, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick must schedule the next tick")
	}
}

func TestProgressBarBounds(t *testing.T) {
	t.Parallel()

	if got := progressBar(0, 10); !strings.Contains(got, "0%") {
		t.Errorf("progressBar(0) = %q", got)
	}
	if got := progressBar(100, 10); !strings.Contains(got, "100%") || strings.Contains(got, "░") {
		t.Errorf("progressBar(100) = %q", got)
	}
	if got := progressBar(150, 10); !strings.Contains(got, "100%") {
		t.Errorf("progressBar(150) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a-very-long-identifier", 8); len([]rune(got)) != 8 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate long = %q", got)
	}
}
