package main

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pulse/pkg/protocol"
)

func writeTestScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
name: smoke
steps:
  - execution:
      execution_id: e1
      status: running
      progress: 10
  - delay_ms: 5
    processing:
      file_id: f1
      status: queued
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestSimulateCmd_PublishesSteps(t *testing.T) {
	sockPath := shortSockPath(t, "sim")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close() //nolint:errcheck // test cleanup

	received := make(chan protocol.Message, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck // test stub
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var msg protocol.Message
			if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
				continue
			}
			received <- msg
		}
	}()

	cfgPath := writeTestConfig(t, sockPath, filepath.Join(t.TempDir(), "pulse.db"))
	out, _, err := executeCommand("simulate", writeTestScenario(t), "--config", cfgPath)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if !containsAll(out, "smoke", "2 steps") {
		t.Errorf("output = %q", out)
	}

	var events []protocol.Message
	for len(events) < 2 {
		select {
		case msg := <-received:
			events = append(events, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("hub received %d events, want 2", len(events))
		}
	}

	if events[0].Event.Kind != protocol.KindExecution || events[0].Event.Execution.ExecutionID != "e1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Event.Kind != protocol.KindProcessing || events[1].Event.Processing.FileID != "f1" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestSimulateCmd_HubDown(t *testing.T) {
	cfgPath := writeTestConfig(t,
		filepath.Join(t.TempDir(), "absent.sock"),
		filepath.Join(t.TempDir(), "pulse.db"))

	_, _, err := executeCommand("simulate", writeTestScenario(t), "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error with no hub running")
	}
}
