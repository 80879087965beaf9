package main

import (
	"bytes"
	"strings"
	"testing"
)

// executeCommand runs the root command with the given args and returns stdout, stderr, and error.
func executeCommand(args ...string) (stdout string, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestCLICommands(t *testing.T) {
	t.Run("root --help shows usage", func(t *testing.T) {
		out, _, err := executeCommand("--help")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !containsAll(out, "pulse", "serve", "status", "dash", "simulate", "logs") {
			t.Errorf("expected root help to list all subcommands, got:\n%s", out)
		}
	})

	t.Run("root --version prints version", func(t *testing.T) {
		out, _, err := executeCommand("--version")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "pulse") {
			t.Errorf("expected version output to contain 'pulse', got: %s", out)
		}
	})

	t.Run("logs --help shows flags", func(t *testing.T) {
		out, _, err := executeCommand("logs", "--help")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !containsAll(out, "--tail", "--follow", "--kind", "--session") {
			t.Errorf("expected logs help to show filter flags, got:\n%s", out)
		}
	})

	t.Run("simulate requires a scenario file", func(t *testing.T) {
		_, _, err := executeCommand("simulate")
		if err == nil {
			t.Fatal("expected arg error")
		}
	})

	t.Run("unknown subcommand fails", func(t *testing.T) {
		_, _, err := executeCommand("bogus")
		if err == nil {
			t.Fatal("expected error for unknown subcommand")
		}
	})
}
