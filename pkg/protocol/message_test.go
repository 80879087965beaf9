package protocol_test

import (
	"encoding/json"
	"testing"

	"pulse/pkg/protocol"
)

func TestMessageTypes(t *testing.T) {
	t.Parallel()

	types := []protocol.MessageType{
		protocol.MsgEvent,
		protocol.MsgSubscribe,
		protocol.MsgDirective,
		protocol.MsgACK,
	}

	expected := []string{"EVENT", "SUBSCRIBE", "DIRECTIVE", "ACK"}

	for i, mt := range types {
		if string(mt) != expected[i] {
			t.Errorf("expected %q, got %q", expected[i], mt)
		}
	}
}

func TestMessageJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  protocol.Message
	}{
		{
			name: "EVENT",
			msg: protocol.Message{
				Type: protocol.MsgEvent,
				Event: &protocol.StatusEvent{
					Kind:      protocol.KindExecution,
					Execution: &protocol.ExecutionStatus{ExecutionID: "e1", Status: protocol.ExecRunning},
				},
			},
		},
		{
			name: "SUBSCRIBE",
			msg: protocol.Message{
				Type:      protocol.MsgSubscribe,
				Subscribe: &protocol.SubscribePayload{SessionID: "sess-1"},
			},
		},
		{
			name: "DIRECTIVE",
			msg: protocol.Message{
				Type:      protocol.MsgDirective,
				Directive: &protocol.DirectivePayload{Op: protocol.OpSnapshot},
			},
		},
		{
			name: "ACK",
			msg: protocol.Message{
				Type: protocol.MsgACK,
				ACK:  &protocol.ACKPayload{OK: true, Detail: `{"executions":[],"processing":[]}`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got protocol.Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != tt.msg.Type {
				t.Errorf("type = %q, want %q", got.Type, tt.msg.Type)
			}
		})
	}
}

func TestUnknownMessageFieldsIgnored(t *testing.T) {
	t.Parallel()

	// Forward compatibility: extra fields from a newer hub must not break decode.
	raw := `{"type":"EVENT","event":{"kind":"execution","execution":{"execution_id":"e9"}},"trace_id":"abc"}`
	var msg protocol.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Event == nil || msg.Event.Execution.ExecutionID != "e9" {
		t.Fatalf("payload lost: %+v", msg.Event)
	}
}
