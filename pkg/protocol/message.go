package protocol

import (
	"bufio"
	"io"
)

// MessageType identifies a wire message on the hub socket.
type MessageType string

// Message type constants.
const (
	MsgEvent     MessageType = "EVENT"     // publisher -> hub, hub -> subscribers
	MsgSubscribe MessageType = "SUBSCRIBE" // client -> hub: start streaming
	MsgDirective MessageType = "DIRECTIVE" // client -> hub: one-shot request
	MsgACK       MessageType = "ACK"       // hub -> client: directive response
)

// Message is the line-delimited JSON envelope exchanged over the hub socket.
// Exactly the payload matching Type is set.
type Message struct {
	Type      MessageType       `json:"type"`
	Event     *StatusEvent      `json:"event,omitempty"`
	Subscribe *SubscribePayload `json:"subscribe,omitempty"`
	Directive *DirectivePayload `json:"directive,omitempty"`
	ACK       *ACKPayload       `json:"ack,omitempty"`
}

// SubscribePayload opens a streaming subscription. SessionID scopes which
// stream the hub serves; empty means the default session.
type SubscribePayload struct {
	SessionID string `json:"session_id,omitempty"`
}

// DirectivePayload is a one-shot request answered with an ACK.
type DirectivePayload struct {
	Op        string `json:"op"` // "snapshot" | "health"
	SessionID string `json:"session_id,omitempty"`
}

// ACKPayload acknowledges a directive. Detail carries the response body as
// JSON (e.g. a Snapshot for op "snapshot").
type ACKPayload struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Directive op constants.
const (
	OpSnapshot = "snapshot"
	OpHealth   = "health"
)

// MaxLineBytes bounds one wire line. A snapshot ACK carries every retained
// record in a single line, so the limit must hold hundreds of records with
// long step lists, not bufio's default token size.
const MaxLineBytes = 16 << 20

// NewLineScanner returns a line scanner sized for hub wire messages. All
// socket readers use this instead of a bare bufio.Scanner.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)
	return scanner
}
