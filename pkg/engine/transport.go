package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"pulse/pkg/protocol"
)

// Transport is the push-based acquisition channel. A successful Connect is
// the "opened" lifecycle signal; the returned Conn reports "closed" and
// "error" by closing its event channel. A Transport never reconnects on its
// own; recovery belongs to the Supervisor.
type Transport interface {
	Connect(ctx context.Context) (*Conn, error)
}

// SnapshotSource is the pull-based acquisition channel used by the Poller.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*protocol.Snapshot, error)
}

// connEventBuffer is the per-connection event buffer between the socket
// reader and the engine's consumer.
const connEventBuffer = 64

// Conn is one open push stream. Events are delivered in arrival order; the
// channel is closed when the stream ends, after which Err reports the reason.
type Conn struct {
	events chan protocol.StatusEvent
	stop   chan struct{}

	closeOnce sync.Once
	closeFn   func()

	mu  sync.Mutex
	err error
}

func newConn(closeFn func()) *Conn {
	return &Conn{
		events:  make(chan protocol.StatusEvent, connEventBuffer),
		stop:    make(chan struct{}),
		closeFn: closeFn,
	}
}

// Events returns the ordered event stream. The channel closes when the
// connection ends for any reason.
func (c *Conn) Events() <-chan protocol.StatusEvent { return c.events }

// Err reports why the stream ended. Valid after Events is closed.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close tears the connection down. Safe to call multiple times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}

// finish records the termination reason and closes the event channel.
// Called exactly once by the reader goroutine.
func (c *Conn) finish(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.events)
}

// push delivers one event unless the connection is being torn down.
func (c *Conn) push(evt protocol.StatusEvent) bool {
	select {
	case c.events <- evt:
		return true
	case <-c.stop:
		return false
	}
}

// Client talks to the pulse hub over its unix socket. It implements both
// acquisition channels: Connect opens a SUBSCRIBE stream (push) and Fetch
// performs a one-shot snapshot directive (pull).
type Client struct {
	SocketPath  string
	SessionID   string        // scopes which stream/snapshot the hub serves
	DialTimeout time.Duration // zero means no per-dial timeout
}

// Connect dials the hub, sends a SUBSCRIBE message, and starts streaming.
// The returned Conn's event channel closes when the hub goes away.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	sock, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	sub := protocol.Message{
		Type:      protocol.MsgSubscribe,
		Subscribe: &protocol.SubscribePayload{SessionID: c.SessionID},
	}
	data, err := json.Marshal(sub)
	if err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("marshal subscribe: %w", err)
	}
	data = append(data, '\n')
	if _, err := sock.Write(data); err != nil {
		_ = sock.Close()
		return nil, &protocol.HubUnreachableError{SocketPath: c.SocketPath, Reason: err.Error()}
	}

	conn := newConn(func() { _ = sock.Close() })
	go readStream(sock, conn)
	return conn, nil
}

// readStream decodes line-delimited messages from the socket into the Conn.
// Malformed lines and non-EVENT messages are skipped, not fatal.
func readStream(sock net.Conn, conn *Conn) {
	scanner := protocol.NewLineScanner(sock)
	for scanner.Scan() {
		var msg protocol.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != protocol.MsgEvent || msg.Event == nil {
			continue
		}
		if !conn.push(*msg.Event) {
			conn.finish(fmt.Errorf("connection closed by consumer"))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		conn.finish(err)
	} else {
		conn.finish(fmt.Errorf("stream closed by hub"))
	}
}

// Fetch opens a short-lived connection, sends a snapshot directive, and
// reads one ACK carrying the full current state.
func (c *Client) Fetch(ctx context.Context) (*protocol.Snapshot, error) {
	// Fast path: a missing socket means the hub is down.
	if _, err := os.Stat(c.SocketPath); err != nil {
		return nil, &protocol.HubUnreachableError{SocketPath: c.SocketPath, Reason: "socket not found"}
	}

	sock, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer sock.Close() //nolint:errcheck // best-effort close on one-shot request

	msg := protocol.Message{
		Type:      protocol.MsgDirective,
		Directive: &protocol.DirectivePayload{Op: protocol.OpSnapshot, SessionID: c.SessionID},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal directive: %w", err)
	}
	data = append(data, '\n')
	if _, err := sock.Write(data); err != nil {
		return nil, &protocol.HubUnreachableError{SocketPath: c.SocketPath, Reason: err.Error()}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = sock.SetReadDeadline(deadline)
	}

	scanner := protocol.NewLineScanner(sock)
	if !scanner.Scan() {
		return nil, &protocol.HubUnreachableError{SocketPath: c.SocketPath, Reason: "no ACK"}
	}

	var ack protocol.Message
	if err := json.Unmarshal(scanner.Bytes(), &ack); err != nil {
		return nil, fmt.Errorf("parse ACK: %w", err)
	}
	if ack.Type != protocol.MsgACK || ack.ACK == nil {
		return nil, fmt.Errorf("unexpected reply type %q", ack.Type)
	}
	if !ack.ACK.OK {
		return nil, fmt.Errorf("snapshot refused: %s", ack.ACK.Error)
	}

	var snap protocol.Snapshot
	if err := json.Unmarshal([]byte(ack.ACK.Detail), &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if c.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}
	var d net.Dialer
	sock, err := d.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return nil, &protocol.HubUnreachableError{SocketPath: c.SocketPath, Reason: err.Error()}
	}
	return sock, nil
}
