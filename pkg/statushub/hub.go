// Package statushub implements the pulse hub daemon. The Hub manages a UDS
// server where backend publishers push status events and dashboard clients
// subscribe to the live stream or request one-shot snapshots. Every accepted
// event is appended to a SQLite event log and folded into an in-memory store
// so snapshot directives always answer from current state.
package statushub

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulse/internal/logger"
	"pulse/pkg/engine"
	"pulse/pkg/protocol"
)

// subscriberBuffer is the per-subscriber outbound queue. A subscriber that
// falls this far behind is dropped rather than allowed to stall the hub.
const subscriberBuffer = 128

// Config holds Hub configuration.
type Config struct {
	SocketPath      string        // UDS socket path
	DBPath          string        // SQLite event log path
	RetainTerminal  int           // terminal entries kept per collection (default 500)
	ShutdownTimeout time.Duration // graceful shutdown budget (default 5s)
	Logger          logger.Logger // nil means silent
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = 5 * time.Second
	}
	if out.Logger == nil {
		out.Logger = logger.Nop()
	}
	return out
}

// subscriber is one connected stream consumer.
type subscriber struct {
	id      string
	session string
	conn    net.Conn
	out     chan protocol.Message
	done    chan struct{}
}

// Hub is the status event broker.
type Hub struct {
	cfg       Config
	db        *sql.DB
	store     *engine.Store
	log       logger.Logger
	sessionID string

	mu          sync.Mutex
	subscribers map[string]*subscriber
	listener    net.Listener
	conns       map[net.Conn]struct{}
}

// New creates a Hub. It does not start listening; call Run.
func New(cfg Config, db *sql.DB) *Hub {
	resolved := cfg.withDefaults()
	return &Hub{
		cfg:         resolved,
		db:          db,
		store:       engine.NewStore(resolved.RetainTerminal, resolved.Logger),
		log:         resolved.Logger,
		sessionID:   uuid.NewString(),
		subscribers: make(map[string]*subscriber),
		conns:       make(map[net.Conn]struct{}),
	}
}

// SessionID returns the id recorded for this hub process lifetime.
func (h *Hub) SessionID() string { return h.sessionID }

// Store exposes the hub's folded-in state. Read-only use.
func (h *Hub) Store() *engine.Store { return h.store }

// Run starts the hub event loop. It initializes the SQLite schema, records
// a session row, starts the UDS listener, and serves until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, "INSERT INTO sessions (id) VALUES (?)", h.sessionID); err != nil {
		return fmt.Errorf("record session: %w", err)
	}

	if err := cleanStaleSocket(h.cfg.SocketPath); err != nil {
		return err
	}
	ln, err := net.Listen("unix", h.cfg.SocketPath) //nolint:noctx // UDS bind is instant
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", h.cfg.SocketPath, err)
	}
	h.mu.Lock()
	h.listener = ln
	h.mu.Unlock()

	h.log.Info("hub listening",
		logger.F("socket", h.cfg.SocketPath), logger.F("session", h.sessionID))

	go h.acceptLoop(ctx, ln)

	<-ctx.Done()

	_ = ln.Close()
	h.closeAll()

	if _, err := h.db.Exec("UPDATE sessions SET stopped_at = datetime('now') WHERE id = ?", h.sessionID); err != nil {
		h.log.Warn("close session row", logger.F("err", err))
	}
	return nil
}

// closeAll tears down every open connection and subscriber.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers {
		close(sub.out)
		delete(h.subscribers, sub.id)
	}
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Persistent accept failures must not spin a hot loop.
			h.log.Warn("accept failed", logger.F("err", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()
		go h.handleConn(ctx, conn)
	}
}

// handleConn reads line-delimited JSON messages from one client. The first
// message decides the connection's role: EVENT lines mark a publisher,
// SUBSCRIBE upgrades the connection to a streaming subscriber, and DIRECTIVE
// is a short-lived request answered with a single ACK.
func (h *Hub) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	scanner := protocol.NewLineScanner(conn)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		var msg protocol.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			h.log.Debug("skipping unparseable line", logger.F("err", err))
			continue
		}

		switch msg.Type {
		case protocol.MsgEvent:
			if msg.Event != nil {
				h.ingest(ctx, *msg.Event)
			}
		case protocol.MsgSubscribe:
			session := ""
			if msg.Subscribe != nil {
				session = msg.Subscribe.SessionID
			}
			h.serveSubscriber(conn, session)
			return
		case protocol.MsgDirective:
			h.handleDirective(conn, msg)
			return // client disconnects after the ACK
		case protocol.MsgACK:
			// Clients never send ACKs; ignore.
		}
	}
}

// ingest validates one published event, appends it to the log, folds it into
// the store, and fans it out to subscribers. Malformed events are dropped.
func (h *Hub) ingest(ctx context.Context, evt protocol.StatusEvent) {
	if err := h.store.ApplyEvent(evt); err != nil {
		h.log.Warn("dropping event", logger.F("err", err))
		return
	}
	if err := h.appendLog(ctx, evt); err != nil {
		h.log.Warn("event log append failed", logger.F("err", err))
	}
	h.broadcast(evt)
}

func (h *Hub) appendLog(ctx context.Context, evt protocol.StatusEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		"INSERT INTO events (kind, entity_id, session_id, payload) VALUES (?, ?, ?, ?)",
		string(evt.Kind), evt.EntityID(), h.sessionID, string(payload))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// broadcast fans one event out to every subscriber. A subscriber whose queue
// is full is dropped; it can reconnect and recover through a snapshot.
func (h *Hub) broadcast(evt protocol.StatusEvent) {
	msg := protocol.Message{Type: protocol.MsgEvent, Event: &evt}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		select {
		case sub.out <- msg:
		default:
			h.log.Warn("dropping slow subscriber", logger.F("subscriber", id))
			close(sub.out)
			delete(h.subscribers, id)
		}
	}
}

// serveSubscriber registers the connection and streams events until the
// client goes away or the hub drops it. Blocks for the connection lifetime.
func (h *Hub) serveSubscriber(conn net.Conn, session string) {
	sub := &subscriber{
		id:      uuid.NewString(),
		session: session,
		conn:    conn,
		out:     make(chan protocol.Message, subscriberBuffer),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	h.log.Debug("subscriber connected", logger.F("subscriber", sub.id))

	defer func() {
		h.mu.Lock()
		if _, ok := h.subscribers[sub.id]; ok {
			close(sub.out)
			delete(h.subscribers, sub.id)
		}
		h.mu.Unlock()
	}()

	// Detect the client hanging up: subscribers never send after SUBSCRIBE,
	// so a read returning is a disconnect.
	go func() {
		_, _ = conn.Read(make([]byte, 1))
		close(sub.done)
	}()

	enc := json.NewEncoder(conn)
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-sub.out:
			if !ok {
				return
			}
			if err := enc.Encode(msg); err != nil {
				return
			}
		}
	}
}

// handleDirective answers a one-shot request with a single ACK line.
func (h *Hub) handleDirective(conn net.Conn, msg protocol.Message) {
	enc := json.NewEncoder(conn)
	if msg.Directive == nil {
		h.writeACK(enc, protocol.ACKPayload{OK: false, Error: "missing directive payload"})
		return
	}

	switch msg.Directive.Op {
	case protocol.OpSnapshot:
		snap := h.store.Snapshot()
		detail, err := json.Marshal(snap)
		if err != nil {
			h.writeACK(enc, protocol.ACKPayload{OK: false, Error: err.Error()})
			return
		}
		h.writeACK(enc, protocol.ACKPayload{OK: true, Detail: string(detail)})
	case protocol.OpHealth:
		detail, err := json.Marshal(h.store.Health())
		if err != nil {
			h.writeACK(enc, protocol.ACKPayload{OK: false, Error: err.Error()})
			return
		}
		h.writeACK(enc, protocol.ACKPayload{OK: true, Detail: string(detail)})
	default:
		h.writeACK(enc, protocol.ACKPayload{OK: false, Error: "unknown op " + msg.Directive.Op})
	}
}

func (h *Hub) writeACK(enc *json.Encoder, ack protocol.ACKPayload) {
	if err := enc.Encode(protocol.Message{Type: protocol.MsgACK, ACK: &ack}); err != nil {
		h.log.Debug("write ack failed", logger.F("err", err))
	}
}

// SubscriberCount reports the number of active stream subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
