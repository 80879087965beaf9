package engine

import (
	"context"
	"errors"
	"time"

	"pulse/internal/logger"
	"pulse/pkg/protocol"
)

// Config holds engine configuration. Zero values select defaults.
type Config struct {
	SocketPath     string        // hub unix socket path
	SessionID      string        // scopes which stream/snapshot the hub serves
	PollInterval   time.Duration // fallback poll cadence (default 5s)
	ReconnectBase  time.Duration // first reconnect delay (default 1s)
	ReconnectMax   time.Duration // reconnect backoff ceiling (default 30s)
	ConnectTimeout time.Duration // per-attempt dial budget (default 5s)
	RetainTerminal int           // terminal entries kept per collection (default 500)
	Logger         logger.Logger // nil means silent
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.ReconnectBase <= 0 {
		out.ReconnectBase = DefaultReconnectBase
	}
	if out.ReconnectMax <= 0 {
		out.ReconnectMax = DefaultReconnectMax
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = 5 * time.Second
	}
	if out.RetainTerminal <= 0 {
		out.RetainTerminal = DefaultRetainTerminal
	}
	if out.Logger == nil {
		out.Logger = logger.Nop()
	}
	return out
}

// applyOp is one unit of work on the engine's single ordered apply queue.
type applyOp struct {
	evt  *protocol.StatusEvent
	snap *protocol.Snapshot
}

// Engine composes the store, supervisor, transport and poller into the
// status synchronization engine. All inbound mutations, push events and
// poll snapshots alike, are serialized through one ordered queue consumed by a
// single writer goroutine, so deltas apply in arrival order regardless of
// which channel delivered them.
type Engine struct {
	cfg   Config
	store *Store
	sup   *Supervisor
	log   logger.Logger
	ops   chan applyOp
}

// New creates an Engine that syncs from the hub socket named in cfg.
func New(cfg Config) *Engine {
	client := &Client{
		SocketPath:  cfg.SocketPath,
		SessionID:   cfg.SessionID,
		DialTimeout: cfg.ConnectTimeout,
	}
	return NewWithSources(cfg, client, client)
}

// NewWithSources creates an Engine with explicit acquisition channels.
// Tests and alternative transports plug in here.
func NewWithSources(cfg Config, transport Transport, source SnapshotSource) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:   cfg,
		store: NewStore(cfg.RetainTerminal, cfg.Logger),
		log:   cfg.Logger,
		ops:   make(chan applyOp, connEventBuffer),
	}
	e.sup = NewSupervisor(transport, source, SupervisorConfig{
		ReconnectBase:  cfg.ReconnectBase,
		ReconnectMax:   cfg.ReconnectMax,
		ConnectTimeout: cfg.ConnectTimeout,
		PollInterval:   cfg.PollInterval,
	}, e.enqueueEvent, e.enqueueSnapshot, cfg.Logger)
	return e
}

// Store exposes the engine's owned store. Intended for embedding the engine
// in-process (the hub reuses the same merge semantics); presenters should go
// through View instead.
func (e *Engine) Store() *Store { return e.store }

// View returns the presenter boundary bound to this engine.
func (e *Engine) View() *View {
	return NewView(e.store, e.sup.Connected)
}

// Connected reports whether the push stream is currently open.
func (e *Engine) Connected() bool { return e.sup.Connected() }

// Run starts the supervisor and consumes the apply queue until ctx is
// cancelled. On return all sources and timers are torn down. Run never
// returns a transport error; total upstream failure just leaves the engine
// disconnected with stale data, which is a correctly reported state.
func (e *Engine) Run(ctx context.Context) {
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		e.sup.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			// Keep draining so a blocked producer can wind down, but stop
			// applying: the engine is tearing down.
			for {
				select {
				case <-e.ops:
				case <-supDone:
					return
				}
			}
		case op := <-e.ops:
			e.applyOne(op)
		}
	}
}

func (e *Engine) applyOne(op applyOp) {
	switch {
	case op.evt != nil:
		if err := e.store.ApplyEvent(*op.evt); err != nil {
			var malformed *protocol.MalformedEventError
			if errors.As(err, &malformed) {
				e.log.Warn("dropping malformed event",
					logger.F("kind", malformed.Kind), logger.F("reason", malformed.Reason))
				return
			}
			e.log.Warn("dropping event", logger.F("err", err))
		}
	case op.snap != nil:
		e.store.ApplySnapshot(*op.snap)
	}
}

// enqueueEvent feeds one push event into the apply queue in arrival order.
func (e *Engine) enqueueEvent(evt protocol.StatusEvent) {
	e.ops <- applyOp{evt: &evt}
}

// enqueueSnapshot feeds one poll result into the apply queue.
func (e *Engine) enqueueSnapshot(snap protocol.Snapshot) {
	e.ops <- applyOp{snap: &snap}
}
