package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"pulse/internal/logger"
	"pulse/pkg/protocol"
)

// SupervisorState is the tagged state of the connection supervisor. Making
// the state explicit keeps illegal combinations (stream and poller both
// active) unrepresentable in the control flow.
type SupervisorState string

// Supervisor state constants.
const (
	StateConnecting   SupervisorState = "connecting"
	StateConnected    SupervisorState = "connected"
	StateDisconnected SupervisorState = "disconnected"
)

// Reconnect backoff defaults.
const (
	DefaultReconnectBase = 1 * time.Second
	DefaultReconnectMax  = 30 * time.Second
	backoffJitter        = 0.25
)

// SupervisorConfig holds supervisor tuning knobs.
type SupervisorConfig struct {
	ReconnectBase  time.Duration // first retry delay (default 1s)
	ReconnectMax   time.Duration // backoff ceiling (default 30s)
	ConnectTimeout time.Duration // per-attempt dial budget (default 5s)
	PollInterval   time.Duration // fallback poll cadence (default 5s)
}

func (c *SupervisorConfig) withDefaults() SupervisorConfig {
	out := *c
	if out.ReconnectBase <= 0 {
		out.ReconnectBase = DefaultReconnectBase
	}
	if out.ReconnectMax <= 0 {
		out.ReconnectMax = DefaultReconnectMax
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = 5 * time.Second
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	return out
}

// Supervisor owns the choice between the push Transport and the pull Poller.
// State machine: Connecting -> Connected -> Disconnected -> Connecting -> …
// with no terminal state; it runs until its context is cancelled. On
// disconnect the poller starts immediately (no coverage gap) and reconnect
// attempts follow capped exponential backoff with jitter. Transport-level
// failures never escape Run as errors; the worst outcome is staying
// disconnected and polling.
type Supervisor struct {
	transport  Transport
	source     SnapshotSource
	cfg        SupervisorConfig
	applyEvent func(protocol.StatusEvent)
	applySnap  func(protocol.Snapshot)
	log        logger.Logger

	connected atomic.Bool

	mu    sync.Mutex
	state SupervisorState
}

// NewSupervisor creates a Supervisor feeding events and snapshots into the
// given apply callbacks. Both callbacks are invoked from supervisor-owned
// goroutines, one at a time per source.
func NewSupervisor(transport Transport, source SnapshotSource, cfg SupervisorConfig,
	applyEvent func(protocol.StatusEvent), applySnap func(protocol.Snapshot), log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Nop()
	}
	return &Supervisor{
		transport:  transport,
		source:     source,
		cfg:        cfg.withDefaults(),
		applyEvent: applyEvent,
		applySnap:  applySnap,
		log:        log,
		state:      StateConnecting,
	}
}

// Connected reports whether the push stream is currently open.
func (s *Supervisor) Connected() bool {
	return s.connected.Load()
}

// State returns the current supervisor state.
func (s *Supervisor) State() SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st SupervisorState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run drives the state machine until ctx is cancelled. On return the
// transport, the poller and every pending timer have been torn down; nothing
// fires afterward.
func (s *Supervisor) Run(ctx context.Context) {
	poller := NewPoller(s.source, s.cfg.PollInterval, s.applySnap, s.log)

	var pollerCancel context.CancelFunc
	var pollerWG sync.WaitGroup

	startPoller := func() {
		if pollerCancel != nil {
			return // already polling
		}
		var pollCtx context.Context
		pollCtx, pollerCancel = context.WithCancel(ctx)
		pollerWG.Add(1)
		go func() {
			defer pollerWG.Done()
			poller.Run(pollCtx)
		}()
	}
	stopPoller := func() {
		if pollerCancel == nil {
			return
		}
		pollerCancel()
		pollerWG.Wait()
		pollerCancel = nil
	}
	defer stopPoller()

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		s.setState(StateConnecting)
		conn, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("stream connect failed", logger.F("err", err))
			if !s.waitDisconnected(ctx, startPoller, attempt) {
				return
			}
			attempt++
			continue
		}

		// Opened: push stream is live, stop the fallback.
		s.setState(StateConnected)
		s.connected.Store(true)
		stopPoller()
		attempt = 0
		s.log.Info("stream connected")

		reason := s.consume(ctx, conn)
		s.connected.Store(false)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("stream closed", logger.F("reason", reason))

		if !s.waitDisconnected(ctx, startPoller, attempt) {
			return
		}
		attempt++
	}
}

// connect performs one transport connection attempt within ConnectTimeout.
func (s *Supervisor) connect(ctx context.Context) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	return s.transport.Connect(dialCtx)
}

// consume forwards stream events to applyEvent until the stream ends or ctx
// is cancelled. Returns the close reason.
func (s *Supervisor) consume(ctx context.Context, conn *Conn) error {
	defer conn.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-conn.Events():
			if !ok {
				return conn.Err()
			}
			s.applyEvent(evt)
		}
	}
}

// waitDisconnected enters the Disconnected state, starts the poller with no
// coverage gap, and sleeps the backoff delay. Returns false if ctx was
// cancelled (the timer is stopped before returning on every path).
func (s *Supervisor) waitDisconnected(ctx context.Context, startPoller func(), attempt int) bool {
	s.setState(StateDisconnected)
	startPoller()

	delay := backoffDelay(attempt, s.cfg.ReconnectBase, s.cfg.ReconnectMax)
	s.log.Debug("scheduling reconnect",
		logger.F("attempt", attempt+1), logger.F("delay", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// backoffDelay computes the reconnect delay for the given attempt:
// base doubling per attempt, capped at max, with jitter to avoid
// thundering-herd reconnects. Never less than base.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(max) {
		d = float64(max)
	}
	if r := d * backoffJitter; r > 0 {
		d = d - r + rand.Float64()*2*r
	}
	if d < float64(base) {
		d = float64(base)
	}
	if d > float64(max) {
		d = float64(max)
	}
	return time.Duration(d)
}
