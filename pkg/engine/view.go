package engine

import "pulse/pkg/protocol"

// ActiveExecutions filters execs to those whose status is non-terminal.
func ActiveExecutions(execs []protocol.ExecutionStatus) []protocol.ExecutionStatus {
	out := make([]protocol.ExecutionStatus, 0, len(execs))
	for _, e := range execs {
		if !e.Status.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

// CompletedExecutions filters execs to those whose status is terminal.
func CompletedExecutions(execs []protocol.ExecutionStatus) []protocol.ExecutionStatus {
	out := make([]protocol.ExecutionStatus, 0, len(execs))
	for _, e := range execs {
		if e.Status.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

// ActiveProcessing filters jobs to those whose status is non-terminal.
func ActiveProcessing(jobs []protocol.ProcessingStatus) []protocol.ProcessingStatus {
	out := make([]protocol.ProcessingStatus, 0, len(jobs))
	for _, j := range jobs {
		if !j.Status.Terminal() {
			out = append(out, j)
		}
	}
	return out
}

// CompletedProcessing filters jobs to those whose status is terminal.
func CompletedProcessing(jobs []protocol.ProcessingStatus) []protocol.ProcessingStatus {
	out := make([]protocol.ProcessingStatus, 0, len(jobs))
	for _, j := range jobs {
		if j.Status.Terminal() {
			out = append(out, j)
		}
	}
	return out
}

// View is the entire boundary a presenter may use: read access to the
// collections, system health and connectivity, plus the two clear actions.
// Derivations are recomputed on every read; nothing is cached. Presenters
// must not reach past the View into transport or poller internals.
type View struct {
	store     *Store
	connected func() bool
}

// NewView binds a View to a store and a connectivity probe. A nil probe
// reports permanently disconnected.
func NewView(store *Store, connected func() bool) *View {
	if connected == nil {
		connected = func() bool { return false }
	}
	return &View{store: store, connected: connected}
}

// Executions returns all execution records in insertion order.
func (v *View) Executions() []protocol.ExecutionStatus { return v.store.Executions() }

// Processing returns all processing records in insertion order.
func (v *View) Processing() []protocol.ProcessingStatus { return v.store.Processing() }

// ActiveExecutions returns non-terminal executions.
func (v *View) ActiveExecutions() []protocol.ExecutionStatus {
	return ActiveExecutions(v.store.Executions())
}

// CompletedExecutions returns terminal executions eligible for clearing.
func (v *View) CompletedExecutions() []protocol.ExecutionStatus {
	return CompletedExecutions(v.store.Executions())
}

// ActiveProcessing returns non-terminal processing jobs.
func (v *View) ActiveProcessing() []protocol.ProcessingStatus {
	return ActiveProcessing(v.store.Processing())
}

// CompletedProcessing returns terminal processing jobs eligible for clearing.
func (v *View) CompletedProcessing() []protocol.ProcessingStatus {
	return CompletedProcessing(v.store.Processing())
}

// Health returns the current system health, or nil before the first health
// event.
func (v *View) Health() *protocol.SystemHealth { return v.store.Health() }

// Connected reports whether the push stream is currently open. False means
// the engine is relying on the polling fallback.
func (v *View) Connected() bool { return v.connected() }

// ClearCompletedExecutions removes terminal executions from the local cache.
// This is a view operation and is never sent upstream. Idempotent.
func (v *View) ClearCompletedExecutions() int { return v.store.ClearCompletedExecutions() }

// ClearCompletedProcessing removes terminal processing jobs from the local
// cache. Never sent upstream. Idempotent.
func (v *View) ClearCompletedProcessing() int { return v.store.ClearCompletedProcessing() }
