// Package engine implements the pulse status synchronization engine: an
// in-memory, session-scoped cache of upstream truth. The Store reconciles
// inbound status deltas into per-entity state, the Transport and Poller are
// the two acquisition channels, and the Supervisor owns the choice between
// them. The engine is a cache, not a system of record; nothing survives a
// process restart.
package engine

import (
	"sort"
	"sync"

	"pulse/internal/logger"
	"pulse/pkg/protocol"
)

// DefaultRetainTerminal caps how many terminal entries each collection keeps
// before the oldest are evicted. Active entries are never evicted.
const DefaultRetainTerminal = 500

// executionEntry wraps an execution record with bookkeeping for ordering
// and terminal-entry eviction.
type executionEntry struct {
	rec     protocol.ExecutionStatus
	seq     uint64 // insertion order
	doneSeq uint64 // order in which the record became terminal; 0 while live
}

type processingEntry struct {
	rec     protocol.ProcessingStatus
	seq     uint64
	doneSeq uint64
}

// Store owns the authoritative in-memory collections. All mutation goes
// through ApplyEvent (push deltas and poll snapshots alike) or the two clear
// actions, so the merge invariants hold on every ingestion path:
//
//   - a record whose status is terminal is frozen; later deltas are discarded
//   - progress is monotonic non-decreasing; regressions are ignored
//   - steps merge by label, preserving the order of existing steps
//   - health events replace SystemHealth wholesale
//
// Reads take a read lock and return copies, so a reader on another goroutine
// sees either the pre- or post-merge record, never a partial merge.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*executionEntry
	processing map[string]*processingEntry
	health     *protocol.SystemHealth

	retainTerminal int
	nextSeq        uint64
	nextDoneSeq    uint64
	log            logger.Logger
}

// NewStore creates an empty Store. retainTerminal <= 0 selects
// DefaultRetainTerminal.
func NewStore(retainTerminal int, log logger.Logger) *Store {
	if retainTerminal <= 0 {
		retainTerminal = DefaultRetainTerminal
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		executions:     make(map[string]*executionEntry),
		processing:     make(map[string]*processingEntry),
		retainTerminal: retainTerminal,
		log:            log,
	}
}

// ApplyEvent merges one status event into the collections. Malformed events
// return a *protocol.MalformedEventError and change nothing; unknown kinds
// are logged and skipped. Stale and out-of-order deltas are not errors;
// the merge invariants absorb them silently.
func (s *Store) ApplyEvent(evt protocol.StatusEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Kind {
	case protocol.KindExecution:
		s.applyExecution(evt.Execution)
	case protocol.KindProcessing:
		s.applyProcessing(evt.Processing)
	case protocol.KindHealth:
		s.applyHealth(evt.Health)
	default:
		s.log.Warn("ignoring event of unknown kind", logger.F("kind", evt.Kind))
	}
	return nil
}

// ApplySnapshot applies a poll-derived snapshot record by record through the
// same merge path as push events: idempotent upserts, never destructive of
// ids the snapshot does not mention.
func (s *Store) ApplySnapshot(snap protocol.Snapshot) {
	for _, evt := range snap.Events() {
		if err := s.ApplyEvent(evt); err != nil {
			s.log.Warn("dropping malformed snapshot record", logger.F("err", err))
		}
	}
}

func (s *Store) applyExecution(delta *protocol.ExecutionStatus) {
	entry, ok := s.executions[delta.ExecutionID]
	if !ok {
		rec := protocol.ExecutionStatus{
			ExecutionID: delta.ExecutionID,
			AgentType:   delta.AgentType,
			Status:      delta.Status,
			CurrentStep: delta.CurrentStep,
			Progress:    clampProgress(delta.Progress),
			StartTime:   delta.StartTime,
			Steps:       copySteps(delta.Steps),
		}
		if rec.Status == "" {
			rec.Status = protocol.ExecQueued
		}
		s.nextSeq++
		entry = &executionEntry{rec: rec, seq: s.nextSeq}
		s.executions[delta.ExecutionID] = entry
		if rec.Status.Terminal() {
			s.freezeExecution(entry)
		}
		return
	}

	if entry.rec.Status.Terminal() {
		// Frozen record: a late in-flight delta arriving after the terminal
		// event for the same id.
		s.log.Debug("discarding delta for frozen execution",
			logger.F("execution_id", delta.ExecutionID))
		return
	}

	rec := &entry.rec
	if delta.AgentType != "" {
		rec.AgentType = delta.AgentType
	}
	if delta.Status != "" {
		rec.Status = delta.Status
	}
	if delta.CurrentStep != "" {
		rec.CurrentStep = delta.CurrentStep
	}
	if p := clampProgress(delta.Progress); p >= rec.Progress {
		rec.Progress = p
	}
	if rec.StartTime == "" {
		rec.StartTime = delta.StartTime
	}
	rec.Steps = mergeSteps(rec.Steps, delta.Steps)

	if rec.Status.Terminal() {
		s.freezeExecution(entry)
	}
}

func (s *Store) applyProcessing(delta *protocol.ProcessingStatus) {
	entry, ok := s.processing[delta.FileID]
	if !ok {
		rec := protocol.ProcessingStatus{
			FileID:   delta.FileID,
			Filename: delta.Filename,
			Status:   delta.Status,
			Stage:    delta.Stage,
			Progress: clampProgress(delta.Progress),
			Error:    delta.Error,
		}
		if rec.Status == "" {
			rec.Status = protocol.ProcQueued
		}
		s.nextSeq++
		entry = &processingEntry{rec: rec, seq: s.nextSeq}
		s.processing[delta.FileID] = entry
		if rec.Status.Terminal() {
			s.freezeProcessing(entry)
		}
		return
	}

	if entry.rec.Status.Terminal() {
		s.log.Debug("discarding delta for frozen processing job",
			logger.F("file_id", delta.FileID))
		return
	}

	rec := &entry.rec
	if delta.Filename != "" {
		rec.Filename = delta.Filename
	}
	if delta.Status != "" {
		rec.Status = delta.Status
	}
	if delta.Stage != "" {
		rec.Stage = delta.Stage
	}
	if p := clampProgress(delta.Progress); p >= rec.Progress {
		rec.Progress = p
	}
	if delta.Error != "" {
		rec.Error = delta.Error
	}

	if rec.Status.Terminal() {
		s.freezeProcessing(entry)
	}
}

func (s *Store) applyHealth(h *protocol.SystemHealth) {
	s.health = copyHealth(h)
}

// freezeExecution marks an entry terminal and evicts the oldest terminal
// entries past the retention cap.
func (s *Store) freezeExecution(entry *executionEntry) {
	s.nextDoneSeq++
	entry.doneSeq = s.nextDoneSeq

	terminal := 0
	for _, e := range s.executions {
		if e.doneSeq != 0 {
			terminal++
		}
	}
	for terminal > s.retainTerminal {
		oldest := ""
		var oldestSeq uint64
		for id, e := range s.executions {
			if e.doneSeq == 0 {
				continue
			}
			if oldest == "" || e.doneSeq < oldestSeq {
				oldest, oldestSeq = id, e.doneSeq
			}
		}
		delete(s.executions, oldest)
		terminal--
		s.log.Debug("evicted oldest terminal execution", logger.F("execution_id", oldest))
	}
}

func (s *Store) freezeProcessing(entry *processingEntry) {
	s.nextDoneSeq++
	entry.doneSeq = s.nextDoneSeq

	terminal := 0
	for _, e := range s.processing {
		if e.doneSeq != 0 {
			terminal++
		}
	}
	for terminal > s.retainTerminal {
		oldest := ""
		var oldestSeq uint64
		for id, e := range s.processing {
			if e.doneSeq == 0 {
				continue
			}
			if oldest == "" || e.doneSeq < oldestSeq {
				oldest, oldestSeq = id, e.doneSeq
			}
		}
		delete(s.processing, oldest)
		terminal--
		s.log.Debug("evicted oldest terminal processing job", logger.F("file_id", oldest))
	}
}

// Executions returns copies of all execution records in insertion order.
func (s *Store) Executions() []protocol.ExecutionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*executionEntry, 0, len(s.executions))
	for _, e := range s.executions {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]protocol.ExecutionStatus, len(entries))
	for i, e := range entries {
		out[i] = e.rec
		out[i].Steps = copySteps(e.rec.Steps)
	}
	return out
}

// Processing returns copies of all processing records in insertion order.
func (s *Store) Processing() []protocol.ProcessingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*processingEntry, 0, len(s.processing))
	for _, e := range s.processing {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]protocol.ProcessingStatus, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

// Health returns a copy of the current system health, or nil before the
// first health event.
func (s *Store) Health() *protocol.SystemHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHealth(s.health)
}

// Snapshot returns a deep copy of the full current state.
func (s *Store) Snapshot() protocol.Snapshot {
	return protocol.Snapshot{
		Executions: s.Executions(),
		Processing: s.Processing(),
		Health:     s.Health(),
	}
}

// ClearCompletedExecutions removes every execution whose status is terminal
// and reports how many were removed. Active entries are untouched; calling
// with nothing to clear is a no-op.
func (s *Store) ClearCompletedExecutions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.executions {
		if e.rec.Status.Terminal() {
			delete(s.executions, id)
			removed++
		}
	}
	return removed
}

// ClearCompletedProcessing removes every terminal processing job and reports
// how many were removed.
func (s *Store) ClearCompletedProcessing() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.processing {
		if e.rec.Status.Terminal() {
			delete(s.processing, id)
			removed++
		}
	}
	return removed
}

// --- merge helpers ---

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// mergeSteps merges delta steps into existing by label: matching labels
// update in place, new labels append, existing order is preserved. Steps are
// never truncated.
func mergeSteps(existing, delta []protocol.Step) []protocol.Step {
	if len(delta) == 0 {
		return existing
	}
	byLabel := make(map[string]int, len(existing))
	for i, st := range existing {
		byLabel[st.Label] = i
	}
	for _, st := range delta {
		if i, ok := byLabel[st.Label]; ok {
			existing[i].Status = st.Status
			continue
		}
		existing = append(existing, st)
		byLabel[st.Label] = len(existing) - 1
	}
	return existing
}

func copySteps(steps []protocol.Step) []protocol.Step {
	if steps == nil {
		return nil
	}
	out := make([]protocol.Step, len(steps))
	copy(out, steps)
	return out
}

func copyHealth(h *protocol.SystemHealth) *protocol.SystemHealth {
	if h == nil {
		return nil
	}
	out := &protocol.SystemHealth{Status: h.Status}
	if h.Services != nil {
		out.Services = make(map[string]bool, len(h.Services))
		for k, v := range h.Services {
			out.Services[k] = v
		}
	}
	if h.Metrics != nil {
		m := *h.Metrics
		out.Metrics = &m
	}
	return out
}
