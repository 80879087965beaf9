package protocol

// EventKind discriminates the status event envelope.
type EventKind string

// Event kind constants.
const (
	KindExecution  EventKind = "execution"
	KindProcessing EventKind = "processing"
	KindHealth     EventKind = "health"
)

// Known reports whether k is a kind this version understands. Unknown kinds
// are ignored by consumers, never fatal.
func (k EventKind) Known() bool {
	switch k {
	case KindExecution, KindProcessing, KindHealth:
		return true
	default:
		return false
	}
}

// StatusEvent is the discriminated envelope for inbound status deltas.
// Exactly the payload matching Kind is set; the rest are nil.
type StatusEvent struct {
	Kind       EventKind         `json:"kind"`
	Execution  *ExecutionStatus  `json:"execution,omitempty"`
	Processing *ProcessingStatus `json:"processing,omitempty"`
	Health     *SystemHealth     `json:"health,omitempty"`
}

// Validate checks that the envelope is internally consistent: a known kind
// carries its matching payload with a non-empty key. Unknown kinds pass
// validation so consumers can skip them without treating them as malformed.
func (e StatusEvent) Validate() error {
	switch e.Kind {
	case KindExecution:
		if e.Execution == nil {
			return &MalformedEventError{Kind: e.Kind, Reason: "missing execution payload"}
		}
		if e.Execution.ExecutionID == "" {
			return &MalformedEventError{Kind: e.Kind, Reason: "empty execution_id"}
		}
		if e.Execution.Status != "" && !e.Execution.Status.Valid() {
			return &MalformedEventError{Kind: e.Kind, Reason: "unknown execution status " + string(e.Execution.Status)}
		}
	case KindProcessing:
		if e.Processing == nil {
			return &MalformedEventError{Kind: e.Kind, Reason: "missing processing payload"}
		}
		if e.Processing.FileID == "" {
			return &MalformedEventError{Kind: e.Kind, Reason: "empty file_id"}
		}
		if e.Processing.Status != "" && !e.Processing.Status.Valid() {
			return &MalformedEventError{Kind: e.Kind, Reason: "unknown processing status " + string(e.Processing.Status)}
		}
	case KindHealth:
		if e.Health == nil {
			return &MalformedEventError{Kind: e.Kind, Reason: "missing health payload"}
		}
	}
	return nil
}

// EntityID returns the key of the entity this event targets, or "" for
// health and unknown-kind events.
func (e StatusEvent) EntityID() string {
	switch e.Kind {
	case KindExecution:
		if e.Execution != nil {
			return e.Execution.ExecutionID
		}
	case KindProcessing:
		if e.Processing != nil {
			return e.Processing.FileID
		}
	}
	return ""
}

// Snapshot is the full current state returned by a snapshot directive.
// Consumers apply it record-by-record as idempotent upserts.
type Snapshot struct {
	Executions []ExecutionStatus  `json:"executions"`
	Processing []ProcessingStatus `json:"processing"`
	Health     *SystemHealth      `json:"health,omitempty"`
}

// Events flattens the snapshot into the equivalent sequence of status
// events so pull results travel the same merge path as push deltas.
func (s Snapshot) Events() []StatusEvent {
	out := make([]StatusEvent, 0, len(s.Executions)+len(s.Processing)+1)
	for i := range s.Executions {
		out = append(out, StatusEvent{Kind: KindExecution, Execution: &s.Executions[i]})
	}
	for i := range s.Processing {
		out = append(out, StatusEvent{Kind: KindProcessing, Processing: &s.Processing[i]})
	}
	if s.Health != nil {
		out = append(out, StatusEvent{Kind: KindHealth, Health: s.Health})
	}
	return out
}
