package protocol

import "fmt"

// MalformedEventError describes an inbound event rejected during validation.
// It enables typed error discrimination via errors.As; consumers drop the
// event with a diagnostic and continue.
type MalformedEventError struct {
	Kind   EventKind
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Kind, e.Reason)
}

// HubUnreachableError represents a failure to reach the status hub. It is
// always recoverable: the connection supervisor falls back to polling and
// retries with backoff.
type HubUnreachableError struct {
	SocketPath string
	Reason     string
}

func (e *HubUnreachableError) Error() string {
	return fmt.Sprintf("status hub unreachable at %s: %s", e.SocketPath, e.Reason)
}
