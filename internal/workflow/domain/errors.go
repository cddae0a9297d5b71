package domain

import (
	"errors"
	"fmt"
)

// ErrDraftFrozen indicates a modification was attempted after the draft
// was validated. A validated draft accepts no further feedback.
var ErrDraftFrozen = errors.New("draft is validated and can no longer be modified")

// ValidationError indicates a required field was missing or malformed
// before a phase call. It is recovered locally and never reaches the
// backend.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: field %q is required", e.Field)
	}
	return fmt.Sprintf("validation failed: field %q: %s", e.Field, e.Reason)
}

// UpstreamError indicates a backend call failed, returned an error, or
// exceeded its client-side timeout. The phase does not advance and the
// user may retry.
type UpstreamError struct {
	Op      string // gateway operation, e.g. "questions.generate"
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: backend call timed out", e.Op)
	}
	return fmt.Sprintf("%s: backend call failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error { return e.Err }

// ConflictError indicates a draft modification was submitted against a
// stale version. The caller must refresh the local draft before retrying.
type ConflictError struct {
	SubmittedVersion int
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("draft modified concurrently: version %d is stale, refresh before retrying", e.SubmittedVersion)
}

// PreconditionError indicates an operation was invoked while its required
// predecessor state is missing. This is a flow defect, not a user error,
// and must fail loudly.
type PreconditionError struct {
	Op      string
	Missing string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition not met: %s", e.Op, e.Missing)
}

// SessionNotFoundError indicates the backend has no record of the session
// id held in the local snapshot. Restoration treats this as a signal to
// discard the snapshot and reset, not as a user-facing error.
type SessionNotFoundError struct {
	SessionID string
}

// Error implements the error interface.
func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: id=%q", e.SessionID)
}

// BusyError indicates a phase-transition handler was invoked while another
// one is still running for the same session.
type BusyError struct {
	Op      string
	Running string
}

// Error implements the error interface.
func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: another operation (%s) is still in progress", e.Op, e.Running)
}
