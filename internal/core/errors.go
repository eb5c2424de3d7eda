package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrRemote marks a failure reported by, or on the way to, the backend.
	ErrRemote = errors.New("backend request failed")
	// ErrPartialCommit marks an order whose header was written but whose items were not.
	ErrPartialCommit = errors.New("order partially saved")
	ErrNotFound      = errors.New("not found")
	ErrNotSignedIn   = errors.New("not signed in")
)

// ValidationError carries the single human-readable reason an input was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError is a backend failure. Message is the server-provided text, surfaced verbatim.
type RemoteError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return ErrRemote }

// NewRemoteError wraps a transport-level failure that never reached the server.
func NewRemoteError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Message: err.Error()}
}

// PartialCommitError reports that phase two of an order write failed.
// The header row identified by OrderID remains in the backend.
type PartialCommitError struct {
	OrderID ID
	Err     error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("Order saved but items failed: %s", Message(e.Err))
}

func (e *PartialCommitError) Unwrap() []error { return []error{ErrPartialCommit, e.Err} }

// Message returns the text to show a user for err: the server message of a
// RemoteError, the reason of a ValidationError, or err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var pe *PartialCommitError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
