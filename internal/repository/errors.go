package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an id or email is already taken
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrForeignKeyViolation is returned when a record references a missing student or company
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport is returned when the remote store could not be reached
	ErrTransport = errors.New("transport failure")

	// ErrRemoteWrite is returned when a write to the remote store failed after retries
	ErrRemoteWrite = errors.New("remote write failed")

	// ErrRejected is returned when the remote store refused a request outright
	ErrRejected = errors.New("rejected by remote store")
)

// TransportError reports a network or timeout failure talking to the remote store.
// It is the only failure the gateway retries.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RejectedError reports a remote response that will not succeed on retry
// (bad range, permission denied, malformed payload).
type RejectedError struct {
	Op     string
	Status int
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected with status %d: %v", e.Op, e.Status, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// RemoteWriteError wraps the last error of a failed append or update.
type RemoteWriteError struct {
	Sheet string
	Err   error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("write to %s failed: %v", e.Sheet, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

func (e *RemoteWriteError) Is(target error) bool { return target == ErrRemoteWrite }

// NotFoundError reports a key that has no row in a sheet.
type NotFoundError struct {
	Sheet string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no row with key %q", e.Sheet, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a malformed field at the parse boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
