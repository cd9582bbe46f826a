package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAuthRequired is returned when no valid session is present.
	ErrAuthRequired = errors.New("authentication required")
	// ErrPermissionDenied is returned when an authenticated actor lacks the admin role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidTransition is returned when a status change is rejected by the transition policy.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict indicates a concurrent update won the race.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a field constraint violated before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// BackendWriteError wraps a failed create/update/delete against the store.
// Op is a short verb phrase such as "create order".
type BackendWriteError struct {
	Op  string
	Err error
}

func (e *BackendWriteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *BackendWriteError) Unwrap() error { return e.Err }

// Notice is the user-facing message; the cause is kept out of it.
func (e *BackendWriteError) Notice() string {
	return "failed to " + e.Op
}

// DataIntegrityError is returned when a stored record cannot be decoded into a typed entity.
type DataIntegrityError struct {
	Entity string
	ID     string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("malformed %s record id=%s: %s", e.Entity, e.ID, e.Reason)
}
