package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the core and the boundary layer.
var (
	// ErrUserNotFound is returned when an id is absent, or when a mutating
	// operation targets a DELETED user (deleted records are invisible to
	// mutators).
	ErrUserNotFound = errors.New("user not found")

	// ErrIllegalTransition is returned by the state machine guard when a
	// requested status change is not an allowed edge, including any
	// transition out of the terminal DELETED state.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ValidationError reports malformed input. No side effects have been
// performed when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateResourceError reports a uniqueness violation on Field, raised
// either by the advisory pre-check or translated from the storage
// constraint at commit time. Both paths produce this same shape.
type DuplicateResourceError struct {
	Field string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}
