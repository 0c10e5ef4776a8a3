package services

import (
	"fmt"
	"time"

	"taskrewarder/internal/models"
)

// Domain error kinds. Handlers map them to HTTP statuses with errors.As; all
// of them leave prior state untouched.

// ValidationError reports the first malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports a missing role, level or ownership requirement.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// StateError reports a transition attempted from the wrong task status.
type StateError struct {
	Status models.TaskStatus
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s task in status %q", e.Op, e.Status)
}

// DeadlineError reports an operation on a task whose deadline has passed, or
// a creation attempt with a deadline that is not in the future.
type DeadlineError struct {
	Deadline time.Time
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("deadline %s has passed", e.Deadline.Format(time.RFC3339))
}

// NotFoundError reports a missing task or volunteer.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}
