package fsm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel matched by every InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError reports a (state, event) pair with no defined rule.
type InvalidTransitionError struct {
	From  string
	Event string
}

// NewInvalidTransition builds an InvalidTransitionError for the given state and event names.
func NewInvalidTransition(from, event string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Event: event}
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s with event %s", e.From, e.Event)
}

// Is reports whether target is ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
