// Package fsm holds the primitives shared by the connection and transfer
// state machines.
//
// Both machines are pure functions of the shape
//
//	(state, event, sequence) -> (Result, error)
//
// A Result carries the replacement state, the ordered list of Actions owed to
// an external executor and exactly one timeline.Entry describing the step.
// When no rule matches the (state, event) pair the machines return an
// *InvalidTransitionError, which matches ErrInvalidTransition under errors.Is.
// That error is an ordering defect in the caller, never a transient fault, and
// the caller must not apply any state when it is returned.
package fsm
