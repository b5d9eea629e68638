// Package connection implements the lifecycle of a logical connection to a
// remote device as a pure state machine.
//
// Transition takes the current State, an Event and a timeline sequence number
// and returns the next State, the Actions the caller owes the outside world
// (start a dial, schedule a reconnect, start or stop heartbeats, notify the UI)
// and one timeline.Entry. Nothing in this package performs I/O or sleeps; the
// executor runs the actions and reports what happened as new events.
//
// Retry policy is fixed: the initial connect phase allows 3 attempts with a
// linear 1s backoff step, the reconnect phase after a lost connection allows 5
// attempts with a 2s step. Exceeding either ceiling ends in Failed, from which
// only Reset or a fresh Connect leave.
package connection
