// Package limits provides centralized bound constants and validation functions
// for the filenode engine.
//
// # Identifiers
//
// Transfer and device identifiers travel inside Actions to external executors,
// so they are validated before a transfer is registered or a connection is
// started:
//
//	if err := limits.ValidateTransferID(id); err != nil {
//	    // Handle validation error (ErrIdentifierEmpty, ErrIdentifierTooLong, ErrIdentifierInvalid)
//	}
//
// # Chunk Sizes
//
// The simulated transport used by the chaos harness reads DefaultChunkSize
// bytes per chunk unless configured otherwise; ValidateChunkSize rejects zero
// and anything above MaxChunkSize.
//
// # Timeline Capacity
//
// TimelineCapacity maps a configured capacity onto the permitted range. A zero
// value selects DefaultTimelineCapacity.
package limits
