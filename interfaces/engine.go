package interfaces

import (
	"context"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/timeline"
	"github.com/opd-ai/filenode/transfer"
)

// ActionExecutor performs the side effects described by state machine actions.
type ActionExecutor interface {
	// ExecuteConnectionAction performs a connection action.
	ExecuteConnectionAction(ctx context.Context, action connection.Action) error

	// ExecuteTransferAction performs an action emitted by the transfer with the given id.
	ExecuteTransferAction(ctx context.Context, transferID string, action transfer.Action) error
}

// EntryRecorder persists timeline entries.
type EntryRecorder interface {
	RecordEntry(ctx context.Context, entry timeline.Entry) error
}

// EntryRecorderFunc is a function type that implements EntryRecorder.
type EntryRecorderFunc func(ctx context.Context, entry timeline.Entry) error

// RecordEntry implements EntryRecorder for EntryRecorderFunc.
func (f EntryRecorderFunc) RecordEntry(ctx context.Context, entry timeline.Entry) error {
	return f(ctx, entry)
}

// TransferEngine hosts one transfer state machine.
type TransferEngine interface {
	// Apply feeds ev into the state machine. On error the state is unchanged.
	Apply(ctx context.Context, ev transfer.Event) (transfer.State, []transfer.Action, error)
}

// ConnectionEngine hosts one connection state machine.
type ConnectionEngine interface {
	// Apply feeds ev into the state machine. On error the state is unchanged.
	Apply(ctx context.Context, ev connection.Event) (connection.State, []connection.Action, error)
}
