package filenode

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/opd-ai/filenode/limits"
	"github.com/opd-ai/filenode/transfer"
	"github.com/sirupsen/logrus"
)

// StartTransfer allocates a transfer id, registers it and feeds Start into a
// fresh transfer state machine.
func (n *Node) StartTransfer(ctx context.Context, url string, totalBytes uint64) (string, error) {
	id := uuid.NewString()
	if _, _, err := n.StartTransferWithID(ctx, id, url, totalBytes); err != nil {
		return "", err
	}
	return id, nil
}

// StartTransferWithID is StartTransfer with a caller-chosen id. An id whose
// previous transfer is finished may be reused; an active one is rejected
// with ErrTransferExists.
func (n *Node) StartTransferWithID(ctx context.Context, id, url string, totalBytes uint64) (transfer.State, []transfer.Action, error) {
	if err := limits.ValidateTransferID(id); err != nil {
		return nil, nil, fmt.Errorf("transfer id: %w", err)
	}
	if n.registry.IsStopping() {
		return nil, nil, ErrShuttingDown
	}

	n.mu.Lock()
	if old, ok := n.transfers[id]; ok {
		old.mu.Lock()
		active := !transfer.IsTerminal(old.state) && old.state.Kind() != transfer.KindIdle
		old.mu.Unlock()
		if active {
			n.mu.Unlock()
			return nil, nil, fmt.Errorf("%w: %s", ErrTransferExists, id)
		}
	}

	cancel, ok := n.registry.Register(id, totalBytes)
	if !ok {
		n.mu.Unlock()
		return nil, nil, ErrShuttingDown
	}
	// The slot is locked before it becomes visible so a concurrent Shutdown
	// cannot observe it in Idle and skip it.
	slot := &transferSlot{state: transfer.Idle{}, url: url, cancel: cancel}
	slot.mu.Lock()
	n.transfers[id] = slot
	n.mu.Unlock()

	return n.commit(ctx, id, slot, func(transfer.State) (transfer.Event, bool) {
		return transfer.Start{TransferID: id, URL: url, TotalBytes: totalBytes}, true
	})
}

// TransferState returns the state of the transfer with the given id.
func (n *Node) TransferState(id string) (transfer.State, bool) {
	slot, ok := n.slot(id)
	if !ok {
		return nil, false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state, true
}

// CancelSignal returns the registry cancellation channel of a transfer.
func (n *Node) CancelSignal(id string) (<-chan struct{}, bool) {
	slot, ok := n.slot(id)
	if !ok {
		return nil, false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.cancel, true
}

func (n *Node) slot(id string) (*transferSlot, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	slot, ok := n.transfers[id]
	return slot, ok
}

// HandleTransferEvent applies ev to the transfer with the given id. The
// transition is recorded, mirrored onto the registry and its actions are
// handed to the executor. A rejected event leaves the state unchanged.
func (n *Node) HandleTransferEvent(ctx context.Context, id string, ev transfer.Event) (transfer.State, []transfer.Action, error) {
	slot, ok := n.slot(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTransferNotFound, id)
	}
	return n.handle(ctx, id, slot, func(transfer.State) (transfer.Event, bool) { return ev, true })
}

// CancelTransfer fires the transfer's cancellation signal and drives its
// state machine to a terminal state: Cancel from Paused, a non-retryable
// CANCELLED error otherwise. Cancelling a finished transfer is a no-op.
func (n *Node) CancelTransfer(ctx context.Context, id string) (transfer.State, error) {
	if _, ok := n.slot(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransferNotFound, id)
	}
	n.registry.Cancel(id)
	return n.terminate(ctx, id, "cancelled by user")
}

// CheckStalled feeds a retryable TIMEOUT error into every transfer the
// registry reports as stalled and returns their ids.
func (n *Node) CheckStalled(ctx context.Context) []string {
	stalled := n.registry.Stalled()
	for _, id := range stalled {
		ev := transfer.Error{Err: transfer.NewError(transfer.CodeTimeout, "no progress within stall timeout", true)}
		if _, _, err := n.HandleTransferEvent(ctx, id, ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "CheckStalled",
				"transfer_id": id,
				"error":       err.Error(),
			}).Warn("Could not time out stalled transfer")
		}
	}
	return stalled
}

// terminate moves a transfer to a terminal state unless it is already
// finished or idle.
func (n *Node) terminate(ctx context.Context, id, reason string) (transfer.State, error) {
	slot, ok := n.slot(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransferNotFound, id)
	}
	state, _, err := n.handle(ctx, id, slot, func(s transfer.State) (transfer.Event, bool) {
		switch s.(type) {
		case transfer.Paused:
			return transfer.Cancel{}, true
		case transfer.Idle, transfer.Completed, transfer.Failed:
			return nil, false
		default:
			return transfer.Error{Err: transfer.Cancelled(reason)}, true
		}
	})
	return state, err
}

// handle runs one transition under the slot lock. choose picks the event
// from the current state; returning false leaves the transfer untouched.
func (n *Node) handle(ctx context.Context, id string, slot *transferSlot, choose func(transfer.State) (transfer.Event, bool)) (transfer.State, []transfer.Action, error) {
	slot.mu.Lock()
	return n.commit(ctx, id, slot, choose)
}

// commit is handle with slot.mu already held; it releases the lock.
// Executor calls happen after the lock is released so executors may feed
// follow-up events synchronously.
func (n *Node) commit(ctx context.Context, id string, slot *transferSlot, choose func(transfer.State) (transfer.Event, bool)) (transfer.State, []transfer.Action, error) {
	prev := slot.state
	ev, ok := choose(prev)
	if !ok {
		slot.mu.Unlock()
		return prev, nil, nil
	}

	res, err := transfer.TransitionAt(prev, ev, n.timeline.NextSequence(), n.clock.Now())
	if err != nil {
		slot.mu.Unlock()
		return prev, nil, fmt.Errorf("transfer %s: %w", id, err)
	}
	slot.state = res.NewState
	n.timeline.Record(res.Entry)
	n.persist(ctx, res.Entry)
	n.mirror(id, slot, prev, res.NewState, res.Actions)
	slot.mu.Unlock()

	n.execute(ctx, id, res.Actions)
	return res.NewState, res.Actions, nil
}

// mirror projects a transition onto the registry. Called with slot.mu held.
func (n *Node) mirror(id string, slot *transferSlot, prev, next transfer.State, actions []transfer.Action) {
	// A manual retry revives a failed transfer, whose registry handle is terminal.
	if _, wasFailed := prev.(transfer.Failed); wasFailed {
		if resuming, ok := next.(transfer.Resuming); ok {
			if cancel, ok := n.registry.Register(id, resuming.TotalBytes); ok {
				slot.cancel = cancel
				n.registry.UpdateProgress(id, resuming.FromOffset)
			}
		}
	}

	if st, ok := next.(transfer.Transferring); ok {
		if st.TotalBytes > 0 {
			n.registry.SetTotal(id, st.TotalBytes)
		}
		// Entering Transferring means bytes are moving; a pending handle must
		// become in progress so a later Pause reaches the registry.
		if _, was := prev.(transfer.Transferring); !was {
			n.registry.UpdateProgress(id, st.BytesTransferred)
		}
	}

	for _, action := range actions {
		switch a := action.(type) {
		case transfer.UpdateProgress:
			if a.Total > 0 {
				n.registry.SetTotal(id, a.Total)
			}
			n.registry.UpdateProgress(id, a.Bytes)
		case transfer.PauseTransfer:
			n.registry.Pause(id)
		case transfer.ResumeTransfer:
			n.registry.Resume(id)
		case transfer.CancelTransfer:
			n.registry.Cancel(id)
		case transfer.NotifyComplete:
			n.registry.Complete(id)
		case transfer.NotifyFailed:
			n.registry.Fail(id, a.Error)
		}
	}
}

func (n *Node) execute(ctx context.Context, id string, actions []transfer.Action) {
	for _, action := range actions {
		if lt, ok := action.(transfer.LogTimeline); ok {
			logrus.WithFields(logrus.Fields{
				"function":    "HandleTransferEvent",
				"transfer_id": id,
			}).Log(lt.Level.Logrus(), lt.Message)
		}
		if n.executor == nil {
			continue
		}
		if err := n.executor.ExecuteTransferAction(ctx, id, action); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "HandleTransferEvent",
				"transfer_id": id,
				"action":      action.String(),
				"error":       err.Error(),
			}).Error("Transfer action failed")
		}
	}
}
