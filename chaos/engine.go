package chaos

import (
	"context"
	"sync"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/fsm"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/timeline"
	"github.com/opd-ai/filenode/transfer"
	"github.com/sirupsen/logrus"
)

// LocalTransfer hosts a single transfer state machine in memory.
type LocalTransfer struct {
	mu       sync.Mutex
	state    transfer.State
	timeline *timeline.Timeline
	clock    fsm.TimeProvider
	recorder interfaces.EntryRecorder
}

// NewLocalTransfer creates an Idle transfer engine that records into tl.
// A nil timeline gets a private one; a nil clock uses the wall clock.
func NewLocalTransfer(tl *timeline.Timeline, clock fsm.TimeProvider) *LocalTransfer {
	if tl == nil {
		tl = timeline.New(0)
	}
	if clock == nil {
		clock = fsm.DefaultTimeProvider{}
	}
	return &LocalTransfer{state: transfer.Idle{}, timeline: tl, clock: clock}
}

// Apply implements interfaces.TransferEngine.
func (l *LocalTransfer) Apply(ctx context.Context, ev transfer.Event) (transfer.State, []transfer.Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := transfer.TransitionAt(l.state, ev, l.timeline.NextSequence(), l.clock.Now())
	if err != nil {
		return l.state, nil, err
	}
	l.state = res.NewState
	l.timeline.Record(res.Entry)
	if l.recorder != nil {
		if err := l.recorder.RecordEntry(ctx, res.Entry); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "LocalTransfer.Apply",
				"sequence": res.Entry.Sequence,
				"error":    err.Error(),
			}).Warn("Failed to persist timeline entry")
		}
	}
	return res.NewState, res.Actions, nil
}

// WithRecorder hands every accepted transition to r as well as the timeline,
// so entries survive eviction from the ring buffer.
func (l *LocalTransfer) WithRecorder(r interfaces.EntryRecorder) *LocalTransfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorder = r
	return l
}

// State returns the current state.
func (l *LocalTransfer) State() transfer.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Timeline returns the timeline the engine records into.
func (l *LocalTransfer) Timeline() *timeline.Timeline { return l.timeline }

// LocalConnection hosts a single connection state machine in memory.
type LocalConnection struct {
	mu       sync.Mutex
	state    connection.State
	timeline *timeline.Timeline
	clock    fsm.TimeProvider
}

// NewLocalConnection creates a Disconnected connection engine that records into tl.
func NewLocalConnection(tl *timeline.Timeline, clock fsm.TimeProvider) *LocalConnection {
	if tl == nil {
		tl = timeline.New(0)
	}
	if clock == nil {
		clock = fsm.DefaultTimeProvider{}
	}
	return &LocalConnection{state: connection.Disconnected{}, timeline: tl, clock: clock}
}

// Apply implements interfaces.ConnectionEngine.
func (l *LocalConnection) Apply(_ context.Context, ev connection.Event) (connection.State, []connection.Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := connection.TransitionAt(l.state, ev, l.timeline.NextSequence(), l.clock.Now())
	if err != nil {
		return l.state, nil, err
	}
	l.state = res.NewState
	l.timeline.Record(res.Entry)
	return res.NewState, res.Actions, nil
}

// State returns the current state.
func (l *LocalConnection) State() connection.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Timeline returns the timeline the engine records into.
func (l *LocalConnection) Timeline() *timeline.Timeline { return l.timeline }
