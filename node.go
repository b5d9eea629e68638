package filenode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/file"
	"github.com/opd-ai/filenode/fsm"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/limits"
	"github.com/opd-ai/filenode/timeline"
	"github.com/opd-ai/filenode/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	// ErrShuttingDown is returned when a transfer is started after Shutdown.
	ErrShuttingDown = errors.New("node is shutting down")

	// ErrTransferNotFound is returned for an unknown transfer id.
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrTransferExists is returned when starting a transfer whose id is still active.
	ErrTransferExists = errors.New("transfer already exists")
)

// Options contains configuration options for creating a Node.
type Options struct {
	// TimelineCapacity bounds the in-memory timeline. Zero selects the default.
	TimelineCapacity int

	// SequenceAfter starts the timeline sequence after this value. Set it to
	// the recorder's highest stored sequence to continue a persisted trace.
	SequenceAfter uint64

	// StallTimeout is the registry stall threshold used by CheckStalled.
	StallTimeout time.Duration

	// Registerer receives the registry metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Recorder persists every timeline entry. Optional.
	Recorder interfaces.EntryRecorder

	// Executor performs the actions emitted by the state machines. Optional.
	Executor interfaces.ActionExecutor

	// TimeProvider drives transition timestamps. Nil uses the wall clock.
	TimeProvider fsm.TimeProvider
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		TimelineCapacity: limits.DefaultTimelineCapacity,
		StallTimeout:     file.DefaultStallTimeout,
	}
}

// Node owns one connection state machine, any number of transfer state
// machines, the shared timeline and the transfer registry. Transitions are
// serialized per identity; a rejected event never changes state.
type Node struct {
	timeline *timeline.Timeline
	registry *file.Registry
	clock    fsm.TimeProvider
	recorder interfaces.EntryRecorder
	executor interfaces.ActionExecutor

	connMu    sync.Mutex
	connState connection.State

	mu        sync.RWMutex
	transfers map[string]*transferSlot
}

// transferSlot holds one transfer state machine. state is guarded by mu.
type transferSlot struct {
	mu     sync.Mutex
	state  transfer.State
	url    string
	cancel <-chan struct{}
}

// New creates a new Node with the given options.
func New(options *Options) (*Node, error) {
	if options == nil {
		options = NewOptions()
	}

	capacity, err := limits.TimelineCapacity(options.TimelineCapacity)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}

	clock := options.TimeProvider
	if clock == nil {
		clock = fsm.DefaultTimeProvider{}
	}

	registryOpts := []file.RegistryOption{
		file.WithTimeProvider(clock),
		file.WithStallTimeout(options.StallTimeout),
	}
	if options.Registerer != nil {
		registryOpts = append(registryOpts, file.WithRegisterer(options.Registerer))
	}

	n := &Node{
		timeline:  timeline.New(capacity, timeline.WithSequenceAfter(options.SequenceAfter)),
		registry:  file.NewRegistry(registryOpts...),
		clock:     clock,
		recorder:  options.Recorder,
		executor:  options.Executor,
		connState: connection.Disconnected{},
		transfers: make(map[string]*transferSlot),
	}

	logrus.WithFields(logrus.Fields{
		"function":          "New",
		"timeline_capacity": capacity,
		"recorder":          options.Recorder != nil,
		"executor":          options.Executor != nil,
	}).Info("Node created")

	return n, nil
}

// Timeline returns the shared timeline.
func (n *Node) Timeline() *timeline.Timeline { return n.timeline }

// Registry returns the transfer registry.
func (n *Node) Registry() *file.Registry { return n.registry }

// DumpTimeline encodes the retained timeline entries in format.
func (n *Node) DumpTimeline(format timeline.Format) ([]byte, error) {
	return timeline.Encode(n.timeline.Entries(), format)
}

// IsStopping reports whether Shutdown has been called.
func (n *Node) IsStopping() bool { return n.registry.IsStopping() }

// Shutdown stops accepting transfers, fires every cancellation signal and
// drives every unfinished transfer to a terminal state. It is idempotent.
func (n *Node) Shutdown(ctx context.Context) {
	n.registry.Shutdown()

	for _, id := range n.transferIDs() {
		if _, err := n.terminate(ctx, id, "node shutdown"); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "Shutdown",
				"transfer_id": id,
				"error":       err.Error(),
			}).Warn("Failed to stop transfer")
		}
	}
}

// CleanupFinished removes terminal transfers from the registry and forgets
// their state machines. It returns the number of registry handles removed.
func (n *Node) CleanupFinished() int {
	removed := n.registry.CleanupFinished()

	n.mu.Lock()
	defer n.mu.Unlock()
	for id, slot := range n.transfers {
		if _, ok := n.registry.Get(id); ok {
			continue
		}
		slot.mu.Lock()
		done := transfer.IsTerminal(slot.state) || slot.state.Kind() == transfer.KindIdle
		slot.mu.Unlock()
		if done {
			delete(n.transfers, id)
		}
	}
	return removed
}

func (n *Node) transferIDs() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]string, 0, len(n.transfers))
	for id := range n.transfers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// persist hands an entry to the recorder. Failures are logged, the
// transition itself has already been committed.
func (n *Node) persist(ctx context.Context, entry timeline.Entry) {
	if n.recorder == nil {
		return
	}
	if err := n.recorder.RecordEntry(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "persist",
			"sequence": entry.Sequence,
			"error":    err.Error(),
		}).Warn("Failed to persist timeline entry")
	}
}
