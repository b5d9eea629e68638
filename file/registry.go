package file

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/filenode/fsm"
	"github.com/opd-ai/filenode/limits"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultStallTimeout is the default duration without progress after which an
// in-progress transfer is reported by Stalled.
const DefaultStallTimeout = 30 * time.Second

// Registry tracks in-flight transfers. See the package documentation for the
// lifecycle and cancellation contract.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*handle

	stopping     atomic.Bool
	shutdown     chan struct{}
	shutdownOnce sync.Once

	subMu       sync.Mutex
	subscribers map[uint64]chan Command
	nextSub     uint64

	metrics      *Metrics
	timeProvider fsm.TimeProvider
	stallTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegisterer registers the registry metrics with reg.
func WithRegisterer(reg prometheus.Registerer) RegistryOption {
	return func(r *Registry) { r.metrics = NewMetrics(reg) }
}

// WithMetrics uses an existing set of collectors.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTimeProvider sets a custom time provider for deterministic testing.
func WithTimeProvider(tp fsm.TimeProvider) RegistryOption {
	return func(r *Registry) {
		if tp != nil {
			r.timeProvider = tp
		}
	}
}

// WithStallTimeout sets the stall threshold used by Stalled. Zero disables stall detection.
func WithStallTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stallTimeout = d }
}

// NewRegistry creates a running registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		handles:      make(map[string]*handle),
		shutdown:     make(chan struct{}),
		subscribers:  make(map[uint64]chan Command),
		timeProvider: fsm.DefaultTimeProvider{},
		stallTimeout: DefaultStallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}

	logrus.WithFields(logrus.Fields{
		"function":      "NewRegistry",
		"stall_timeout": r.stallTimeout,
	}).Debug("Transfer registry created")

	return r
}

// Metrics returns the collectors maintained by the registry.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Register adds a transfer and returns a channel that is closed when the
// transfer is cancelled. Registering an id that is still live cancels the
// previous handle before replacing it.
//
// Register returns false, and counts the attempt as rejected, in two cases:
//   - id fails [limits.ValidateTransferID];
//   - shutdown has begun.
func (r *Registry) Register(id string, totalBytes uint64) (<-chan struct{}, bool) {
	if err := limits.ValidateTransferID(id); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Register",
			"error":    err.Error(),
		}).Warn("Rejected transfer with invalid id")
		r.metrics.Rejected.Inc()
		return nil, false
	}

	if r.stopping.Load() {
		logrus.WithFields(logrus.Fields{
			"function":    "Register",
			"transfer_id": id,
		}).Warn("Rejected transfer - runtime is stopping")
		r.metrics.Rejected.Inc()
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Shutdown may have started while waiting for the lock; its CancelAll
	// would then miss this handle.
	if r.stopping.Load() {
		r.metrics.Rejected.Inc()
		return nil, false
	}

	if old, exists := r.handles[id]; exists && !old.status.IsTerminal() {
		logrus.WithFields(logrus.Fields{
			"function":    "Register",
			"transfer_id": id,
			"old_status":  old.status.String(),
		}).Warn("Replacing live transfer, cancelling previous handle")
		old.status = StatusCancelled
		old.fire()
		r.metrics.finished(StatusCancelled)
	}

	h := newHandle(id, totalBytes, r.timeProvider.Now())
	r.handles[id] = h
	r.metrics.Registered.Inc()
	r.metrics.Active.Inc()

	logrus.WithFields(logrus.Fields{
		"function":    "Register",
		"transfer_id": id,
		"total_bytes": totalBytes,
	}).Info("Transfer registered")

	return h.cancel, true
}

// live returns the handle for id when it exists and is not terminal.
// Callers must hold r.mu.
func (r *Registry) live(id string) (*handle, bool) {
	h, ok := r.handles[id]
	if !ok || h.status.IsTerminal() {
		return nil, false
	}
	return h, true
}

// UpdateProgress records the acknowledged byte count of a live transfer and
// promotes a pending transfer to in progress.
func (r *Registry) UpdateProgress(id string, bytes uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.live(id)
	if !ok {
		return false
	}
	h.updateSpeed(bytes, r.timeProvider.Now())
	h.transferred = bytes
	if h.status == StatusPending {
		h.status = StatusInProgress
	}
	return true
}

// SetTotal records the size of a live transfer once it becomes known.
func (r *Registry) SetTotal(id string, total uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.live(id)
	if !ok {
		return false
	}
	h.total = total
	return true
}

// Complete marks a live transfer as completed.
func (r *Registry) Complete(id string) bool {
	return r.finish(id, StatusCompleted, "", "Complete")
}

// Fail marks a live transfer as failed with the given reason.
func (r *Registry) Fail(id, reason string) bool {
	return r.finish(id, StatusFailed, reason, "Fail")
}

func (r *Registry) finish(id string, status Status, reason, function string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.live(id)
	if !ok {
		return false
	}
	h.status = status
	h.reason = reason
	r.metrics.finished(status)

	logrus.WithFields(logrus.Fields{
		"function":    function,
		"transfer_id": id,
		"bytes":       h.transferred,
		"reason":      reason,
	}).Info("Transfer finished")
	return true
}

// Cancel marks a live transfer as cancelled and closes its cancellation channel.
// It returns false when the id is unknown or already terminal.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.live(id)
	if !ok {
		return false
	}
	r.cancelLocked(h)

	logrus.WithFields(logrus.Fields{
		"function":    "Cancel",
		"transfer_id": id,
	}).Info("Transfer cancelled")
	return true
}

func (r *Registry) cancelLocked(h *handle) {
	h.status = StatusCancelled
	h.fire()
	r.metrics.finished(StatusCancelled)
}

// CancelAll cancels every live transfer and returns how many were cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	for id, h := range r.handles {
		if h.status.IsTerminal() {
			continue
		}
		r.cancelLocked(h)
		cancelled++
		logrus.WithFields(logrus.Fields{
			"function":    "CancelAll",
			"transfer_id": id,
		}).Info("Cancelled transfer")
	}
	return cancelled
}

// Pause moves an in-progress transfer to paused.
func (r *Registry) Pause(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok || h.status != StatusInProgress {
		return false
	}
	h.status = StatusPaused
	return true
}

// Resume moves a paused transfer back to in progress. It returns false once
// shutdown has begun.
func (r *Registry) Resume(id string) bool {
	if r.stopping.Load() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok || h.status != StatusPaused {
		return false
	}
	h.status = StatusInProgress
	h.lastProgress = r.timeProvider.Now()
	return true
}

// Get returns a snapshot of the transfer with the given id, terminal or not.
func (r *Registry) Get(id string) (TransferInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[id]
	if !ok {
		return TransferInfo{}, false
	}
	return h.info(), true
}

// GetActiveTransfers returns snapshots of every pending, in-progress or paused
// transfer, ordered by id.
func (r *Registry) GetActiveTransfers() []TransferInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]TransferInfo, 0, len(r.handles))
	for _, h := range r.handles {
		if !h.status.IsTerminal() {
			active = append(active, h.info())
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active
}

// Len returns the number of handles, including terminal ones not yet cleaned up.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// CleanupFinished removes every terminal handle and returns how many were removed.
func (r *Registry) CleanupFinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, h := range r.handles {
		if h.status.IsTerminal() {
			delete(r.handles, id)
			removed++
		}
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "CleanupFinished",
			"removed":  removed,
		}).Debug("Removed finished transfers")
	}
	return removed
}

// Stalled returns the ids of in-progress transfers that have not reported
// progress within the stall timeout, ordered by id.
func (r *Registry) Stalled() []string {
	if r.stallTimeout == 0 {
		return nil
	}

	now := r.timeProvider.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stalled []string
	for id, h := range r.handles {
		if h.status == StatusInProgress && now.Sub(h.lastProgress) >= r.stallTimeout {
			stalled = append(stalled, id)
		}
	}
	sort.Strings(stalled)
	return stalled
}

// IsStopping reports whether Shutdown has been called. It never reverts.
func (r *Registry) IsStopping() bool {
	return r.stopping.Load()
}

// State derives the runtime state from the stopping flag and the live handles.
func (r *Registry) State() RuntimeState {
	if !r.stopping.Load() {
		return StateRunning
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handles {
		if !h.status.IsTerminal() {
			return StateStopping
		}
	}
	return StateStopped
}

// SubscribeShutdown returns a channel that is closed when shutdown begins.
// Every caller receives the same channel.
func (r *Registry) SubscribeShutdown() <-chan struct{} {
	return r.shutdown
}

// Shutdown stops accepting transfers, cancels every live transfer and closes
// the shutdown channel. Calls after the first are no-ops.
func (r *Registry) Shutdown() {
	if !r.stopping.CompareAndSwap(false, true) {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "Shutdown",
	}).Info("Shutdown initiated - rejecting new transfers")

	cancelled := r.CancelAll()
	r.shutdownOnce.Do(func() { close(r.shutdown) })

	logrus.WithFields(logrus.Fields{
		"function":  "Shutdown",
		"cancelled": cancelled,
	}).Info("Shutdown signal sent")
}

// SubscribeCommands returns a buffered channel that receives every command
// passed to SendCommand, and a function that unsubscribes and closes it.
func (r *Registry) SubscribeCommands() (<-chan Command, func()) {
	ch := make(chan Command, CommandBufferSize)

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = ch
	r.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subscribers, id)
			r.subMu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// SendCommand applies cmd and then broadcasts it to every subscriber.
func (r *Registry) SendCommand(cmd Command) {
	switch cmd.Kind {
	case CommandShutdown:
		r.Shutdown()
	case CommandCancelTransfer:
		r.Cancel(cmd.TransferID)
	case CommandCancelAll:
		r.CancelAll()
	default:
		logrus.WithFields(logrus.Fields{
			"function": "SendCommand",
			"command":  cmd.String(),
		}).Warn("Unknown command")
		return
	}

	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subscribers {
		select {
		case ch <- cmd:
		default:
			logrus.WithFields(logrus.Fields{
				"function":   "SendCommand",
				"subscriber": id,
				"command":    cmd.String(),
			}).Warn("Command subscriber is full, dropping command")
		}
	}
}
