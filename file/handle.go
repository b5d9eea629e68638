package file

import (
	"sync"
	"time"
)

// handle is the registry-owned record of one transfer. Fields other than
// cancel and cancelOnce are guarded by the registry lock.
type handle struct {
	id           string
	status       Status
	transferred  uint64
	total        uint64
	reason       string
	registeredAt time.Time
	lastProgress time.Time
	speed        float64 // bytes per second

	cancel     chan struct{}
	cancelOnce sync.Once
}

func newHandle(id string, total uint64, now time.Time) *handle {
	return &handle{
		id:           id,
		status:       StatusPending,
		total:        total,
		registeredAt: now,
		lastProgress: now,
		cancel:       make(chan struct{}),
	}
}

// fire closes the cancellation channel. Safe to call repeatedly.
func (h *handle) fire() {
	h.cancelOnce.Do(func() { close(h.cancel) })
}

// updateSpeed folds a progress report into the exponential moving average.
func (h *handle) updateSpeed(bytes uint64, now time.Time) {
	duration := now.Sub(h.lastProgress).Seconds()
	if duration > 0 && bytes > h.transferred {
		instantSpeed := float64(bytes-h.transferred) / duration

		// Exponential moving average with alpha = 0.3
		if h.speed == 0 {
			h.speed = instantSpeed
		} else {
			h.speed = 0.7*h.speed + 0.3*instantSpeed
		}
	}
	h.lastProgress = now
}

func (h *handle) info() TransferInfo {
	return TransferInfo{
		ID:               h.id,
		Status:           h.status,
		BytesTransferred: h.transferred,
		TotalBytes:       h.total,
		Speed:            h.speed,
		Reason:           h.reason,
		RegisteredAt:     h.registeredAt,
		LastProgressAt:   h.lastProgress,
	}
}

// TransferInfo is a point-in-time snapshot of a registered transfer.
type TransferInfo struct {
	ID               string
	Status           Status
	BytesTransferred uint64
	// TotalBytes is zero when the size is unknown.
	TotalBytes     uint64
	Speed          float64
	Reason         string
	RegisteredAt   time.Time
	LastProgressAt time.Time
}

// Progress returns the completion percentage, or 0 when the size is unknown.
func (i TransferInfo) Progress() float64 {
	if i.TotalBytes == 0 {
		return 0.0
	}
	return float64(i.BytesTransferred) / float64(i.TotalBytes) * 100.0
}

// EstimatedTimeRemaining extrapolates from the current speed. It returns 0
// unless the transfer is in progress with a known size and a positive speed.
func (i TransferInfo) EstimatedTimeRemaining() time.Duration {
	if i.Status != StatusInProgress || i.Speed <= 0 || i.TotalBytes <= i.BytesTransferred {
		return 0
	}
	secondsRemaining := float64(i.TotalBytes-i.BytesTransferred) / i.Speed
	return time.Duration(secondsRemaining * float64(time.Second))
}
