package timeline

import (
	"sync"

	"github.com/opd-ai/filenode/limits"
)

// Timeline is a bounded FIFO of entries backed by a circular buffer.
// It is safe for concurrent use.
type Timeline struct {
	mu       sync.Mutex
	entries  []Entry
	head     int // index of the oldest entry
	count    int
	sequence uint64
	evicted  uint64
}

// Option configures a Timeline at construction.
type Option func(*Timeline)

// WithSequenceAfter starts the sequence counter after last, so the first
// NextSequence returns last+1. Use it to continue a persisted trace.
func WithSequenceAfter(last uint64) Option {
	return func(t *Timeline) { t.sequence = last }
}

// New creates a Timeline holding at most capacity entries.
// A non-positive capacity selects limits.DefaultTimelineCapacity and values
// above limits.MaxTimelineCapacity are clamped.
func New(capacity int, opts ...Option) *Timeline {
	c, err := limits.TimelineCapacity(capacity)
	if err != nil {
		c = limits.MaxTimelineCapacity
	}
	t := &Timeline{entries: make([]Entry, c)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Capacity returns the fixed number of entries the timeline retains.
func (t *Timeline) Capacity() int {
	return len(t.entries)
}

// NextSequence returns the next value of the strictly increasing sequence counter.
// The first call returns 1.
func (t *Timeline) NextSequence() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sequence++
	return t.sequence
}

// Record appends entry, evicting the oldest entry when the timeline is full.
func (t *Timeline) Record(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry = entry.clone()
	capacity := len(t.entries)
	if t.count < capacity {
		t.entries[(t.head+t.count)%capacity] = entry
		t.count++
		return
	}
	t.entries[t.head] = entry
	t.head = (t.head + 1) % capacity
	t.evicted++
}

// Len returns the number of retained entries.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Evicted returns how many entries have been dropped to honour the capacity.
func (t *Timeline) Evicted() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evicted
}

// Entries returns a copy of the retained entries, oldest first.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, t.count)
	for i := 0; i < t.count; i++ {
		out = append(out, t.entries[(t.head+i)%len(t.entries)].clone())
	}
	return out
}

// Last returns the most recent entry, if any.
func (t *Timeline) Last() (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return Entry{}, false
	}
	return t.entries[(t.head+t.count-1)%len(t.entries)].clone(), true
}

// Clear drops every retained entry. The sequence counter keeps counting so
// entries recorded afterwards still order after the cleared ones.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	t.head = 0
	t.count = 0
}
