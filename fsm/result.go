package fsm

import (
	"fmt"
	"time"

	"github.com/opd-ai/filenode/timeline"
)

// Result is the output of one accepted transition.
type Result[S any, A any] struct {
	NewState S
	Actions  []A
	Entry    timeline.Entry
}

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider always returns the same instant.
type FixedTimeProvider struct {
	At time.Time
}

// Now returns the fixed instant.
func (f FixedTimeProvider) Now() time.Time { return f.At }

// NewEntry builds the timeline entry describing a transition.
func NewEntry[A fmt.Stringer](now time.Time, sequence uint64, event, from, to string, actions []A, data string) timeline.Entry {
	produced := make([]string, 0, len(actions))
	for _, a := range actions {
		produced = append(produced, a.String())
	}
	return timeline.Entry{
		Timestamp:       now.UnixMilli(),
		Sequence:        sequence,
		EventType:       event,
		FromState:       from,
		ToState:         to,
		ActionsProduced: produced,
		Data:            data,
	}
}
