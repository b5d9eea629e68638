package transfer

import (
	"fmt"
	"time"
)

// Kind identifies a State variant.
type Kind uint8

const (
	KindIdle Kind = iota
	KindPreparing
	KindTransferring
	KindPaused
	KindResuming
	KindCompleted
	KindFailed
)

var kindNames = [...]string{
	KindIdle:         "Idle",
	KindPreparing:    "Preparing",
	KindTransferring: "Transferring",
	KindPaused:       "Paused",
	KindResuming:     "Resuming",
	KindCompleted:    "Completed",
	KindFailed:       "Failed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// State is one of Idle, Preparing, Transferring, Paused, Resuming, Completed or Failed.
type State interface {
	Kind() Kind
	isState()
}

type Idle struct{}

type Preparing struct {
	TransferID string
	StartedAt  time.Time
}

type Transferring struct {
	TransferID       string
	StartedAt        time.Time
	BytesTransferred uint64
	TotalBytes       uint64
	SpeedBps         float64
}

type Paused struct {
	TransferID       string
	PausedAt         time.Time
	BytesTransferred uint64
	TotalBytes       uint64
}

// Resuming waits for the transport to become Ready again. FromOffset is the
// last acknowledged byte and TotalBytes is zero until known.
type Resuming struct {
	TransferID string
	FromOffset uint64
	TotalBytes uint64
	Attempt    uint32
}

type Completed struct {
	TransferID  string
	CompletedAt time.Time
	TotalBytes  uint64
	Duration    time.Duration
}

// Failed is terminal until Reset, or Retry when the error was retryable and
// some bytes survived.
type Failed struct {
	TransferID     string
	FailedAt       time.Time
	BytesAtFailure uint64
	TotalBytes     uint64
	Err            TransferError
}

func (Idle) Kind() Kind         { return KindIdle }
func (Preparing) Kind() Kind    { return KindPreparing }
func (Transferring) Kind() Kind { return KindTransferring }
func (Paused) Kind() Kind       { return KindPaused }
func (Resuming) Kind() Kind     { return KindResuming }
func (Completed) Kind() Kind    { return KindCompleted }
func (Failed) Kind() Kind       { return KindFailed }

func (Idle) isState()         {}
func (Preparing) isState()    {}
func (Transferring) isState() {}
func (Paused) isState()       {}
func (Resuming) isState()     {}
func (Completed) isState()    {}
func (Failed) isState()       {}

// IsTerminal reports whether s is Completed or Failed.
func IsTerminal(s State) bool {
	switch s.(type) {
	case Completed, Failed:
		return true
	default:
		return false
	}
}

// CanPause reports whether s accepts Pause.
func CanPause(s State) bool {
	_, ok := s.(Transferring)
	return ok
}

// CanResume reports whether s is Paused, or Failed with a retryable error.
func CanResume(s State) bool {
	switch st := s.(type) {
	case Paused:
		return true
	case Failed:
		return st.Err.Retryable
	default:
		return false
	}
}

// TransferID returns the id carried by s, or "" for Idle.
func TransferID(s State) string {
	switch st := s.(type) {
	case Preparing:
		return st.TransferID
	case Transferring:
		return st.TransferID
	case Paused:
		return st.TransferID
	case Resuming:
		return st.TransferID
	case Completed:
		return st.TransferID
	case Failed:
		return st.TransferID
	default:
		return ""
	}
}

// Acknowledged returns the last confirmed byte offset of s.
func Acknowledged(s State) uint64 {
	switch st := s.(type) {
	case Transferring:
		return st.BytesTransferred
	case Paused:
		return st.BytesTransferred
	case Resuming:
		return st.FromOffset
	case Completed:
		return st.TotalBytes
	case Failed:
		return st.BytesAtFailure
	default:
		return 0
	}
}

func kindOf(s State) Kind {
	if s == nil {
		return KindIdle
	}
	return s.Kind()
}
