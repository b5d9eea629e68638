package connection

import (
	"fmt"
	"time"
)

// Kind identifies a State variant.
type Kind uint8

const (
	KindDisconnected Kind = iota
	KindConnecting
	KindConnected
	KindReconnecting
	KindFailed
)

var kindNames = [...]string{
	KindDisconnected: "Disconnected",
	KindConnecting:   "Connecting",
	KindConnected:    "Connected",
	KindReconnecting: "Reconnecting",
	KindFailed:       "Failed",
}

// String returns the variant name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// State is one of Disconnected, Connecting, Connected, Reconnecting or Failed.
type State interface {
	Kind() Kind
	isState()
}

// Disconnected is the initial state.
type Disconnected struct{}

// Connecting is the initial connect phase.
type Connecting struct {
	DeviceID  string
	Attempt   uint32
	StartedAt time.Time
}

// Connected holds an established connection.
type Connected struct {
	DeviceID      string
	ConnectedAt   time.Time
	LastHeartbeat time.Time
}

// Reconnecting follows the loss of an established connection.
type Reconnecting struct {
	DeviceID        string
	Attempt         uint32
	LastConnectedAt time.Time
}

// Failed is reached once a retry ceiling is exceeded.
type Failed struct {
	DeviceID string
	Reason   string
	FailedAt time.Time
}

func (Disconnected) Kind() Kind { return KindDisconnected }
func (Connecting) Kind() Kind   { return KindConnecting }
func (Connected) Kind() Kind    { return KindConnected }
func (Reconnecting) Kind() Kind { return KindReconnecting }
func (Failed) Kind() Kind       { return KindFailed }

func (Disconnected) isState() {}
func (Connecting) isState()   {}
func (Connected) isState()    {}
func (Reconnecting) isState() {}
func (Failed) isState()       {}

// DeviceID returns the device a state refers to, or "" for Disconnected.
func DeviceID(s State) string {
	switch st := s.(type) {
	case Connecting:
		return st.DeviceID
	case Connected:
		return st.DeviceID
	case Reconnecting:
		return st.DeviceID
	case Failed:
		return st.DeviceID
	default:
		return ""
	}
}

// Attempt returns the current attempt number for Connecting and Reconnecting, else 0.
func Attempt(s State) uint32 {
	switch st := s.(type) {
	case Connecting:
		return st.Attempt
	case Reconnecting:
		return st.Attempt
	default:
		return 0
	}
}

// IsUp reports whether s is Connected.
func IsUp(s State) bool {
	_, ok := s.(Connected)
	return ok
}

// kindOf treats a nil state as Disconnected.
func kindOf(s State) Kind {
	if s == nil {
		return KindDisconnected
	}
	return s.Kind()
}
