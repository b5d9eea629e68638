package connection

import "fmt"

// Event is an input to Transition.
type Event interface {
	// Name returns the event variant name recorded in the timeline.
	Name() string
	isEvent()
}

// Connect asks for a connection to DeviceID. From Failed an empty DeviceID
// reuses the remembered device.
type Connect struct{ DeviceID string }

// Disconnect is a user-requested disconnect of an established connection.
type Disconnect struct{}

// Cancel aborts the initial connect phase.
type Cancel struct{}

// ConnectionEstablished reports a successful dial.
type ConnectionEstablished struct{}

// ConnectionLost reports that an established connection dropped, usually via missed heartbeats.
type ConnectionLost struct{}

// ConnectionFailed reports a failed dial.
type ConnectionFailed struct{ Reason string }

// HeartbeatReceived reports a heartbeat from the remote device.
type HeartbeatReceived struct{}

// Reset returns a Failed connection to Disconnected.
type Reset struct{}

func (Connect) Name() string               { return "Connect" }
func (Disconnect) Name() string            { return "Disconnect" }
func (Cancel) Name() string                { return "Cancel" }
func (ConnectionEstablished) Name() string { return "ConnectionEstablished" }
func (ConnectionLost) Name() string        { return "ConnectionLost" }
func (ConnectionFailed) Name() string      { return "ConnectionFailed" }
func (HeartbeatReceived) Name() string     { return "HeartbeatReceived" }
func (Reset) Name() string                 { return "Reset" }

func (Connect) isEvent()               {}
func (Disconnect) isEvent()            {}
func (Cancel) isEvent()                {}
func (ConnectionEstablished) isEvent() {}
func (ConnectionLost) isEvent()        {}
func (ConnectionFailed) isEvent()      {}
func (HeartbeatReceived) isEvent()     {}
func (Reset) isEvent()                 {}

// eventData renders the payload of an event for the timeline.
func eventData(e Event) string {
	switch ev := e.(type) {
	case Connect:
		return fmt.Sprintf("device_id=%s", ev.DeviceID)
	case ConnectionFailed:
		return fmt.Sprintf("reason=%s", ev.Reason)
	default:
		return ""
	}
}

func eventName(e Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name()
}
