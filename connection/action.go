package connection

import (
	"fmt"
	"time"

	"github.com/opd-ai/filenode/fsm"
)

// Action is a side effect owed to the executor. Transition never performs one.
type Action interface {
	fmt.Stringer
	isAction()
}

// StartConnection dials DeviceID.
type StartConnection struct {
	DeviceID string
	Attempt  uint32
}

// ScheduleReconnect asks the executor to raise the next dial after Delay.
type ScheduleReconnect struct {
	Delay   time.Duration
	Attempt uint32
}

// StartHeartbeat starts the heartbeat timer.
type StartHeartbeat struct {
	Interval time.Duration
}

// StopHeartbeat stops the heartbeat timer.
type StopHeartbeat struct{}

// EmitUIEvent forwards a named event to the user interface.
type EmitUIEvent struct {
	EventType string
	Data      string
}

// LogTimeline is a human-readable log line for the transition.
type LogTimeline struct {
	Message string
	Level   fsm.LogLevel
}

// NotifyConnectionFailed reports a permanent failure.
type NotifyConnectionFailed struct {
	Reason string
}

// Cleanup releases connection resources.
type Cleanup struct{}

func (a StartConnection) String() string {
	return fmt.Sprintf("StartConnection{device_id=%s attempt=%d}", a.DeviceID, a.Attempt)
}

func (a ScheduleReconnect) String() string {
	return fmt.Sprintf("ScheduleReconnect{delay_ms=%d attempt=%d}", a.Delay.Milliseconds(), a.Attempt)
}

func (a StartHeartbeat) String() string {
	return fmt.Sprintf("StartHeartbeat{interval_ms=%d}", a.Interval.Milliseconds())
}

func (StopHeartbeat) String() string { return "StopHeartbeat" }

func (a EmitUIEvent) String() string {
	return fmt.Sprintf("EmitUIEvent{event_type=%s data=%s}", a.EventType, a.Data)
}

func (a LogTimeline) String() string {
	return fmt.Sprintf("LogTimeline{level=%s message=%q}", a.Level, a.Message)
}

func (a NotifyConnectionFailed) String() string {
	return fmt.Sprintf("NotifyConnectionFailed{reason=%q}", a.Reason)
}

func (Cleanup) String() string { return "Cleanup" }

func (StartConnection) isAction()        {}
func (ScheduleReconnect) isAction()      {}
func (StartHeartbeat) isAction()         {}
func (StopHeartbeat) isAction()          {}
func (EmitUIEvent) isAction()            {}
func (LogTimeline) isAction()            {}
func (NotifyConnectionFailed) isAction() {}
func (Cleanup) isAction()                {}
