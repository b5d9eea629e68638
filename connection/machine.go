package connection

import (
	"fmt"
	"time"

	"github.com/opd-ai/filenode/fsm"
)

// Result is the outcome of an accepted transition.
type Result = fsm.Result[State, Action]

// Transition applies e to s using the wall clock.
func Transition(s State, e Event, sequence uint64) (Result, error) {
	return TransitionAt(s, e, sequence, time.Now())
}

// TransitionAt applies e to s at the instant now. A nil state is treated as
// Disconnected. Pairs without a rule return an *fsm.InvalidTransitionError
// and a zero Result.
func TransitionAt(s State, e Event, sequence uint64, now time.Time) (Result, error) {
	if s == nil {
		s = Disconnected{}
	}

	next, actions, ok := apply(s, e, now)
	if !ok {
		return Result{}, fsm.NewInvalidTransition(kindOf(s).String(), eventName(e))
	}

	return Result{
		NewState: next,
		Actions:  actions,
		Entry:    fsm.NewEntry(now, sequence, e.Name(), s.Kind().String(), next.Kind().String(), actions, eventData(e)),
	}, nil
}

func apply(s State, e Event, now time.Time) (State, []Action, bool) {
	switch st := s.(type) {
	case Disconnected:
		if ev, ok := e.(Connect); ok {
			return startConnecting(ev.DeviceID, now, fmt.Sprintf("Starting connection to %s", ev.DeviceID), true)
		}
	case Connecting:
		return fromConnecting(st, e, now)
	case Connected:
		return fromConnected(st, e, now)
	case Reconnecting:
		return fromReconnecting(st, e, now)
	case Failed:
		return fromFailed(st, e, now)
	}
	return nil, nil, false
}

func startConnecting(deviceID string, now time.Time, message string, notifyUI bool) (State, []Action, bool) {
	actions := []Action{
		StartConnection{DeviceID: deviceID, Attempt: 1},
		LogTimeline{Message: message, Level: fsm.LogLevelInfo},
	}
	if notifyUI {
		actions = append(actions, EmitUIEvent{EventType: UIConnecting, Data: deviceID})
	}
	return Connecting{DeviceID: deviceID, Attempt: 1, StartedAt: now}, actions, true
}

func fromConnecting(st Connecting, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case ConnectionEstablished:
		return established(st.DeviceID, now,
			fmt.Sprintf("Connected to %s after %d attempt(s)", st.DeviceID, st.Attempt), UIConnected)

	case ConnectionFailed:
		if st.Attempt < MaxConnectAttempts {
			delay := ConnectBackoff(st.Attempt)
			next := Connecting{DeviceID: st.DeviceID, Attempt: st.Attempt + 1, StartedAt: now}
			return next, []Action{
				ScheduleReconnect{Delay: delay, Attempt: next.Attempt},
				LogTimeline{
					Message: fmt.Sprintf("Connection attempt %d failed: %s. Retrying in %dms", st.Attempt, ev.Reason, delay.Milliseconds()),
					Level:   fsm.LogLevelWarn,
				},
			}, true
		}
		return failed(st.DeviceID, ev.Reason, now,
			fmt.Sprintf("Failed after %d attempts: %s", st.Attempt, ev.Reason),
			fmt.Sprintf("Connection failed permanently: %s", ev.Reason))

	case Cancel:
		return Disconnected{}, []Action{
			Cleanup{},
			LogTimeline{Message: "Connection cancelled by user", Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UIDisconnected, Data: "cancelled"},
		}, true
	}
	return nil, nil, false
}

func fromConnected(st Connected, e Event, now time.Time) (State, []Action, bool) {
	switch e.(type) {
	case ConnectionLost:
		return Reconnecting{DeviceID: st.DeviceID, Attempt: 1, LastConnectedAt: st.ConnectedAt}, []Action{
			StopHeartbeat{},
			ScheduleReconnect{Delay: InitialReconnectDelay, Attempt: 1},
			LogTimeline{Message: "Connection lost. Starting reconnection...", Level: fsm.LogLevelWarn},
			EmitUIEvent{EventType: UIReconnecting, Data: st.DeviceID},
		}, true

	case HeartbeatReceived:
		st.LastHeartbeat = now
		return st, []Action{
			LogTimeline{Message: "Heartbeat received", Level: fsm.LogLevelDebug},
		}, true

	case Disconnect:
		return Disconnected{}, []Action{
			StopHeartbeat{},
			Cleanup{},
			LogTimeline{Message: "Disconnected by user", Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UIDisconnected, Data: "user_requested"},
		}, true
	}
	return nil, nil, false
}

func fromReconnecting(st Reconnecting, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case ConnectionEstablished:
		return established(st.DeviceID, now, "Reconnected successfully", UIReconnected)

	case ConnectionFailed:
		if st.Attempt < MaxReconnectAttempts {
			delay := ReconnectBackoff(st.Attempt)
			next := Reconnecting{DeviceID: st.DeviceID, Attempt: st.Attempt + 1, LastConnectedAt: st.LastConnectedAt}
			return next, []Action{
				ScheduleReconnect{Delay: delay, Attempt: next.Attempt},
				LogTimeline{
					Message: fmt.Sprintf("Reconnect attempt %d failed. Retry in %dms", st.Attempt, delay.Milliseconds()),
					Level:   fsm.LogLevelWarn,
				},
				EmitUIEvent{EventType: UIReconnecting, Data: fmt.Sprintf("attempt:%d", next.Attempt)},
			}, true
		}
		return failed(st.DeviceID, ev.Reason, now,
			fmt.Sprintf("Reconnection failed after %d attempts: %s", st.Attempt, ev.Reason),
			fmt.Sprintf("Reconnection failed permanently: %s", ev.Reason))
	}
	return nil, nil, false
}

func fromFailed(st Failed, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case Reset:
		return Disconnected{}, []Action{
			LogTimeline{Message: "State reset to Disconnected", Level: fsm.LogLevelInfo},
		}, true

	case Connect:
		target := ev.DeviceID
		if target == "" {
			target = st.DeviceID
		}
		return startConnecting(target, now, fmt.Sprintf("Retrying connection to %s", target), false)
	}
	return nil, nil, false
}

func established(deviceID string, now time.Time, message, uiEvent string) (State, []Action, bool) {
	return Connected{DeviceID: deviceID, ConnectedAt: now, LastHeartbeat: now}, []Action{
		StartHeartbeat{Interval: HeartbeatInterval},
		LogTimeline{Message: message, Level: fsm.LogLevelInfo},
		EmitUIEvent{EventType: uiEvent, Data: deviceID},
	}, true
}

func failed(deviceID, reason string, now time.Time, notice, message string) (State, []Action, bool) {
	return Failed{DeviceID: deviceID, Reason: reason, FailedAt: now}, []Action{
		NotifyConnectionFailed{Reason: notice},
		LogTimeline{Message: message, Level: fsm.LogLevelError},
		EmitUIEvent{EventType: UIConnectionFailed, Data: reason},
		Cleanup{},
	}, true
}
