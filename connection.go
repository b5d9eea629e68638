package filenode

import (
	"context"
	"fmt"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/limits"
	"github.com/sirupsen/logrus"
)

// ConnectionState returns the current connection state.
func (n *Node) ConnectionState() connection.State {
	n.connMu.Lock()
	defer n.connMu.Unlock()
	return n.connState
}

// HandleConnectionEvent applies ev to the connection state machine, records
// the transition and hands the resulting actions to the executor. A rejected
// event leaves the state unchanged and returns the transition error.
func (n *Node) HandleConnectionEvent(ctx context.Context, ev connection.Event) (connection.State, []connection.Action, error) {
	// An empty device id is how Failed+Connect asks for the remembered device.
	if c, ok := ev.(connection.Connect); ok && c.DeviceID != "" {
		if err := limits.ValidateDeviceID(c.DeviceID); err != nil {
			return n.ConnectionState(), nil, fmt.Errorf("device id: %w", err)
		}
	}

	n.connMu.Lock()
	res, err := connection.TransitionAt(n.connState, ev, n.timeline.NextSequence(), n.clock.Now())
	if err != nil {
		state := n.connState
		n.connMu.Unlock()
		return state, nil, fmt.Errorf("connection: %w", err)
	}
	n.connState = res.NewState
	n.timeline.Record(res.Entry)
	n.persist(ctx, res.Entry)
	n.connMu.Unlock()

	deviceID := connection.DeviceID(res.NewState)
	for _, action := range res.Actions {
		if lt, ok := action.(connection.LogTimeline); ok {
			logrus.WithFields(logrus.Fields{
				"function":  "HandleConnectionEvent",
				"device_id": deviceID,
			}).Log(lt.Level.Logrus(), lt.Message)
		}
		if n.executor == nil {
			continue
		}
		if err := n.executor.ExecuteConnectionAction(ctx, action); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "HandleConnectionEvent",
				"device_id": deviceID,
				"action":    action.String(),
				"error":     err.Error(),
			}).Error("Connection action failed")
		}
	}
	return res.NewState, res.Actions, nil
}
