package chaos

import (
	"context"
	"fmt"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/sirupsen/logrus"
)

// ConnectionOptions configures RunConnection.
type ConnectionOptions struct {
	DeviceID string

	// MaxAttempts bounds the connection attempts made by the driver. Zero
	// lets the engine's own retry ceiling end the run.
	MaxAttempts uint32

	// Heartbeats is the number of heartbeats exchanged once connected.
	Heartbeats int
}

// ConnectionReport summarizes a RunConnection call.
type ConnectionReport struct {
	Attempts     uint32
	Failures     int
	Heartbeats   int
	Disconnected bool
	FinalState   connection.State
}

// RunConnection connects engine through sim, retrying failed attempts while
// the engine stays in Connecting, then exchanges heartbeats until the
// simulator drops the link or opts.Heartbeats is reached.
func RunConnection(ctx context.Context, sim *ConnectionSimulator, engine interfaces.ConnectionEngine, opts ConnectionOptions) (ConnectionReport, error) {
	if opts.DeviceID == "" {
		opts.DeviceID = DefaultDeviceID
	}

	var report ConnectionReport
	state, _, err := engine.Apply(ctx, connection.Connect{DeviceID: opts.DeviceID})
	if err != nil {
		return report, fmt.Errorf("connect: %w", err)
	}
	report.FinalState = state

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if opts.MaxAttempts > 0 && report.Attempts >= opts.MaxAttempts {
			break
		}

		attempt := sim.TryConnect()
		report.Attempts = attempt.Attempt
		if attempt.OK {
			state, _, err = engine.Apply(ctx, connection.ConnectionEstablished{})
			if err != nil {
				return report, fmt.Errorf("establish: %w", err)
			}
			report.FinalState = state
			break
		}

		report.Failures++
		state, _, err = engine.Apply(ctx, connection.ConnectionFailed{Reason: attempt.Reason})
		if err != nil {
			return report, fmt.Errorf("connection failed: %w", err)
		}
		report.FinalState = state
		if _, ok := state.(connection.Connecting); !ok {
			break
		}
	}

	if !connection.IsUp(state) {
		logConnectionReport(opts.DeviceID, report)
		return report, nil
	}

	for i := 0; i < opts.Heartbeats; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		hb := sim.Heartbeat()
		if hb.Disconnected {
			state, _, err = engine.Apply(ctx, connection.ConnectionLost{})
			if err != nil {
				return report, fmt.Errorf("connection lost: %w", err)
			}
			report.Disconnected = true
			report.FinalState = state
			break
		}
		state, _, err = engine.Apply(ctx, connection.HeartbeatReceived{})
		if err != nil {
			return report, fmt.Errorf("heartbeat: %w", err)
		}
		report.Heartbeats = int(hb.Count)
		report.FinalState = state
	}

	logConnectionReport(opts.DeviceID, report)
	return report, nil
}

func logConnectionReport(deviceID string, report ConnectionReport) {
	logrus.WithFields(logrus.Fields{
		"function":     "RunConnection",
		"device_id":    deviceID,
		"attempts":     report.Attempts,
		"failures":     report.Failures,
		"heartbeats":   report.Heartbeats,
		"disconnected": report.Disconnected,
		"final_state":  report.FinalState.Kind().String(),
	}).Info("Chaos connection finished")
}
