package chaos

import "fmt"

// ConnectionSimulator fails the first FailFirstN connection attempts and
// reports the link lost once DisconnectAfterHeartbeats heartbeats have been
// exchanged. Zero disables either fault.
type ConnectionSimulator struct {
	FailFirstN                uint32
	DisconnectAfterHeartbeats uint32

	attempts   uint32
	heartbeats uint32
}

// ConnectAttempt is the outcome of TryConnect.
type ConnectAttempt struct {
	Attempt uint32
	OK      bool
	Reason  string
}

// HeartbeatResult is the outcome of Heartbeat.
type HeartbeatResult struct {
	Count        uint32
	Disconnected bool
}

// NewConnectionSimulator creates a connection simulator.
func NewConnectionSimulator(failFirstN, disconnectAfterHeartbeats uint32) *ConnectionSimulator {
	return &ConnectionSimulator{FailFirstN: failFirstN, DisconnectAfterHeartbeats: disconnectAfterHeartbeats}
}

// TryConnect simulates one connection attempt.
func (s *ConnectionSimulator) TryConnect() ConnectAttempt {
	s.attempts++
	if s.attempts <= s.FailFirstN {
		return ConnectAttempt{Attempt: s.attempts, Reason: fmt.Sprintf("Simulated failure #%d", s.attempts)}
	}
	return ConnectAttempt{Attempt: s.attempts, OK: true}
}

// Heartbeat simulates one heartbeat round trip.
func (s *ConnectionSimulator) Heartbeat() HeartbeatResult {
	s.heartbeats++
	if s.DisconnectAfterHeartbeats > 0 && s.heartbeats >= s.DisconnectAfterHeartbeats {
		return HeartbeatResult{Count: s.heartbeats, Disconnected: true}
	}
	return HeartbeatResult{Count: s.heartbeats}
}

// ResetHeartbeat restarts the heartbeat count, typically after a reconnect.
func (s *ConnectionSimulator) ResetHeartbeat() { s.heartbeats = 0 }

// Attempts returns the number of connection attempts made.
func (s *ConnectionSimulator) Attempts() uint32 { return s.attempts }
