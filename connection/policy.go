package connection

import "time"

const (
	// MaxConnectAttempts is the retry ceiling of the initial connect phase.
	MaxConnectAttempts uint32 = 3

	// MaxReconnectAttempts is the retry ceiling after an established connection is lost.
	MaxReconnectAttempts uint32 = 5

	// ConnectBackoffStep is multiplied by the failed attempt number during the connect phase.
	ConnectBackoffStep = 1000 * time.Millisecond

	// ReconnectBackoffStep is multiplied by the failed attempt number during the reconnect phase.
	ReconnectBackoffStep = 2000 * time.Millisecond

	// InitialReconnectDelay is the delay before the first reconnect attempt.
	InitialReconnectDelay = 1000 * time.Millisecond

	// HeartbeatInterval is the interval requested by StartHeartbeat.
	HeartbeatInterval = 5000 * time.Millisecond
)

// UI event names carried by EmitUIEvent.
const (
	UIConnecting       = "CONNECTING"
	UIConnected        = "CONNECTED"
	UIConnectionFailed = "CONNECTION_FAILED"
	UIDisconnected     = "DISCONNECTED"
	UIReconnecting     = "RECONNECTING"
	UIReconnected      = "RECONNECTED"
)

// ConnectBackoff returns the delay scheduled after the given connect attempt fails.
func ConnectBackoff(attempt uint32) time.Duration {
	return time.Duration(attempt) * ConnectBackoffStep
}

// ReconnectBackoff returns the delay scheduled after the given reconnect attempt fails.
func ReconnectBackoff(attempt uint32) time.Duration {
	return time.Duration(attempt) * ReconnectBackoffStep
}
