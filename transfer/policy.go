package transfer

import "time"

const (
	// MaxResumeAttempts is the retry ceiling of the Resuming phase.
	MaxResumeAttempts uint32 = 3

	// FirstRetryDelay is scheduled when a transferring transfer hits a retryable error.
	FirstRetryDelay = 1000 * time.Millisecond

	// ResumeBackoffBase is scaled by 2^attempt for each failed resume attempt.
	ResumeBackoffBase = 1000 * time.Millisecond
)

// UI event names carried by EmitUIEvent.
const (
	UIStarted   = "TRANSFER_STARTED"
	UIFailed    = "TRANSFER_FAILED"
	UIPaused    = "TRANSFER_PAUSED"
	UICompleted = "TRANSFER_COMPLETED"
	UIRetrying  = "TRANSFER_RETRYING"
	UICancelled = "TRANSFER_CANCELLED"
	UIResumed   = "TRANSFER_RESUMED"
)

// ResumeBackoff returns the delay scheduled after the given resume attempt fails.
func ResumeBackoff(attempt uint32) time.Duration {
	return time.Duration(uint64(1)<<attempt) * ResumeBackoffBase
}
