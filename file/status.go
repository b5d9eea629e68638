package file

import "fmt"

// Status is the registry's projection of a transfer's lifecycle.
type Status uint8

const (
	// StatusPending indicates the transfer is registered but has not reported progress.
	StatusPending Status = iota
	// StatusInProgress indicates bytes are moving.
	StatusInProgress
	// StatusPaused indicates the transfer is temporarily halted.
	StatusPaused
	// StatusCompleted indicates the transfer finished successfully.
	StatusCompleted
	// StatusFailed indicates the transfer finished with an error.
	StatusFailed
	// StatusCancelled indicates the transfer was cancelled.
	StatusCancelled
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusInProgress: "in_progress",
	StatusPaused:     "paused",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
	StatusCancelled:  "cancelled",
}

// String returns the snake_case status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsTerminal reports whether s is Completed, Failed or Cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RuntimeState is the lifecycle of the registry as a whole.
type RuntimeState uint8

const (
	// StateRunning accepts new transfers.
	StateRunning RuntimeState = iota
	// StateStopping rejects new transfers while some handle is still live.
	StateStopping
	// StateStopped is reached once shutdown began and no handle is live.
	StateStopped
)

func (s RuntimeState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("RuntimeState(%d)", uint8(s))
	}
}
