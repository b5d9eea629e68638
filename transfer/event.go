package transfer

import "fmt"

// Event is an input to Transition.
type Event interface {
	Name() string
	isEvent()
}

type Start struct {
	TransferID string
	URL        string
	TotalBytes uint64
}

// Ready reports that the transport is ready to move bytes.
type Ready struct{ TotalBytes uint64 }

// Progress reports the absolute number of acknowledged bytes.
type Progress struct {
	Bytes uint64
	Speed float64
}

type Pause struct{}
type Resume struct{}
type Done struct{}

// Error reports a transport failure.
type Error struct{ Err TransferError }

type Cancel struct{}

// Retry manually restarts a failed transfer from its last acknowledged byte.
type Retry struct{ URL string }

type Reset struct{}

func (Start) Name() string    { return "Start" }
func (Ready) Name() string    { return "Ready" }
func (Progress) Name() string { return "Progress" }
func (Pause) Name() string    { return "Pause" }
func (Resume) Name() string   { return "Resume" }
func (Done) Name() string     { return "Done" }
func (Error) Name() string    { return "Error" }
func (Cancel) Name() string   { return "Cancel" }
func (Retry) Name() string    { return "Retry" }
func (Reset) Name() string    { return "Reset" }

func (Start) isEvent()    {}
func (Ready) isEvent()    {}
func (Progress) isEvent() {}
func (Pause) isEvent()    {}
func (Resume) isEvent()   {}
func (Done) isEvent()     {}
func (Error) isEvent()    {}
func (Cancel) isEvent()   {}
func (Retry) isEvent()    {}
func (Reset) isEvent()    {}

func eventData(e Event) string {
	switch ev := e.(type) {
	case Start:
		return fmt.Sprintf("transfer_id=%s url=%s total_bytes=%d", ev.TransferID, ev.URL, ev.TotalBytes)
	case Ready:
		return fmt.Sprintf("total_bytes=%d", ev.TotalBytes)
	case Progress:
		return fmt.Sprintf("bytes=%d speed=%.0f", ev.Bytes, ev.Speed)
	case Error:
		return fmt.Sprintf("code=%s retryable=%t message=%s", ev.Err.Code, ev.Err.Retryable, ev.Err.Message)
	case Retry:
		return fmt.Sprintf("url=%s", ev.URL)
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
