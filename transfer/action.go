package transfer

import (
	"fmt"
	"time"

	"github.com/opd-ai/filenode/fsm"
)

// Action is a side effect owed to the executor.
type Action interface {
	fmt.Stringer
	isAction()
}

// StartTransfer opens the transfer at Offset.
type StartTransfer struct {
	TransferID string
	URL        string
	Offset     uint64
}

// ScheduleRetry asks the executor to reopen the transfer at FromOffset after Delay.
type ScheduleRetry struct {
	Delay      time.Duration
	Attempt    uint32
	FromOffset uint64
}

type PauseTransfer struct{ TransferID string }

type ResumeTransfer struct {
	TransferID string
	FromOffset uint64
}

type CancelTransfer struct{ TransferID string }

type UpdateProgress struct {
	TransferID string
	Bytes      uint64
	Total      uint64
	Speed      float64
}

type EmitUIEvent struct {
	EventType string
	Data      string
}

type LogTimeline struct {
	Message string
	Level   fsm.LogLevel
}

type NotifyComplete struct{ TransferID string }

type NotifyFailed struct {
	TransferID string
	Error      string
	CanRetry   bool
}

func (a StartTransfer) String() string {
	return fmt.Sprintf("StartTransfer{transfer_id=%s url=%s offset=%d}", a.TransferID, a.URL, a.Offset)
}

func (a ScheduleRetry) String() string {
	return fmt.Sprintf("ScheduleRetry{delay_ms=%d attempt=%d from_offset=%d}", a.Delay.Milliseconds(), a.Attempt, a.FromOffset)
}

func (a PauseTransfer) String() string {
	return fmt.Sprintf("PauseTransfer{transfer_id=%s}", a.TransferID)
}

func (a ResumeTransfer) String() string {
	return fmt.Sprintf("ResumeTransfer{transfer_id=%s from_offset=%d}", a.TransferID, a.FromOffset)
}

func (a CancelTransfer) String() string {
	return fmt.Sprintf("CancelTransfer{transfer_id=%s}", a.TransferID)
}

func (a UpdateProgress) String() string {
	return fmt.Sprintf("UpdateProgress{bytes=%d total=%d speed=%.0f}", a.Bytes, a.Total, a.Speed)
}

func (a EmitUIEvent) String() string {
	return fmt.Sprintf("EmitUIEvent{event_type=%s data=%s}", a.EventType, a.Data)
}

func (a LogTimeline) String() string {
	return fmt.Sprintf("LogTimeline{level=%s message=%q}", a.Level, a.Message)
}

func (a NotifyComplete) String() string {
	return fmt.Sprintf("NotifyComplete{transfer_id=%s}", a.TransferID)
}

func (a NotifyFailed) String() string {
	return fmt.Sprintf("NotifyFailed{transfer_id=%s can_retry=%t error=%q}", a.TransferID, a.CanRetry, a.Error)
}

func (StartTransfer) isAction()  {}
func (ScheduleRetry) isAction()  {}
func (PauseTransfer) isAction()  {}
func (ResumeTransfer) isAction() {}
func (CancelTransfer) isAction() {}
func (UpdateProgress) isAction() {}
func (EmitUIEvent) isAction()    {}
func (LogTimeline) isAction()    {}
func (NotifyComplete) isAction() {}
func (NotifyFailed) isAction()   {}
