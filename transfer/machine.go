package transfer

import (
	"fmt"
	"strconv"
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
// Idle. Pairs without a rule return an *fsm.InvalidTransitionError and a zero
// Result.
func TransitionAt(s State, e Event, sequence uint64, now time.Time) (Result, error) {
	if s == nil {
		s = Idle{}
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
	case Idle:
		if ev, ok := e.(Start); ok {
			return Preparing{TransferID: ev.TransferID, StartedAt: now}, []Action{
				StartTransfer{TransferID: ev.TransferID, URL: ev.URL, Offset: 0},
				LogTimeline{Message: fmt.Sprintf("Starting transfer %s (%d bytes)", ev.TransferID, ev.TotalBytes), Level: fsm.LogLevelInfo},
				EmitUIEvent{EventType: UIStarted, Data: ev.TransferID},
			}, true
		}
	case Preparing:
		return fromPreparing(st, e, now)
	case Transferring:
		return fromTransferring(st, e, now)
	case Paused:
		return fromPaused(st, e)
	case Resuming:
		return fromResuming(st, e, now)
	case Completed:
		if _, ok := e.(Reset); ok {
			return reset()
		}
	case Failed:
		return fromFailed(st, e)
	}
	return nil, nil, false
}

func fromPreparing(st Preparing, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case Ready:
		return Transferring{TransferID: st.TransferID, StartedAt: st.StartedAt, TotalBytes: ev.TotalBytes}, []Action{
			LogTimeline{Message: fmt.Sprintf("Transfer %s ready, %d bytes total", st.TransferID, ev.TotalBytes), Level: fsm.LogLevelInfo},
		}, true

	case Error:
		return fail(st.TransferID, 0, 0, ev.Err, ev.Err.Retryable, now,
			fmt.Sprintf("Transfer %s failed in preparation: %s", st.TransferID, ev.Err.Message))
	}
	return nil, nil, false
}

func fromTransferring(st Transferring, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case Progress:
		return progress(st, ev)

	case Pause:
		return Paused{TransferID: st.TransferID, PausedAt: now, BytesTransferred: st.BytesTransferred, TotalBytes: st.TotalBytes}, []Action{
			PauseTransfer{TransferID: st.TransferID},
			LogTimeline{Message: fmt.Sprintf("Transfer %s paused at %d bytes", st.TransferID, st.BytesTransferred), Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UIPaused, Data: strconv.FormatUint(st.BytesTransferred, 10)},
		}, true

	case Done:
		duration := now.Sub(st.StartedAt)
		if duration < 0 {
			duration = 0
		}
		return Completed{TransferID: st.TransferID, CompletedAt: now, TotalBytes: st.TotalBytes, Duration: duration}, []Action{
			NotifyComplete{TransferID: st.TransferID},
			LogTimeline{Message: fmt.Sprintf("Transfer %s completed in %dms", st.TransferID, duration.Milliseconds()), Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UICompleted, Data: st.TransferID},
		}, true

	case Error:
		if !ev.Err.Retryable {
			return fail(st.TransferID, st.BytesTransferred, st.TotalBytes, ev.Err, false, now,
				fmt.Sprintf("Transfer %s failed: %s", st.TransferID, ev.Err.Message))
		}
		return Resuming{TransferID: st.TransferID, FromOffset: st.BytesTransferred, TotalBytes: st.TotalBytes, Attempt: 1}, []Action{
			ScheduleRetry{Delay: FirstRetryDelay, Attempt: 1, FromOffset: st.BytesTransferred},
			LogTimeline{Message: fmt.Sprintf("Transfer %s interrupted at %d bytes, retrying...", st.TransferID, st.BytesTransferred), Level: fsm.LogLevelWarn},
			EmitUIEvent{EventType: UIRetrying, Data: "1"},
		}, true
	}
	return nil, nil, false
}

// progress never lets the acknowledged count move backwards or past the total.
func progress(st Transferring, ev Progress) (State, []Action, bool) {
	bytes := ev.Bytes
	if st.TotalBytes > 0 && bytes > st.TotalBytes {
		bytes = st.TotalBytes
	}

	var actions []Action
	if bytes < st.BytesTransferred {
		actions = append(actions, LogTimeline{
			Message: fmt.Sprintf("Transfer %s progress regressed from %d to %d bytes, keeping %d", st.TransferID, st.BytesTransferred, ev.Bytes, st.BytesTransferred),
			Level:   fsm.LogLevelWarn,
		})
		bytes = st.BytesTransferred
	}

	st.BytesTransferred = bytes
	st.SpeedBps = ev.Speed
	actions = append([]Action{UpdateProgress{TransferID: st.TransferID, Bytes: bytes, Total: st.TotalBytes, Speed: ev.Speed}}, actions...)
	return st, actions, true
}

func fromPaused(st Paused, e Event) (State, []Action, bool) {
	switch e.(type) {
	case Resume:
		return Resuming{TransferID: st.TransferID, FromOffset: st.BytesTransferred, TotalBytes: st.TotalBytes, Attempt: 1}, []Action{
			ResumeTransfer{TransferID: st.TransferID, FromOffset: st.BytesTransferred},
			LogTimeline{Message: fmt.Sprintf("Resuming transfer %s from %d bytes", st.TransferID, st.BytesTransferred), Level: fsm.LogLevelInfo},
		}, true

	case Cancel:
		return Idle{}, []Action{
			CancelTransfer{TransferID: st.TransferID},
			LogTimeline{Message: fmt.Sprintf("Transfer %s cancelled", st.TransferID), Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UICancelled, Data: st.TransferID},
		}, true
	}
	return nil, nil, false
}

func fromResuming(st Resuming, e Event, now time.Time) (State, []Action, bool) {
	switch ev := e.(type) {
	case Ready:
		total := st.TotalBytes
		if total == 0 {
			total = ev.TotalBytes
		}
		offset := st.FromOffset
		if total > 0 && offset > total {
			offset = total
		}
		return Transferring{TransferID: st.TransferID, StartedAt: now, BytesTransferred: offset, TotalBytes: total}, []Action{
			LogTimeline{Message: fmt.Sprintf("Transfer %s resumed from %d bytes", st.TransferID, offset), Level: fsm.LogLevelInfo},
			EmitUIEvent{EventType: UIResumed, Data: strconv.FormatUint(offset, 10)},
		}, true

	case Error:
		if ev.Err.Retryable && st.Attempt < MaxResumeAttempts {
			delay := ResumeBackoff(st.Attempt)
			next := st
			next.Attempt++
			return next, []Action{
				ScheduleRetry{Delay: delay, Attempt: next.Attempt, FromOffset: st.FromOffset},
				LogTimeline{Message: fmt.Sprintf("Resume attempt %d failed, retry in %dms", st.Attempt, delay.Milliseconds()), Level: fsm.LogLevelWarn},
			}, true
		}
		return fail(st.TransferID, st.FromOffset, st.TotalBytes, ev.Err, ev.Err.Retryable, now,
			fmt.Sprintf("Transfer %s failed after max retries: %s", st.TransferID, ev.Err.Message))
	}
	return nil, nil, false
}

func fromFailed(st Failed, e Event) (State, []Action, bool) {
	switch ev := e.(type) {
	case Retry:
		if !st.Err.Retryable || st.BytesAtFailure == 0 {
			return nil, nil, false
		}
		return Resuming{TransferID: st.TransferID, FromOffset: st.BytesAtFailure, TotalBytes: st.TotalBytes, Attempt: 1}, []Action{
			StartTransfer{TransferID: st.TransferID, URL: ev.URL, Offset: st.BytesAtFailure},
			LogTimeline{Message: fmt.Sprintf("Manual retry of transfer %s from %d bytes", st.TransferID, st.BytesAtFailure), Level: fsm.LogLevelInfo},
		}, true

	case Reset:
		return reset()
	}
	return nil, nil, false
}

func fail(id string, at, total uint64, err TransferError, canRetry bool, now time.Time, message string) (State, []Action, bool) {
	return Failed{TransferID: id, FailedAt: now, BytesAtFailure: at, TotalBytes: total, Err: err}, []Action{
		NotifyFailed{TransferID: id, Error: err.Message, CanRetry: canRetry},
		LogTimeline{Message: message, Level: fsm.LogLevelError},
		EmitUIEvent{EventType: UIFailed, Data: err.Message},
	}, true
}

func reset() (State, []Action, bool) {
	return Idle{}, []Action{
		LogTimeline{Message: "Transfer state reset to Idle", Level: fsm.LogLevelInfo},
	}, true
}
