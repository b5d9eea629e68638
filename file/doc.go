// Package file implements the transfer registry: the concurrent runtime that
// tracks every in-flight file transfer, broadcasts cancellation and implements
// graceful shutdown.
//
// # Overview
//
// The registry does not run the transfer state machine. It holds a simplified
// projection of each transfer (a Status plus byte counters) that the executor
// updates as it performs the actions the state machine emits:
//
//	reg := file.NewRegistry(file.WithRegisterer(prometheus.DefaultRegisterer))
//
//	cancelled, ok := reg.Register(id, totalBytes)
//	if !ok {
//	    return ErrShuttingDown
//	}
//
//	for chunk := range chunks {
//	    select {
//	    case <-cancelled:
//	        return nil // feed Cancel or Error into the state machine
//	    default:
//	    }
//	    reg.UpdateProgress(id, chunk.End)
//	}
//	reg.Complete(id)
//
// # Statuses
//
//	const (
//	    StatusPending    // Registered, no bytes reported yet
//	    StatusInProgress // Bytes are moving
//	    StatusPaused     // Temporarily halted
//	    StatusCompleted  // Finished successfully
//	    StatusFailed     // Finished with an error
//	    StatusCancelled  // Cancelled by the user or by shutdown
//	)
//
// Completed, Failed and Cancelled are terminal and sticky: progress, pause,
// resume, complete and fail calls against a terminal handle report false.
// Terminal handles stay visible until CleanupFinished removes them.
//
// # Cancellation
//
// Each registration returns a channel that is closed exactly once when the
// transfer is cancelled, either individually, by CancelAll or by Shutdown.
// Cancellation is cooperative: the executor checks the channel between chunks
// and drives the state machine to a terminal state itself.
//
// # Shutdown
//
// Shutdown is idempotent. It marks the registry as stopping so that Register
// and Resume are rejected, cancels every live handle and closes the channel
// returned by SubscribeShutdown. State reports Stopped once no handle is
// Pending, InProgress or Paused.
//
// # Commands
//
// SendCommand applies a Command (Shutdown, CancelTransfer, CancelAll) and then
// forwards it to every channel obtained from SubscribeCommands. Delivery is
// non-blocking; a subscriber whose buffer is full misses the command.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. The handle map is guarded
// by a sync.RWMutex; readers such as GetActiveTransfers and Get share the lock.
package file
