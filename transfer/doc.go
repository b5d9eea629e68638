// Package transfer implements the offset-aware lifecycle of a single file
// transfer as a pure state machine.
//
// A transfer moves Idle → Preparing → Transferring and ends in Completed or
// Failed. Retryable errors while transferring move it to Resuming, which
// retries with exponential backoff (1s, 2s, 4s) up to three attempts and
// always resumes from the last acknowledged byte. Pause and Resume are user
// driven; Cancel is accepted from Paused.
//
// Progress is monotonic: a Progress event reporting fewer bytes than already
// acknowledged keeps the acknowledged count and emits a warning, and byte
// counts never exceed the total once it is known.
//
// Example:
//
//	var s transfer.State = transfer.Idle{}
//	res, err := transfer.Transition(s, transfer.Start{TransferID: id, URL: url, TotalBytes: n}, seq)
//	if err != nil {
//	    return err // ordering defect, s is unchanged
//	}
//	s = res.NewState
//	for _, a := range res.Actions {
//	    execute(a)
//	}
package transfer
