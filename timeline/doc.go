// Package timeline records the ordered, bounded trace of state transitions
// produced by the connection and transfer state machines.
//
// A Timeline is a fixed-capacity ring buffer. NextSequence hands out a strictly
// increasing counter; when one Timeline is shared by several machines the
// sequence numbers order their interleaved transitions globally, which is what
// makes a dump replayable. Record never fails: once the capacity is reached the
// oldest entry is evicted.
//
//	tl := timeline.New(1000)
//	res, err := transfer.Transition(state, ev, tl.NextSequence())
//	if err == nil {
//	    tl.Record(res.Entry)
//	}
//	out, _ := tl.DumpYAML()
//
// Dumps are written as YAML (the default, line-oriented and easy to diff) or
// indented JSON, and can be loaded back with Load for postmortem comparison.
package timeline
