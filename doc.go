// Package filenode coordinates the connection and transfer state machines of
// a file transfer node.
//
// A Node owns one connection state machine, one state machine per transfer,
// the shared timeline and the transfer registry. Every event goes through the
// pure transition functions in the connection and transfer packages; the
// Node commits the new state, records the timeline entry, mirrors the
// resulting actions onto the registry and hands them to an optional executor.
// A rejected event is returned as an error and changes nothing.
//
// # Getting Started
//
//	node, err := filenode.New(filenode.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Shutdown(context.Background())
//
//	id, err := node.StartTransfer(ctx, "https://example.com/file.bin", 10000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	node.HandleTransferEvent(ctx, id, transfer.Ready{TotalBytes: 10000})
//	node.HandleTransferEvent(ctx, id, transfer.Progress{Bytes: 5000})
//	node.HandleTransferEvent(ctx, id, transfer.Done{})
//
// # Side Effects
//
// Actions are descriptions only. Supply an interfaces.ActionExecutor in
// Options to perform them; the executor runs outside the transfer lock and
// may feed follow-up events back into the Node. LogTimeline actions are also
// written to logrus at the level they carry.
//
// # Persistence
//
// Options.Recorder receives every timeline entry after it is committed. The
// store package provides a SQLite recorder:
//
//	st, err := store.New("timeline.db")
//	opts := filenode.NewOptions()
//	opts.Recorder = st
//
// # Chaos Runs
//
// Transfer and Connection return engines that satisfy the contracts used by
// the chaos package, so a fault-injected run can target a full Node:
//
//	report, err := chaos.RunTransfer(ctx, sim, node.Transfer("run-1"), chaos.TransferOptions{
//	    TransferID: "run-1",
//	    Connection: node.Connection(),
//	})
//
// # Thread Safety
//
// All Node methods are safe for concurrent use. Transitions are serialized
// per transfer and separately for the connection; different transfers
// proceed in parallel.
package filenode
