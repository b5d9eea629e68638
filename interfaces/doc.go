// Package interfaces defines the contracts between the filenode engine and the
// outside world.
//
// The state machines only describe side effects. Everything that actually
// touches a transport, a timer or a disk sits behind one of these interfaces,
// so the same coordinator code runs against production collaborators and
// against the chaos harness.
//
// # Core Interfaces
//
// [ActionExecutor] performs the actions emitted by the connection and transfer
// state machines. Implementations usually start I/O or arm a timer and later
// feed the outcome back into the engine as a new event:
//
//	type dialer struct{ events chan<- connection.Event }
//
//	func (d *dialer) ExecuteConnectionAction(ctx context.Context, a connection.Action) error {
//	    switch a := a.(type) {
//	    case connection.StartConnection:
//	        go d.dial(ctx, a.DeviceID)
//	    case connection.ScheduleReconnect:
//	        time.AfterFunc(a.Delay, func() { d.events <- connection.Connect{} })
//	    }
//	    return nil
//	}
//
// [EntryRecorder] persists timeline entries, for example to the SQLite store.
//
// [TransferEngine] and [ConnectionEngine] host a state machine: they apply an
// event to the current state under the caller's serialization and return the
// new state with the actions it produced. The chaos harness drives any engine,
// whether the in-memory one it ships or a full node.
//
// # Configuration
//
// [FaultConfig] describes the faults injected by the chaos harness:
//
//	cfg := interfaces.FaultConfig{
//	    ChunkSize:              1024,
//	    DropEvery:              5,
//	    WrongOffsetProbability: 0.1,
//	    DisconnectProbability:  0.1,
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatalf("invalid fault config: %v", err)
//	}
//
// # Thread Safety
//
// Engines serialize transitions per identity. Executors and recorders may be
// called from several goroutines, one per transfer, and must be safe for
// concurrent use.
package interfaces
