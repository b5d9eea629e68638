// Package chaos exercises the connection and transfer state machines against
// a deliberately unreliable simulated transport.
//
// A [TransferSimulator] hands out file chunks and injects faults: every Nth
// chunk is dropped, chunks arrive at the wrong offset, the link disconnects,
// or a byte is flipped in flight. [RunTransfer] turns every fault into the
// matching Error event, resumes the simulator from the offset the engine last
// acknowledged and keeps going until the transfer completes or the chunk
// budget runs out. Chunk integrity is checked with BLAKE2b digests, so a run
// that completes has also reassembled the exact source payload.
//
// A [ConnectionSimulator] fails the first N connection attempts and drops the
// link after N heartbeats; [RunConnection] drives a connection engine through
// it.
//
// Engines are anything implementing interfaces.TransferEngine or
// interfaces.ConnectionEngine. [LocalTransfer] and [LocalConnection] host a
// bare state machine with a timeline; a full filenode.Node works as well.
//
// None of this performs real I/O. It is a test oracle for recovery behaviour,
// not a transport.
package chaos
