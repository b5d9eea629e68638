package chaos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/transfer"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultMaxChunks is the chunk budget of a run when none is configured.
	DefaultMaxChunks = 500

	// DefaultChunkInterval is the simulated time one chunk takes, used for speed accounting.
	DefaultChunkInterval = 10 * time.Millisecond

	// DefaultDeviceID names the simulated peer when a connection engine is driven.
	DefaultDeviceID = "chaos-device"
)

var (
	// ErrUnexpectedState indicates the engine did not take the path the driver relies on.
	ErrUnexpectedState = errors.New("unexpected engine state")

	// ErrOffsetMismatch indicates a delivered chunk did not start at the acknowledged offset.
	ErrOffsetMismatch = errors.New("chunk offset does not match acknowledged offset")

	// ErrDigestMismatch indicates the reassembled payload differs from the source.
	ErrDigestMismatch = errors.New("reassembled payload digest mismatch")

	// ErrCancelled indicates the run stopped on its cancel signal.
	ErrCancelled = errors.New("transfer cancelled")
)

// TransferOptions configures RunTransfer.
type TransferOptions struct {
	TransferID string
	URL        string

	// MaxChunks bounds the number of chunk requests. Zero selects DefaultMaxChunks.
	MaxChunks int

	// ChunkInterval is the simulated duration of one chunk. Zero selects DefaultChunkInterval.
	ChunkInterval time.Duration

	// Connection, when set, sees ConnectionLost and ConnectionEstablished
	// around every disconnect fault.
	Connection interfaces.ConnectionEngine
	DeviceID   string

	// Cancel is a registry cancel signal. The owner of the signal is
	// responsible for moving the state machine to a terminal state.
	Cancel <-chan struct{}
	// Recorder persists the entries of the engines RunMany creates. RunTransfer
	// ignores it; the engine it is given records on its own.
	Recorder interfaces.EntryRecorder
}

// Report summarizes one chaos run.
type Report struct {
	TransferID   string
	Seed         uint64
	Chunks       int
	Successes    int
	Drops        int
	Disconnects  int
	WrongOffsets int
	Corruptions  int
	Reconnects   int
	Completed    bool
	Verified     bool
	FinalState   transfer.State
	Backoff      time.Duration
	AverageSpeed float64
}

// Faults returns the total number of injected faults that were recovered.
func (r Report) Faults() int {
	return r.Drops + r.Disconnects + r.WrongOffsets + r.Corruptions
}

type transferDriver struct {
	sim    *TransferSimulator
	engine interfaces.TransferEngine
	opts   TransferOptions
	report Report
	sink   []byte
	state  transfer.State
}

// RunTransfer drives engine through a full transfer served by sim. Every
// fault becomes a retryable Error event; the simulator is then rewound to
// the offset the engine acknowledged and the engine is told the transfer is
// Ready again. The run ends when the payload is complete and verified, when
// the chunk budget is spent, or on cancellation.
//
// When ctx is cancelled the driver feeds a non-retryable CANCELLED error so
// the engine reaches Failed before RunTransfer returns.
func RunTransfer(ctx context.Context, sim *TransferSimulator, engine interfaces.TransferEngine, opts TransferOptions) (Report, error) {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = DefaultMaxChunks
	}
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = DefaultChunkInterval
	}
	if opts.DeviceID == "" {
		opts.DeviceID = DefaultDeviceID
	}
	if opts.TransferID == "" {
		opts.TransferID = fmt.Sprintf("chaos-%d", sim.Seed())
	}

	d := &transferDriver{
		sim:    sim,
		engine: engine,
		opts:   opts,
		sink:   make([]byte, 0, sim.TotalBytes()),
		report: Report{TransferID: opts.TransferID, Seed: sim.Seed()},
	}
	err := d.run(ctx)
	d.report.FinalState = d.state

	logrus.WithFields(logrus.Fields{
		"function":      "RunTransfer",
		"transfer_id":   opts.TransferID,
		"seed":          d.report.Seed,
		"chunks":        d.report.Chunks,
		"faults":        d.report.Faults(),
		"completed":     d.report.Completed,
		"verified":      d.report.Verified,
		"final_state":   kindName(d.state),
		"backoff_ms":    d.report.Backoff.Milliseconds(),
		"average_speed": d.report.AverageSpeed,
	}).Info("Chaos transfer finished")

	return d.report, err
}

func (d *transferDriver) apply(ctx context.Context, ev transfer.Event) ([]transfer.Action, error) {
	st, actions, err := d.engine.Apply(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", ev.Name(), err)
	}
	d.state = st
	for _, a := range actions {
		if retry, ok := a.(transfer.ScheduleRetry); ok {
			d.report.Backoff += retry.Delay
		}
	}
	return actions, nil
}

func (d *transferDriver) run(ctx context.Context) error {
	total := d.sim.TotalBytes()

	if d.opts.Connection != nil {
		if err := d.connect(ctx); err != nil {
			return err
		}
	}
	if _, err := d.apply(ctx, transfer.Start{TransferID: d.opts.TransferID, URL: d.opts.URL, TotalBytes: total}); err != nil {
		return err
	}
	if _, err := d.apply(ctx, transfer.Ready{TotalBytes: total}); err != nil {
		return err
	}

	for d.report.Chunks < d.opts.MaxChunks {
		select {
		case <-ctx.Done():
			return d.abort(ctx)
		case <-d.opts.Cancel:
			return ErrCancelled
		default:
		}

		d.report.Chunks++
		result := d.sim.ReceiveChunk()

		switch r := result.(type) {
		case Dropped:
			d.report.Drops++
			if err := d.recover(ctx, transfer.CodePacketDropped, fmt.Sprintf("Packet %d dropped", r.PacketNumber)); err != nil {
				return err
			}

		case Disconnected:
			d.report.Disconnects++
			if err := d.recover(ctx, transfer.CodeDisconnected, fmt.Sprintf("Connection lost at offset %d", r.AtOffset)); err != nil {
				return err
			}
			if d.opts.Connection != nil {
				if err := d.reconnect(ctx); err != nil {
					return err
				}
			}

		case WrongOffset:
			if r.Received == r.Expected {
				return fmt.Errorf("%w: wrong offset fault reported expected offset %d", ErrUnexpectedState, r.Expected)
			}
			d.report.WrongOffsets++
			if err := d.recover(ctx, transfer.CodeWrongOffset, fmt.Sprintf("Expected %d, got %d", r.Expected, r.Received)); err != nil {
				return err
			}

		case Success:
			if blake2b.Sum256(r.Data) != r.Digest {
				d.report.Corruptions++
				if err := d.recover(ctx, transfer.CodeChecksumMismatch, fmt.Sprintf("Chunk ending at %d failed verification", r.Offset)); err != nil {
					return err
				}
				continue
			}
			if err := d.accept(ctx, r.Offset-r.Bytes, r.Data); err != nil {
				return err
			}

		case Complete:
			if blake2b.Sum256(r.Data) != r.Digest {
				d.report.Corruptions++
				if err := d.recover(ctx, transfer.CodeChecksumMismatch, "Final chunk failed verification"); err != nil {
					return err
				}
				continue
			}
			if err := d.accept(ctx, r.TotalBytes-uint64(len(r.Data)), r.Data); err != nil {
				return err
			}
			return d.finish(ctx)
		}
	}
	return nil
}

// accept appends a verified chunk and reports the new absolute offset.
func (d *transferDriver) accept(ctx context.Context, start uint64, data []byte) error {
	if start != uint64(len(d.sink)) {
		return fmt.Errorf("%w: chunk starts at %d, acknowledged %d", ErrOffsetMismatch, start, len(d.sink))
	}
	d.sink = append(d.sink, data...)
	d.report.Successes++
	d.updateSpeed(uint64(len(data)))

	_, err := d.apply(ctx, transfer.Progress{Bytes: uint64(len(d.sink)), Speed: d.report.AverageSpeed})
	return err
}

func (d *transferDriver) updateSpeed(bytes uint64) {
	instant := float64(bytes) / d.opts.ChunkInterval.Seconds()
	if d.report.AverageSpeed == 0 {
		d.report.AverageSpeed = instant
		return
	}
	d.report.AverageSpeed = d.report.AverageSpeed*0.7 + instant*0.3
}

func (d *transferDriver) finish(ctx context.Context) error {
	if _, err := d.apply(ctx, transfer.Done{}); err != nil {
		return err
	}
	d.report.Completed = true

	if blake2b.Sum256(d.sink) != d.sim.SourceDigest() {
		return ErrDigestMismatch
	}
	d.report.Verified = true
	return nil
}

// recover reports a retryable fault and rewinds the simulator to the offset
// the engine acknowledged, never to the driver's own expectation.
func (d *transferDriver) recover(ctx context.Context, code transfer.Code, message string) error {
	logrus.WithFields(logrus.Fields{
		"function":    "RunTransfer",
		"transfer_id": d.opts.TransferID,
		"code":        code,
		"chunk":       d.report.Chunks,
	}).Debug(message)

	if _, err := d.apply(ctx, transfer.Error{Err: transfer.NewError(code, message, true)}); err != nil {
		return err
	}
	resuming, ok := d.state.(transfer.Resuming)
	if !ok {
		return fmt.Errorf("%w: %s after %s", ErrUnexpectedState, kindName(d.state), code)
	}

	d.sim.ResumeFrom(resuming.FromOffset)
	if resuming.FromOffset > uint64(len(d.sink)) {
		return fmt.Errorf("%w: engine acknowledged %d but only %d bytes were received", ErrOffsetMismatch, resuming.FromOffset, len(d.sink))
	}
	d.sink = d.sink[:resuming.FromOffset]

	_, err := d.apply(ctx, transfer.Ready{TotalBytes: d.sim.TotalBytes()})
	return err
}

// abort moves the engine to a terminal state after ctx was cancelled.
func (d *transferDriver) abort(ctx context.Context) error {
	cause := ctx.Err()
	if _, err := d.apply(context.WithoutCancel(ctx), transfer.Error{Err: transfer.Cancelled(cause.Error())}); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (d *transferDriver) connect(ctx context.Context) error {
	if _, _, err := d.opts.Connection.Apply(ctx, connection.Connect{DeviceID: d.opts.DeviceID}); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if _, _, err := d.opts.Connection.Apply(ctx, connection.ConnectionEstablished{}); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (d *transferDriver) reconnect(ctx context.Context) error {
	st, _, err := d.opts.Connection.Apply(ctx, connection.ConnectionLost{})
	if err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	if _, ok := st.(connection.Reconnecting); !ok {
		return fmt.Errorf("%w: connection %s after ConnectionLost", ErrUnexpectedState, st.Kind())
	}
	if _, _, err := d.opts.Connection.Apply(ctx, connection.ConnectionEstablished{}); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	d.report.Reconnects++
	return nil
}

func kindName(s transfer.State) string {
	if s == nil {
		return transfer.KindIdle.String()
	}
	return s.Kind().String()
}
