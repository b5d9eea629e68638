package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/opd-ai/filenode"
	"github.com/opd-ai/filenode/chaos"
	"github.com/opd-ai/filenode/factory"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/timeline"
	"github.com/opd-ai/filenode/transfer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	transferSize      uint64
	transferRuns      int
	transferParallel  int
	transferMaxChunks int
	transferSeed      uint64
	transferConnect   bool
	transferDump      string
)

// errUnrecovered is returned when a run ends in a state it cannot leave on its own.
var errUnrecovered = errors.New("chaos run ended unrecovered")

func newTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Run fault-injected transfers",
		Long: `Run one or more simulated transfers with the configured fault mix.

A single run goes through a full node, so registry bookkeeping and timeline
persistence are exercised too. Several runs use independent engines sharing
one timeline, each seeded from the base seed plus its index. With --store,
entries are written as they happen and sequences continue after the highest
one already stored.

Fault settings come from the config file's chaos section and may be
overridden with FILENODE_CHAOS_* environment variables.`,
		Example: `  filenode-chaos transfer
  filenode-chaos transfer --size 1048576 --seed 42 --dump yaml
  filenode-chaos transfer --runs 50 --parallel 8`,
		RunE: transferRun,
	}

	cmd.Flags().Uint64Var(&transferSize, "size", 50000, "simulated transfer size in bytes")
	cmd.Flags().IntVar(&transferRuns, "runs", 1, "number of transfers to run")
	cmd.Flags().IntVar(&transferParallel, "parallel", 1, "maximum concurrent runs")
	cmd.Flags().IntVar(&transferMaxChunks, "max-chunks", chaos.DefaultMaxChunks, "chunk budget per run")
	cmd.Flags().Uint64Var(&transferSeed, "seed", 0, "base seed (overrides config and environment)")
	cmd.Flags().BoolVar(&transferConnect, "connect", true, "drive the connection state machine alongside a single run")
	cmd.Flags().StringVar(&transferDump, "dump", "", "print the timeline afterwards (yaml or json)")

	return cmd
}

func transferRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := factory.NewSimulatorFactoryWithConfig(globalCfg.Chaos)
	faults := f.GetCurrentConfig()
	if transferSeed != 0 {
		faults.Seed = transferSeed
	}

	var (
		reports []chaos.Report
		tl      *timeline.Timeline
		err     error
	)
	opts := chaos.TransferOptions{MaxChunks: transferMaxChunks}

	after, err := storedSequence(ctx)
	if err != nil {
		return err
	}

	if transferRuns <= 1 {
		var report chaos.Report
		report, tl, err = runOnNode(ctx, f, faults, after, opts)
		reports = []chaos.Report{report}
	} else {
		tl = timeline.New(globalCfg.Timeline.Capacity, timeline.WithSequenceAfter(after))
		if globalStore != nil {
			opts.Recorder = globalStore
		}
		reports, err = chaos.RunMany(ctx, transferRuns, transferParallel, transferSize, faults, tl, opts)
	}

	printReports(cmd, reports)

	if transferDump != "" && tl != nil {
		format, ferr := timeline.ParseFormat(transferDump)
		if ferr != nil {
			return ferr
		}
		if werr := tl.WriteTo(cmd.OutOrStdout(), format); werr != nil {
			return werr
		}
	}

	if err != nil {
		return err
	}
	for _, r := range reports {
		if !r.Completed && (r.FinalState == nil || transfer.IsTerminal(r.FinalState)) {
			return fmt.Errorf("%w: %s (seed %d)", errUnrecovered, r.TransferID, r.Seed)
		}
	}
	return nil
}

// runOnNode runs a single transfer against a full node whose timeline entries
// go to the global store when one is configured.
func runOnNode(ctx context.Context, f *factory.SimulatorFactory, faults interfaces.FaultConfig, after uint64, opts chaos.TransferOptions) (chaos.Report, *timeline.Timeline, error) {
	nodeOpts := filenode.NewOptions()
	nodeOpts.TimelineCapacity = globalCfg.Timeline.Capacity
	nodeOpts.SequenceAfter = after
	if globalStore != nil {
		nodeOpts.Recorder = globalStore
	}
	node, err := filenode.New(nodeOpts)
	if err != nil {
		return chaos.Report{}, nil, err
	}
	defer node.Shutdown(context.WithoutCancel(ctx))

	sim, err := f.CreateTransferSimulatorWithConfig(transferSize, faults)
	if err != nil {
		return chaos.Report{}, nil, err
	}

	opts.TransferID = fmt.Sprintf("chaos-%d", sim.Seed())
	opts.URL = "chaos://" + opts.TransferID
	if transferConnect {
		opts.Connection = node.Connection()
	}

	report, err := chaos.RunTransfer(ctx, sim, node.Transfer(opts.TransferID), opts)
	return report, node.Timeline(), err
}

// storedSequence returns the highest sequence already in the global store so
// a new run continues the stored trace instead of restarting at 1.
func storedSequence(ctx context.Context) (uint64, error) {
	if globalStore == nil {
		return 0, nil
	}
	after, err := globalStore.MaxSequence(ctx)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "storedSequence",
		"after":    after,
	}).Debug("Continuing stored timeline")
	return after, nil
}

func printReports(cmd *cobra.Command, reports []chaos.Report) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSFER\tSEED\tCHUNKS\tDROPS\tDISCONNECTS\tWRONG\tCORRUPT\tBACKOFF\tSTATE\tVERIFIED")
	for _, r := range reports {
		state := "-"
		if r.FinalState != nil {
			state = r.FinalState.Kind().String()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%t\n",
			r.TransferID, r.Seed, r.Chunks, r.Drops, r.Disconnects, r.WrongOffsets, r.Corruptions,
			r.Backoff, state, r.Verified)
	}
	w.Flush()
}
