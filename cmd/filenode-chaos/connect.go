package main

import (
	"fmt"

	"github.com/opd-ai/filenode"
	"github.com/opd-ai/filenode/chaos"
	"github.com/opd-ai/filenode/factory"
	"github.com/spf13/cobra"
)

var (
	connectFailFirst       uint32
	connectDisconnectAfter uint32
	connectHeartbeats      int
	connectMaxAttempts     uint32
	connectDevice          string
)

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Run a simulated connection with failing dials and lost heartbeats",
		Example: `  filenode-chaos connect --fail-first 2
  filenode-chaos connect --disconnect-after 3 --heartbeats 10`,
		RunE: connectRun,
	}

	cmd.Flags().Uint32Var(&connectFailFirst, "fail-first", 0, "number of initial dials that fail")
	cmd.Flags().Uint32Var(&connectDisconnectAfter, "disconnect-after", 0, "drop the link after this many heartbeats (0 never)")
	cmd.Flags().IntVar(&connectHeartbeats, "heartbeats", 5, "heartbeats to exchange once connected")
	cmd.Flags().Uint32Var(&connectMaxAttempts, "max-attempts", 0, "stop dialing after this many attempts (0 uses the engine ceiling)")
	cmd.Flags().StringVar(&connectDevice, "device", chaos.DefaultDeviceID, "simulated device id")

	return cmd
}

func connectRun(cmd *cobra.Command, args []string) error {
	after, err := storedSequence(cmd.Context())
	if err != nil {
		return err
	}

	opts := filenode.NewOptions()
	opts.TimelineCapacity = globalCfg.Timeline.Capacity
	opts.SequenceAfter = after
	if globalStore != nil {
		opts.Recorder = globalStore
	}
	node, err := filenode.New(opts)
	if err != nil {
		return err
	}
	defer node.Shutdown(cmd.Context())

	sim := factory.NewSimulatorFactory().CreateConnectionSimulator(connectFailFirst, connectDisconnectAfter)
	report, err := chaos.RunConnection(cmd.Context(), sim, node.Connection(), chaos.ConnectionOptions{
		DeviceID:    connectDevice,
		MaxAttempts: connectMaxAttempts,
		Heartbeats:  connectHeartbeats,
	})
	if err != nil {
		return err
	}

	state := "-"
	if report.FinalState != nil {
		state = report.FinalState.Kind().String()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "attempts=%d failures=%d heartbeats=%d disconnected=%t state=%s\n",
		report.Attempts, report.Failures, report.Heartbeats, report.Disconnected, state)
	return nil
}
