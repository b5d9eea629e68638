package main

import (
	"errors"
	"fmt"

	"github.com/opd-ai/filenode/timeline"
	"github.com/spf13/cobra"
)

var (
	timelineAfter  uint64
	timelineLimit  int
	timelineFormat string
	timelineUpTo   uint64
)

// errNoStore is returned by subcommands that need a timeline database.
var errNoStore = errors.New("no timeline store configured (use --store or store.path)")

func newTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Inspect the persisted transition timeline",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print persisted timeline entries in sequence order",
		Example: `  filenode-chaos timeline show --store timeline.db
  filenode-chaos timeline show --store timeline.db --after 100 --limit 20 --format json`,
		RunE: timelineShowRun,
	}
	show.Flags().Uint64Var(&timelineAfter, "after", 0, "only entries with a greater sequence number")
	show.Flags().IntVar(&timelineLimit, "limit", 0, "maximum entries to print (0 for all)")
	show.Flags().StringVar(&timelineFormat, "format", "yaml", "output format (yaml or json)")

	prune := &cobra.Command{
		Use:     "prune",
		Short:   "Delete persisted entries up to a sequence number",
		Example: `  filenode-chaos timeline prune --store timeline.db --up-to 1000`,
		RunE:    timelinePruneRun,
	}
	prune.Flags().Uint64Var(&timelineUpTo, "up-to", 0, "delete entries with a sequence number at or below this")

	cmd.AddCommand(show, prune)
	return cmd
}

func timelineShowRun(cmd *cobra.Command, args []string) error {
	if globalStore == nil {
		return errNoStore
	}
	format, err := timeline.ParseFormat(timelineFormat)
	if err != nil {
		return err
	}

	entries, err := globalStore.ListEntries(cmd.Context(), timelineAfter, timelineLimit)
	if err != nil {
		return err
	}
	out, err := timeline.Encode(entries, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func timelinePruneRun(cmd *cobra.Command, args []string) error {
	if globalStore == nil {
		return errNoStore
	}
	removed, err := globalStore.Prune(cmd.Context(), timelineUpTo)
	if err != nil {
		return err
	}
	remaining, err := globalStore.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed=%d remaining=%d\n", removed, remaining)
	return nil
}
