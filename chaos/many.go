package chaos

import (
	"context"
	"fmt"

	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/timeline"
	"golang.org/x/sync/errgroup"
)

// RunMany runs n independent chaos transfers of total bytes, at most parallel
// at a time. Run i uses seed config.Seed+i, or a random seed when config.Seed
// is zero. Every run records into tl when it is non-nil. opts.Connection is
// ignored since runs do not share a link. When opts.Recorder is set every
// entry is persisted as it is recorded. The first error cancels the
// remaining runs.
func RunMany(ctx context.Context, n, parallel int, total uint64, config interfaces.FaultConfig, tl *timeline.Timeline, opts TransferOptions) ([]Report, error) {
	if n <= 0 {
		return nil, nil
	}
	if parallel <= 0 {
		parallel = 1
	}

	reports := make([]Report, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < n; i++ {
		runConfig := config
		if config.Seed != 0 {
			runConfig.Seed = config.Seed + uint64(i)
		}
		runOpts := opts
		runOpts.TransferID = fmt.Sprintf("chaos-%d", i)
		runOpts.Connection = nil

		g.Go(func() error {
			sim, err := NewTransferSimulator(total, runConfig)
			if err != nil {
				return err
			}
			report, err := RunTransfer(ctx, sim, NewLocalTransfer(tl, nil).WithRecorder(opts.Recorder), runOpts)
			reports[i] = report
			if err != nil {
				return fmt.Errorf("%s (seed %d): %w", runOpts.TransferID, report.Seed, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}
