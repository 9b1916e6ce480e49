package dpmeans

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// restartFunc runs one restart. It must own all of its mutable state.
type restartFunc func(ctx context.Context, restart int) (*restartOutcome, error)

// runRestarts runs cfg.NInit restarts on up to cfg.Workers goroutines and
// returns the one with the lowest objective (earliest restart on ties) along
// with a summary of every restart.
//
// Each restart writes only to its own slot, so no synchronization is needed
// beyond the final Wait, and the winner does not depend on scheduling.
// A restart failing with ErrInvalidInput is excluded from selection; any
// other error, including context cancellation, aborts the whole run.
func runRestarts(ctx context.Context, cfg *Config, log *Logger, fn restartFunc) (*restartOutcome, []RestartSummary, error) {
	outcomes := make([]*restartOutcome, cfg.NInit)
	summaries := make([]RestartSummary, cfg.NInit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(cfg.Workers, cfg.NInit)))
	for r := 0; r < cfg.NInit; r++ {
		g.Go(func() error {
			start := time.Now()
			out, err := fn(gctx, r)
			elapsed := time.Since(start)
			rlog := log.WithRestart(r)

			summaries[r] = RestartSummary{Restart: r, Duration: elapsed, Err: err}
			if err != nil {
				cfg.Metrics.RecordRestart("", elapsed, err)
				rlog.LogRestart(gctx, "", 0, 0, 0, err)
				if errors.Is(err, ErrInvalidInput) {
					return nil
				}
				return err
			}

			out.restart = r
			outcomes[r] = out
			summaries[r].Clusters = out.state.K()
			summaries[r].Iterations = out.iterations
			summaries[r].Inertia = out.inertia
			summaries[r].Objective = out.objective
			summaries[r].Status = out.status
			cfg.Metrics.RecordRestart(out.status, elapsed, nil)
			rlog.LogRestart(gctx, out.status, out.state.K(), out.iterations, out.objective, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var best *restartOutcome
	var failed []error
	for r, out := range outcomes {
		if out == nil {
			failed = append(failed, summaries[r].Err)
			continue
		}
		if best == nil || out.objective < best.objective {
			best = out
		}
	}
	if best == nil {
		return nil, nil, errors.Join(failed...)
	}
	log.LogSelection(ctx, best.restart, len(failed), best.objective)
	return best, summaries, nil
}
