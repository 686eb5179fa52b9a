package loadtest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/donorflow/internal/app"
	"github.com/okian/donorflow/pkg/logger"
)

// Run submits cfg.Runs generated runs with cfg.Workers concurrent clients,
// waits for each to finish and verifies the result. Rejected runs are
// counted, not retried. It returns an error only when the service is
// unreachable or ctx ends.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Get().Named("loadtest")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load test",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("runs", cfg.Runs),
		logger.Int("donors", cfg.Donors),
		logger.Int("workers", cfg.Workers),
	)
	if err := c.health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	var accepted, rejected, succeeded, failed, mismatched atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range cfg.Runs {
		g.Go(func() error {
			fx := Generate(cfg.Donors)
			id, err := c.submit(gctx, fx.Request)
			if errors.Is(err, ErrRejected) {
				rejected.Add(1)
				return nil
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn(gctx, "submit failed", logger.Int("run", i), logger.Error(err))
				failed.Add(1)
				return nil
			}
			accepted.Add(1)

			wctx, cancel := context.WithTimeout(gctx, cfg.Timeout)
			defer cancel()
			run, err := c.wait(wctx, id, cfg.PollInterval)
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn(gctx, "run did not finish", logger.String("run_id", id), logger.Error(err))
				failed.Add(1)
			case run.Status == app.StatusFailed:
				log.Warn(gctx, "run failed", logger.String("run_id", id), logger.String("error", run.Error))
				failed.Add(1)
			default:
				succeeded.Add(1)
				if err := verify(fx, run); err != nil {
					log.Warn(gctx, "unexpected run result", logger.Error(err))
					mismatched.Add(1)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	st := Stats{
		RunsGenerated: cfg.Runs,
		Accepted:      int(accepted.Load()),
		Rejected:      int(rejected.Load()),
		Succeeded:     int(succeeded.Load()),
		Failed:        int(failed.Load()),
		Mismatched:    int(mismatched.Load()),
		Duration:      time.Since(start),
	}
	log.Info(ctx, "final statistics",
		logger.Int("accepted", st.Accepted),
		logger.Int("rejected", st.Rejected),
		logger.Int("succeeded", st.Succeeded),
		logger.Int("failed", st.Failed),
		logger.Int("mismatched", st.Mismatched),
		logger.Duration("duration", st.Duration),
		logger.Float64("success_rate", st.SuccessRate()),
	)
	return st, err
}
