// Package worker runs queued pipeline jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/donorflow/pkg/logger"
	"github.com/okian/donorflow/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// Handler processes one item. A returned error is logged and counted; it
// does not stop the pool.
type Handler[T any] func(ctx context.Context, item T) error

// Source is where workers receive items from.
type Source[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Pool runs a fixed number of workers over a Source.
type Pool[T any] struct {
	size   int
	name   string
	source Source[T]
	handle Handler[T]
	logger logger.Logger
}

// NewPool creates a worker pool. It does not start any goroutine.
func NewPool[T any](source Source[T], handle Handler[T], opts ...Option) *Pool[T] {
	o := options{size: runtime.NumCPU(), name: "worker"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("worker-pool")
	}
	return &Pool[T]{
		size:   o.size,
		name:   o.name,
		source: source,
		handle: handle,
		logger: o.logger,
	}
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int { return p.size }

// Run starts the workers and blocks until the source is drained and closed
// or ctx is canceled. An item being processed when ctx is canceled is
// finished first.
func (p *Pool[T]) Run(ctx context.Context) error {
	metrics.UpdateWorkerCount(p.size)
	defer metrics.UpdateWorkerCount(0)

	items := p.source.Dequeue(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		name := p.name + "-" + strconv.Itoa(i)
		g.Go(func() error {
			p.loop(gctx, name, items)
			return nil
		})
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
	err := g.Wait()
	p.logger.Info(ctx, "worker pool stopped")
	return err
}

func (p *Pool[T]) loop(ctx context.Context, name string, items <-chan T) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			// Detached so a shutdown does not interrupt a run mid-stage.
			p.process(context.WithoutCancel(ctx), name, item)
		}
	}
}

func (p *Pool[T]) process(ctx context.Context, name string, item T) {
	metrics.AddWorkersBusy(1)
	defer metrics.AddWorkersBusy(-1)

	start := time.Now()
	err := p.safeHandle(ctx, item)
	if err != nil {
		metrics.RecordError("worker", "handler")
		p.logger.Error(ctx, "job failed",
			logger.String("worker", name),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return
	}
	p.logger.Debug(ctx, "job done",
		logger.String("worker", name),
		logger.Duration("elapsed", time.Since(start)),
	)
}

func (p *Pool[T]) safeHandle(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return p.handle(ctx, item)
}
