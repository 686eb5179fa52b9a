// Package app provides the service that runs donor pipelines synchronously
// or through the run queue, and keeps asynchronous run results.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/donorflow/internal/adapters/mq/queue"
	"github.com/okian/donorflow/internal/adapters/mq/worker"
	"github.com/okian/donorflow/internal/adapters/repository"
	"github.com/okian/donorflow/pkg/logger"
	"github.com/okian/donorflow/pkg/metrics"
)

const (
	defaultQueueSize = 1_000
	defaultStoreSize = 500
)

// Service runs pipelines and tracks asynchronous runs.
type Service struct {
	mu sync.RWMutex

	settings    Settings
	workerCount int
	queueSize   int
	storeSize   int

	queue    *queue.InMemoryQueue[job]
	pool     *worker.Pool[job]
	runs     repository.Store[Run]
	validate *validator.Validate

	started bool
	cancel  context.CancelFunc
	done    chan error

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSettings sets the pipeline settings.
func WithSettings(st Settings) Option {
	return func(s *Service) {
		s.settings = st
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStoreSize sets how many runs are kept for lookup.
func WithStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Run works right away; Submit needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		storeSize:   defaultStoreSize,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.settings.MatchField == "" {
		s.settings = DefaultSettings()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.runs = repository.NewMemoryStore[Run](repository.WithCapacity(s.storeSize))
	return s
}

// Start creates the run queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = queue.NewInMemoryQueue[job](queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool[job](s.queue, s.handle,
		worker.WithSize(s.workerCount),
		worker.WithName("pipeline"),
		worker.WithLogger(s.logger.Named("worker")),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan error, 1)
	pool, done := s.pool, s.done
	go func() { done <- pool.Run(runCtx) }()

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("store_size", s.storeSize),
	)
	return nil
}

// Stop closes the queue and waits for queued runs to finish. When ctx ends
// first the pool is canceled; runs in progress still complete. GetStats
// keeps answering while Stop drains.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	_ = s.queue.Close()
	done, cancel := s.done, s.cancel
	s.mu.Unlock()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		cancel()
		err = <-done
		if err == nil {
			err = fmt.Errorf("drain queue: %w", ctx.Err())
		}
	}
	cancel()
	s.logger.Info(ctx, "service stopped")
	return err
}

// Submit validates req and queues it. It returns the run id.
func (s *Service) Submit(ctx context.Context, req Request) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrNotStarted
	}

	id := uuid.NewString()
	if err := s.runs.Put(ctx, id, Run{ID: id, Status: StatusQueued, Submitted: time.Now().UTC()}); err != nil {
		return "", err
	}
	if err := s.queue.Enqueue(ctx, job{id: id, req: req}); err != nil {
		s.runs.Delete(ctx, id)
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordRun(metrics.OutcomeRejected)
			return "", ErrBackpressure
		}
		return "", err
	}
	s.logger.Debug(logger.WithRunID(ctx, id), "run queued")
	return id, nil
}

// Get returns a stored run. It returns repository.ErrNotFound for unknown
// or evicted ids.
func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	return s.runs.Get(ctx, id)
}

// Recent returns up to n stored runs, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]Run, error) {
	return s.runs.Recent(ctx, n)
}

func (s *Service) handle(ctx context.Context, j job) error {
	ctx = logger.WithRunID(ctx, j.id)
	run, err := s.runs.Get(ctx, j.id)
	if err != nil {
		// Evicted while queued; there is nobody to report to.
		return fmt.Errorf("run %s: %w", j.id, err)
	}
	run.Status = StatusRunning
	_ = s.runs.Put(ctx, j.id, run)

	res, err := s.Run(ctx, j.req)
	run.Finished = time.Now().UTC()
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusSucceeded
		run.Result = res
	}
	if perr := s.runs.Put(ctx, j.id, run); perr != nil {
		return perr
	}
	return err
}

// Stats describes the service for monitoring.
type Stats struct {
	Started     bool `json:"started"`
	WorkerCount int  `json:"worker_count"`
	QueueSize   int  `json:"queue_size"`
	QueueLength int  `json:"queue_length"`
	QueueClosed bool `json:"queue_closed"`
	StoredRuns  int  `json:"stored_runs"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		StoredRuns:  s.runs.Count(ctx),
	}
	if s.pool != nil {
		st.WorkerCount = s.pool.Size()
	}
	if s.queue != nil {
		st.QueueLength = s.queue.Len()
		st.QueueClosed = s.queue.IsClosed()
		metrics.UpdateQueueSize(st.QueueLength)
	}
	return st
}
