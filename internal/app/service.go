// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/adapters/mq/queue"
	"github.com/okian/fingering/internal/adapters/mq/worker"
	"github.com/okian/fingering/internal/adapters/repository"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/internal/engine"
	"github.com/okian/fingering/pkg/logger"
	"github.com/okian/fingering/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultStoreSize  = 10_000
	defaultJobTimeout = 30 * time.Second
)

// Service owns the engine, the job queue, the worker pool and the job store.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine *engine.Engine
	jobs   *repository.JobStore
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	cancel context.CancelFunc

	// Configuration
	workerCount  int
	queueSize    int
	storeSize    int
	storeRefresh time.Duration
	jobTimeout   time.Duration
	engineOpts   []engine.Option

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		storeSize:   defaultStoreSize,
		jobTimeout:  defaultJobTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the workers. Workers outlive ctx
// and stop with Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Default().Named("service")
	}

	eng, err := engine.New(append([]engine.Option{engine.WithLogger(s.logger.Named("engine"))}, s.engineOpts...)...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.engine = eng
	s.cancel = cancel
	s.jobs = repository.NewJobStore(runCtx,
		repository.WithCapacity(s.storeSize),
		repository.WithMetricsUpdateInterval(s.storeRefresh),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.jobs,
		worker.WithJobTimeout(s.jobTimeout),
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "fingering service started",
		logger.String("strategy", eng.Strategy().String()),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("jobStoreSize", s.storeSize),
	)
	return nil
}

// Stop drains the queue, waits for the workers and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping fingering service...")

	err := s.pool.Shutdown(ctx)
	s.cancel()
	if cerr := s.jobs.Close(); cerr != nil && err == nil {
		err = cerr
	}

	s.started = false
	s.logger.Info(ctx, "fingering service stopped")
	return err
}

// Engine returns the engine, or nil before Start.
func (s *Service) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SolveNow runs req synchronously with the strategy it names, or the
// engine's current strategy when it names none.
func (s *Service) SolveNow(ctx context.Context, req loader.Request) (solver.Result, error) {
	s.mu.RLock()
	eng, started := s.engine, s.started
	s.mu.RUnlock()
	if !started {
		return solver.Result{}, ErrNotStarted
	}
	if req.Strategy == "" {
		return eng.Solve(req.Performance, req.Manual)
	}
	kind, err := solver.ParseKind(req.Strategy)
	if err != nil {
		return solver.Result{}, err
	}
	s.logger.Debug(ctx, "synchronous solve", logger.String("strategy", kind.String()))
	return eng.SolveSyncWith(kind, req.Performance, req.Manual)
}

// Submit records and queues a job. A job without an id gets a random one.
// If the job cannot be queued its record is removed so the id can be
// submitted again.
func (s *Service) Submit(ctx context.Context, job model.Job) (string, error) { //nolint:gocritic // hugeParam: mirrors queue payload
	s.mu.RLock()
	q, jobs, started := s.queue, s.jobs, s.started
	s.mu.RUnlock()
	if !started {
		return "", ErrNotStarted
	}
	if job.Strategy != "" {
		if _, err := solver.ParseKind(job.Strategy); err != nil {
			return "", err
		}
	}
	if err := solver.ValidateManual(job.Manual); err != nil {
		return "", err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.SubmittedAt = time.Now()

	if err := jobs.Create(ctx, job); err != nil {
		return "", err
	}
	if err := q.Enqueue(ctx, job); err != nil {
		if derr := jobs.Delete(ctx, job.ID); derr != nil && !errors.Is(derr, repository.ErrNotFound) {
			s.logger.Error(ctx, "rolling back job record", logger.String("job_id", job.ID), logger.Error(derr))
		}
		s.logger.Warn(ctx, "job rejected", logger.String("job_id", job.ID), logger.Error(err))
		return "", err
	}
	s.logger.Debug(ctx, "job queued",
		logger.String("job_id", job.ID),
		logger.String("strategy", job.Strategy),
		logger.Int("events", len(job.Performance.Events)),
	)
	return job.ID, nil
}

// Job returns the stored record of a job.
func (s *Service) Job(ctx context.Context, id string) (repository.Record, error) {
	s.mu.RLock()
	jobs, started := s.jobs, s.started
	s.mu.RUnlock()
	if !started {
		return repository.Record{}, ErrNotStarted
	}
	return jobs.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"jobStoreSize": s.storeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stored := s.jobs.Count(ctx)
	byStatus := make(map[string]int)
	for status, n := range s.jobs.Counts(ctx) {
		byStatus[string(status)] = n
	}
	stats["strategy"] = s.engine.Strategy().String()
	stats["queueLength"] = queueLen
	stats["busyWorkers"] = s.pool.Busy()
	stats["jobsStored"] = stored
	stats["jobs"] = byStatus

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateJobsStored(stored)
	return stats
}
