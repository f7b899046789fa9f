package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/fingering/internal/adapters/mq/queue"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/pkg/logger"
	"github.com/okian/fingering/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Solver runs one job.
type Solver interface {
	SolveJob(ctx context.Context, job Job) (solver.Result, error)
}

// Recorder stores the lifecycle of a job.
type Recorder interface {
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, res solver.Result) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand, if any.
	Shutdown(ctx context.Context) error
}

// Tracker counts busy workers across a pool and publishes the gauges.
type Tracker struct {
	mu    sync.Mutex
	total int
	busy  int
}

// NewTracker returns a tracker for total workers.
func NewTracker(total int) *Tracker {
	t := &Tracker{total: total}
	t.publish()
	return t
}

func (t *Tracker) add(d int) {
	t.mu.Lock()
	t.busy += d
	t.publish()
	t.mu.Unlock()
}

func (t *Tracker) publish() {
	metrics.UpdateWorkerActiveCount(t.busy)
	metrics.UpdateWorkerIdleCount(t.total - t.busy)
}

// Busy returns the number of workers currently running a job.
func (t *Tracker) Busy() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	solver   Solver
	recorder Recorder
	name     string
	timeout  time.Duration
	tracker  *Tracker

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, s Solver, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		solver:   s,
		recorder: r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Default().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.tracker == nil {
		w.tracker = NewTracker(1)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// process runs one job and records the outcome. A solve error is recorded
// on the job and also returned.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	w.tracker.add(1)
	defer func() {
		w.tracker.add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.Start(ctx, job.ID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_start")
		return fmt.Errorf("mark job %s running: %w", job.ID, err)
	}

	solveCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	res, err := w.solver.SolveJob(solveCtx, job)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "solve_error")
		if ferr := w.recorder.Fail(ctx, job.ID, err); ferr != nil {
			w.logger.Error(ctx, "recording failure", logger.String("job_id", job.ID), logger.Error(ferr))
		}
		return fmt.Errorf("solve job %s: %w", job.ID, err)
	}

	if err := w.recorder.Complete(ctx, job.ID, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_complete")
		return fmt.Errorf("store result of job %s: %w", job.ID, err)
	}
	w.logger.Debug(ctx, "job done",
		logger.String("job_id", job.ID),
		logger.String("strategy", res.Strategy),
		logger.Float64("score", res.Score),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	tracker *Tracker
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below one uses one worker per CPU.
func NewPool(workerCount int, q Queue, s Solver, r Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		tracker: NewTracker(workerCount),
		logger:  logger.Default().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i)), WithTracker(p.tracker)}, opts...)
		p.workers[i] = NewInMemoryWorker(q, s, r, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of workers currently running a job.
func (p *Pool) Busy() int { return p.tracker.Busy() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (capped at 30s) ends are told to stop after their current
// job. A queue that cannot be closed is not drained.
func (p *Pool) Shutdown(ctx context.Context) error {
	closer, drains := p.queue.(interface{ Close() error })
	if drains {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	} else {
		for _, w := range p.workers {
			w.stop()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
			}
		}
	}
	return firstErr
}
