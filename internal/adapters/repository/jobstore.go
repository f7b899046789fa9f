package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/pkg/metrics"
)

const (
	defaultCapacity              = 10_000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// JobStore is a bounded, in-memory Store. Records are evicted in insertion
// order once the capacity is reached.
type JobStore struct {
	mu       sync.RWMutex
	byID     map[string]*Record
	order    []string // insertion order, oldest first
	capacity int
	now      func() time.Time

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

var _ Store = (*JobStore)(nil)

// NewJobStore constructs a job store and starts its metrics updater, which
// stops when ctx ends or Close is called.
func NewJobStore(ctx context.Context, opts ...Option) *JobStore {
	s := &JobStore{
		byID:                  make(map[string]*Record),
		capacity:              defaultCapacity,
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Create implements Store.
func (s *JobStore) Create(_ context.Context, job model.Job) error { //nolint:gocritic // hugeParam: mirrors queue payload
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[job.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, job.ID)
	}
	submitted := job.SubmittedAt
	if submitted.IsZero() {
		submitted = s.now()
	}
	s.byID[job.ID] = &Record{
		ID:          job.ID,
		Strategy:    job.Strategy,
		Status:      StatusPending,
		Events:      len(job.Performance.Events),
		SubmittedAt: submitted,
	}
	s.order = append(s.order, job.ID)
	for len(s.order) > s.capacity {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	metrics.RecordJobStatus(string(StatusPending))
	return nil
}

// Start implements Store.
func (s *JobStore) Start(_ context.Context, id string) error {
	return s.transition(id, StatusRunning, func(r *Record) {
		r.StartedAt = s.now()
	})
}

// Complete implements Store.
func (s *JobStore) Complete(_ context.Context, id string, res solver.Result) error {
	return s.transition(id, StatusDone, func(r *Record) {
		r.FinishedAt = s.now()
		r.Result = &res
	})
}

// Fail implements Store.
func (s *JobStore) Fail(_ context.Context, id string, cause error) error {
	return s.transition(id, StatusFailed, func(r *Record) {
		r.FinishedAt = s.now()
		if cause != nil {
			r.Error = cause.Error()
		}
	})
}

func (s *JobStore) transition(id string, to Status, apply func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status.Finished() || (to == StatusDone && r.Status != StatusRunning) || (to == StatusRunning && r.Status != StatusPending) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, r.Status, to)
	}
	r.Status = to
	apply(r)
	metrics.RecordJobStatus(string(to))
	return nil
}

// Delete implements Store.
func (s *JobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get implements Store.
func (s *JobStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// Count implements Store.
func (s *JobStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Counts implements Store.
func (s *JobStore) Counts(_ context.Context) map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[Status]int{StatusPending: 0, StatusRunning: 0, StatusDone: 0, StatusFailed: 0}
	for _, r := range s.byID {
		out[r.Status]++
	}
	return out
}

// Close stops the background metrics updater.
func (s *JobStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *JobStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateJobsStored(s.Count(ctx))
			}
		}
	}()
}
