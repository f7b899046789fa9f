package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/fingering/internal/adapters/mq/queue"
	"github.com/okian/fingering/internal/adapters/mq/worker"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
)

type mockSolver struct {
	mu    sync.Mutex
	fail  map[string]error
	seen  []string
	delay time.Duration
}

func (m *mockSolver) SolveJob(ctx context.Context, job model.Job) (solver.Result, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return solver.Result{}, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, job.ID)
	if err := m.fail[job.ID]; err != nil {
		return solver.Result{}, err
	}
	return solver.Result{Strategy: job.Strategy, Score: 100}, nil
}

type mockRecorder struct {
	mu       sync.Mutex
	status   map[string]string
	results  map[string]solver.Result
	failures map[string]error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{status: map[string]string{}, results: map[string]solver.Result{}, failures: map[string]error{}}
}

func (m *mockRecorder) Start(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "running"
	return nil
}

func (m *mockRecorder) Complete(_ context.Context, id string, res solver.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "done"
	m.results[id] = res
	return nil
}

func (m *mockRecorder) Fail(_ context.Context, id string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "failed"
	m.failures[id] = cause
	return nil
}

func (m *mockRecorder) get(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

func TestPool(t *testing.T) {
	defer goleak.VerifyNone(t)

	convey.Convey("Given a pool of workers on a real queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		boom := errors.New("boom")
		s := &mockSolver{fail: map[string]error{"bad": boom}}
		r := newMockRecorder()
		pool := worker.NewPool(3, q, s, r)
		convey.So(pool.Size(), convey.ShouldEqual, 3)
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for _, id := range []string{"a", "b", "bad", "c"} {
				convey.So(q.Enqueue(ctx, model.Job{ID: id, Strategy: "greedy"}), convey.ShouldBeNil)
			}
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then every queued job is drained and recorded", func() {
				convey.So(r.get("a"), convey.ShouldEqual, "done")
				convey.So(r.get("b"), convey.ShouldEqual, "done")
				convey.So(r.get("c"), convey.ShouldEqual, "done")
				convey.So(r.get("bad"), convey.ShouldEqual, "failed")
				convey.So(errors.Is(r.failures["bad"], boom), convey.ShouldBeTrue)
				convey.So(r.results["a"].Strategy, convey.ShouldEqual, "greedy")
				convey.So(pool.Busy(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestWorkerTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	convey.Convey("Given a worker with a short job timeout", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		s := &mockSolver{delay: time.Second}
		r := newMockRecorder()
		w := worker.NewInMemoryWorker(q, s, r, worker.WithName("slow"), worker.WithJobTimeout(20*time.Millisecond))

		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		convey.Convey("When a slow job runs", func() {
			convey.So(q.Enqueue(ctx, model.Job{ID: "slow"}), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			<-done

			convey.Convey("Then it is recorded as failed with the deadline", func() {
				convey.So(r.get("slow"), convey.ShouldEqual, "failed")
				convey.So(errors.Is(r.failures["slow"], context.DeadlineExceeded), convey.ShouldBeTrue)
			})

			convey.Convey("Then shutting down a finished worker returns at once", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}
