package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/adapters/repository"
	service "github.com/okian/fingering/internal/app"
	"github.com/okian/fingering/internal/config"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/internal/engine"
	"github.com/okian/fingering/pkg/logger"
)

func quick() solver.Config {
	cfg := solver.DefaultConfig()
	cfg.PopulationSize = 8
	cfg.Generations = 3
	cfg.Iterations = 50
	return cfg
}

func phrase() model.Performance {
	return model.Performance{Name: "phrase", Events: []model.NoteEvent{
		{NoteNumber: 36, StartTime: 0}, {NoteNumber: 43, StartTime: 0},
		{NoteNumber: 45, StartTime: 0.25}, {NoteNumber: 52, StartTime: 0.5},
		{NoteNumber: 38, StartTime: 0.75}, {NoteNumber: 37, StartTime: 1},
	}}
}

func newService() *service.Service {
	return service.New(
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
		service.WithJobStoreSize(32),
		service.WithLogger(logger.Discard()),
		service.WithEngineOptions(engine.WithConfig(quick())),
	)
}

// waitDone polls until the job finishes or the deadline passes.
func waitDone(svc *service.Service, id string) repository.Record {
	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)
	for {
		rec, err := svc.Job(ctx, id)
		So(err, ShouldBeNil)
		if rec.Status.Finished() || time.Now().After(deadline) {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServiceLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When it has not been started", func() {
			stats := svc.GetStats(ctx)

			Convey("Then only the static stats are reported", func() {
				So(stats["started"], ShouldEqual, false)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats, ShouldNotContainKey, "queueLength")
			})

			Convey("Then requests are refused", func() {
				_, err := svc.Submit(ctx, model.Job{Performance: phrase()})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.SolveNow(ctx, loader.Request{Performance: phrase()})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Job(ctx, "x")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.Engine(), ShouldBeNil)
			})

			Convey("Then stopping is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When started twice and stopped", func() {
			startCtx, cancel := context.WithTimeout(ctx, time.Second)
			So(svc.Start(startCtx), ShouldBeNil)
			So(svc.Start(startCtx), ShouldBeNil)
			cancel()
			Reset(func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
			})

			Convey("Then the workers outlive the start context", func() {
				id, err := svc.Submit(ctx, model.Job{Performance: phrase()})
				So(err, ShouldBeNil)
				So(waitDone(svc, id).Status, ShouldEqual, repository.StatusDone)
			})
		})

		Convey("When the engine options are invalid", func() {
			bad := service.New(
				service.WithLogger(logger.Discard()),
				service.WithEngineOptions(engine.WithStrategy(solver.Kind(42))),
			)

			Convey("Then start fails", func() {
				So(bad.Start(ctx), ShouldNotBeNil)
				So(bad.GetStats(ctx)["started"], ShouldEqual, false)
			})
		})
	})
}

func TestServiceSolving(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { So(svc.Stop(ctx), ShouldBeNil) })

		Convey("When solving synchronously", func() {
			res, err := svc.SolveNow(ctx, loader.Request{Performance: phrase()})
			named, err2 := svc.SolveNow(ctx, loader.Request{Strategy: "greedy", Performance: phrase()})

			Convey("Then greedy answers directly", func() {
				So(err, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(res.Strategy, ShouldEqual, "greedy")
				So(res.DebugEvents, ShouldHaveLength, 6)
				So(named.Score, ShouldEqual, res.Score)
			})
		})

		Convey("When a search strategy is asked synchronously", func() {
			_, err := svc.SolveNow(ctx, loader.Request{Strategy: "genetic", Performance: phrase()})
			_, err2 := svc.SolveNow(ctx, loader.Request{Strategy: "quantum", Performance: phrase()})

			Convey("Then the call is refused", func() {
				So(errors.Is(err, solver.ErrUnsupportedSolverMode), ShouldBeTrue)
				So(errors.Is(err2, solver.ErrUnknownSolverType), ShouldBeTrue)
			})
		})

		Convey("When every strategy is submitted as a job", func() {
			ids := map[string]string{}
			for _, k := range solver.Kinds() {
				id, err := svc.Submit(ctx, model.Job{Strategy: k.String(), Performance: phrase()})
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)
				ids[k.String()] = id
			}

			Convey("Then each finishes with its own strategy", func() {
				for name, id := range ids {
					rec := waitDone(svc, id)
					So(rec.Status, ShouldEqual, repository.StatusDone)
					So(rec.Result, ShouldNotBeNil)
					So(rec.Result.Strategy, ShouldEqual, name)
					So(rec.Events, ShouldEqual, 6)
					So(rec.SubmittedAt.IsZero(), ShouldBeFalse)
				}
			})
		})

		Convey("When a job reuses an id", func() {
			_, err := svc.Submit(ctx, model.Job{ID: "same", Performance: phrase()})
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, model.Job{ID: "same", Performance: phrase()})

			Convey("Then it is rejected as a duplicate", func() {
				So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
			})
		})

		Convey("When a job is invalid", func() {
			_, err := svc.Submit(ctx, model.Job{ID: "bad", Strategy: "quantum", Performance: phrase()})
			_, err2 := svc.Submit(ctx, model.Job{ID: "bad2", Performance: phrase(),
				Manual: model.ManualAssignments{0: {Hand: model.Left, Finger: model.Finger(7)}}})

			Convey("Then nothing is recorded", func() {
				So(errors.Is(err, solver.ErrUnknownSolverType), ShouldBeTrue)
				So(errors.Is(err2, solver.ErrInvalidAssignment), ShouldBeTrue)
				_, gerr := svc.Job(ctx, "bad")
				So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
				_, gerr = svc.Job(ctx, "bad2")
				So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a job refers to an event past the end", func() {
			id, err := svc.Submit(ctx, model.Job{Performance: phrase(),
				Manual: model.ManualAssignments{99: {Hand: model.Left, Finger: model.Index}}})
			So(err, ShouldBeNil)

			Convey("Then the manual entry is ignored and the job completes", func() {
				So(waitDone(svc, id).Status, ShouldEqual, repository.StatusDone)
			})
		})

		Convey("When reading stats", func() {
			stats := svc.GetStats(ctx)

			Convey("Then the runtime stats are present", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["strategy"], ShouldEqual, "greedy")
				So(stats, ShouldContainKey, "queueLength")
				So(stats, ShouldContainKey, "busyWorkers")
				So(stats, ShouldContainKey, "jobsStored")
				So(stats["jobs"], ShouldContainKey, "done")
			})
		})
	})
}

func TestOptionsFromConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.Engine.Strategy = "beam"
		cfg.WorkerCount = 3

		Convey("When it is turned into options", func() {
			opts, err := service.OptionsFromConfig(cfg)
			So(err, ShouldBeNil)
			svc := service.New(append(opts, service.WithLogger(logger.Discard()))...)
			So(svc.Start(ctx), ShouldBeNil)
			Reset(func() { So(svc.Stop(ctx), ShouldBeNil) })

			Convey("Then the service runs the configured engine", func() {
				So(svc.Engine().Strategy(), ShouldEqual, solver.Beam)
				So(svc.GetStats(ctx)["workerCount"], ShouldEqual, 3)
			})
		})

		Convey("When the strategy is unknown", func() {
			cfg.Engine.Strategy = "quantum"
			_, err := service.OptionsFromConfig(cfg)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
