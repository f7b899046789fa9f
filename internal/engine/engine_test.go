package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/internal/engine"
)

func phrase() model.Performance {
	return model.Performance{Name: "phrase", Events: []model.NoteEvent{
		{NoteNumber: 36, StartTime: 0}, {NoteNumber: 43, StartTime: 0},
		{NoteNumber: 45, StartTime: 0.5}, {NoteNumber: 52, StartTime: 1},
		{NoteNumber: 38, StartTime: 1.5}, {NoteNumber: 99, StartTime: 2},
	}}
}

func quick() solver.Config {
	cfg := solver.DefaultConfig()
	cfg.PopulationSize = 8
	cfg.Generations = 3
	cfg.Iterations = 50
	return cfg
}

func TestEngine(t *testing.T) {
	convey.Convey("Given a default engine", t, func() {
		e, err := engine.New(engine.WithConfig(quick()))
		convey.So(err, convey.ShouldBeNil)
		convey.So(e.Strategy(), convey.ShouldEqual, solver.Greedy)

		convey.Convey("When solving synchronously", func() {
			res, err := e.Solve(phrase(), nil)

			convey.Convey("Then the greedy result is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Strategy, convey.ShouldEqual, "greedy")
				convey.So(res.DebugEvents, convey.ShouldHaveLength, 6)
				convey.So(res.DebugEvents[5].Reason, convey.ShouldEqual, solver.ReasonUnmappedNote)
			})

			convey.Convey("Then solving again gives the same result", func() {
				again, err := e.Solve(phrase(), nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cmp.Diff(res, again), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the strategy has no synchronous mode", func() {
			convey.So(e.SetStrategyName("beam"), convey.ShouldBeNil)
			_, err := e.Solve(phrase(), nil)

			convey.Convey("Then the call fails instead of degrading", func() {
				convey.So(errors.Is(err, solver.ErrUnsupportedSolverMode), convey.ShouldBeTrue)
			})

			convey.Convey("Then the context variant still works", func() {
				res, err := e.SolveContext(context.Background(), phrase(), nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Strategy, convey.ShouldEqual, "beam")
			})
		})

		convey.Convey("When naming the strategy per synchronous call", func() {
			res, err := e.SolveSyncWith(solver.Greedy, phrase(), nil)
			_, err2 := e.SolveSyncWith(solver.Annealing, phrase(), nil)

			convey.Convey("Then only greedy runs and the current strategy is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Strategy, convey.ShouldEqual, "greedy")
				convey.So(errors.Is(err2, solver.ErrUnsupportedSolverMode), convey.ShouldBeTrue)
				convey.So(e.Strategy(), convey.ShouldEqual, solver.Greedy)
			})
		})

		convey.Convey("When switching to an unknown strategy", func() {
			err := e.SetStrategyName("quantum")
			err2 := e.SetStrategy(solver.Kind(9))

			convey.Convey("Then the switch fails and the old strategy stays", func() {
				convey.So(errors.Is(err, solver.ErrUnknownSolverType), convey.ShouldBeTrue)
				convey.So(errors.Is(err2, solver.ErrUnknownSolverType), convey.ShouldBeTrue)
				convey.So(e.Strategy(), convey.ShouldEqual, solver.Greedy)
			})
		})

		convey.Convey("When an invalid config is pushed", func() {
			bad := quick()
			bad.CoolingRate = 2
			err := e.UpdateEngineConfig(bad)

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, solver.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(e.Config().CoolingRate, convey.ShouldEqual, quick().CoolingRate)
			})
		})

		convey.Convey("When the grid mapping is replaced", func() {
			e.UpdateGridMapping(grid.NewMapping(grid.WithCustom(map[int]model.GridPosition{99: {Row: 3, Col: 3}})))
			res, err := e.Solve(phrase(), nil)

			convey.Convey("Then the custom pad is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.DebugEvents[5].Playable(), convey.ShouldBeTrue)
				convey.So(*res.DebugEvents[5].Position, convey.ShouldResemble, model.GridPosition{Row: 3, Col: 3})
			})
		})

		convey.Convey("When solving asynchronously with every strategy", func() {
			for _, kind := range solver.Kinds() {
				convey.So(e.SetStrategy(kind), convey.ShouldBeNil)
				out := <-e.SolveAsync(context.Background(), phrase(), nil)
				convey.So(out.Err, convey.ShouldBeNil)
				convey.So(out.Result.Strategy, convey.ShouldEqual, kind.String())
			}
		})

		convey.Convey("When solving concurrently with an explicit strategy", func() {
			var wg sync.WaitGroup
			results := make([]solver.Result, 4)
			errs := make([]error, 4)
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i], errs[i] = e.SolveWith(context.Background(), solver.Genetic, phrase(), nil)
				}()
			}
			wg.Wait()

			convey.Convey("Then runs do not leak into each other", func() {
				for i := range results {
					convey.So(errs[i], convey.ShouldBeNil)
					convey.So(cmp.Diff(results[0], results[i]), convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given invalid construction options", t, func() {
		_, err := engine.New(engine.WithStrategy(solver.Kind(7)))
		convey.So(errors.Is(err, solver.ErrUnknownSolverType), convey.ShouldBeTrue)

		bad := solver.DefaultConfig()
		bad.PopulationSize = 1
		_, err = engine.New(engine.WithConfig(bad))
		convey.So(errors.Is(err, solver.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
