package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fingering/internal/adapters/http/api"
	"github.com/okian/fingering/internal/adapters/repository"
	service "github.com/okian/fingering/internal/app"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/internal/engine"
	"github.com/okian/fingering/pkg/logger"
)

func smallConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Jobs = 12
	cfg.MinEvents = 4
	cfg.MaxEvents = 10
	cfg.Workers = 4
	cfg.PollInterval = 5 * time.Millisecond
	cfg.PollTimeout = 20 * time.Second
	cfg.Strategies = []string{"greedy", "beam", "genetic", "annealing"}
	return cfg
}

func TestGenerate(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		cfg := smallConfig("")

		Convey("When generating twice with the same seed", func() {
			a, b := generate(cfg), generate(cfg)

			Convey("Then the material matches and ids differ", func() {
				So(a, ShouldHaveLength, 12)
				for i := range a {
					So(cmp.Diff(a[i].Events, b[i].Events), ShouldBeEmpty)
					So(a[i].ID, ShouldNotEqual, b[i].ID)
					So(len(a[i].Events), ShouldBeBetweenOrEqual, 4, 10)
				}
			})

			Convey("Then strategies rotate", func() {
				So(a[0].Strategy, ShouldEqual, "greedy")
				So(a[5].Strategy, ShouldEqual, "beam")
			})

			Convey("Then times never go backwards", func() {
				for _, r := range a {
					for i := 1; i < len(r.Events); i++ {
						So(r.Events[i].StartTime, ShouldBeGreaterThanOrEqualTo, r.Events[i-1].StartTime)
					}
				}
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a request with two notes", t, func() {
		req := request{ID: "j", Strategy: "greedy", Events: []event{{NoteNumber: 36}, {NoteNumber: 37}}}
		index := model.Index
		good := solver.Result{
			Strategy: "greedy",
			Score:    100,
			DebugEvents: []solver.DebugEvent{
				{Hand: solver.HandLeft, Finger: &index},
				{Hand: solver.HandRight, Finger: &index},
			},
			FingerUsage: map[string]int{"left-index": 1, "right-index": 1},
		}

		Convey("Then a consistent result passes", func() {
			So(verify(req, repository.Record{ID: "j", Result: &good}), ShouldBeEmpty)
		})

		Convey("Then a reused finger at one instant is reported", func() {
			bad := good
			bad.DebugEvents = []solver.DebugEvent{
				{Hand: solver.HandLeft, Finger: &index},
				{Hand: solver.HandLeft, Finger: &index},
			}
			bad.FingerUsage = map[string]int{"left-index": 2}
			So(verify(req, repository.Record{ID: "j", Result: &bad}), ShouldHaveLength, 1)
		})

		Convey("Then shape and usage mismatches are reported", func() {
			bad := good
			bad.Strategy = "beam"
			bad.Score = 120
			bad.DebugEvents = good.DebugEvents[:1]
			So(verify(req, repository.Record{ID: "j", Result: &bad}), ShouldHaveLength, 4)
		})

		Convey("Then a missing result is reported", func() {
			So(verify(req, repository.Record{ID: "j"}), ShouldHaveLength, 1)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		ecfg := solver.DefaultConfig()
		ecfg.PopulationSize = 8
		ecfg.Generations = 3
		ecfg.Iterations = 60
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(64),
			service.WithLogger(logger.Discard()),
			service.WithEngineOptions(engine.WithConfig(ecfg)),
		)
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When a load test runs against it", func() {
			cfg := smallConfig(srv.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "out", "requests.json")
			stats, err := Run(ctx, cfg, logger.Discard())

			Convey("Then every job finishes without violations", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 12)
				So(stats.Accepted, ShouldEqual, 12)
				So(stats.Done, ShouldEqual, 12)
				So(stats.Pending, ShouldEqual, 0)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.MeanScore, ShouldBeBetweenOrEqual, 0, 100)
			})

			Convey("Then the generated requests are saved", func() {
				_, err := os.Stat(cfg.OutputFile)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg := smallConfig("http://127.0.0.1:1")
			cfg.Timeout = 200 * time.Millisecond
			_, err := Run(ctx, cfg, logger.Discard())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrViolations), ShouldBeFalse)
		})
	})
}
