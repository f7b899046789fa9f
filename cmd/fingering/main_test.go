package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/fingering/internal/app"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/pkg/logger"
)

func run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestStrategiesCommand(t *testing.T) {
	convey.Convey("Given the strategies command", t, func() {
		out, _, err := run("strategies")

		convey.Convey("Then every strategy is listed with its modes", func() {
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			convey.So(lines, convey.ShouldHaveLength, 4)
			convey.So(lines[0], convey.ShouldStartWith, "greedy")
			convey.So(lines[0], convey.ShouldEndWith, "sync, async")
			convey.So(lines[3], convey.ShouldStartWith, "annealing")
			convey.So(lines[3], convey.ShouldEndWith, "async")
		})
	})
}

func TestSolveCommand(t *testing.T) {
	convey.Convey("Given a performance file", t, func() {
		perf := writeFile(t, "perf.json", `{"events": [
			{"noteNumber": 36, "startTime": 0},
			{"noteNumber": 43, "startTime": 0},
			{"noteNumber": 200, "startTime": 0.5}
		]}`)

		convey.Convey("When solved with the default strategy", func() {
			out, _, err := run("solve", perf, "--log-level", "error")

			convey.Convey("Then the result JSON is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var res solver.Result
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res.Strategy, convey.ShouldEqual, "greedy")
				convey.So(res.DebugEvents, convey.ShouldHaveLength, 3)
				convey.So(res.DebugEvents[2].Reason, convey.ShouldEqual, solver.ReasonUnmappedNote)
			})
		})

		convey.Convey("When a search strategy and a custom grid are given", func() {
			grid := writeFile(t, "grid.json", `{"custom": {"200": {"row": 3, "col": 3}}}`)
			out, _, err := run("solve", perf, "--strategy", "beam", "--grid", grid, "--compact", "--log-level", "error")

			convey.Convey("Then the note becomes playable", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.Count(strings.TrimSpace(out), "\n"), convey.ShouldEqual, 0)
				var res solver.Result
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res.Strategy, convey.ShouldEqual, "beam")
				convey.So(res.DebugEvents[2].Playable(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file names its own strategy", func() {
			named := writeFile(t, "named.json", `{"strategy": "annealing", "events": [{"noteNumber": 36, "startTime": 0}]}`)
			out, _, err := run("solve", named, "--log-level", "error")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"strategy": "annealing"`)
		})

		convey.Convey("When the input is wrong", func() {
			_, _, err := run("solve", filepath.Join(t.TempDir(), "missing.json"))
			convey.So(err, convey.ShouldNotBeNil)

			_, _, err = run("solve", perf, "--strategy", "quantum")
			convey.So(err, convey.ShouldNotBeNil)

			_, _, err = run("solve", perf, "--log-format", "xml")
			convey.So(err, convey.ShouldNotBeNil)

			_, _, err = run("solve")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a config file is given", func() {
			cfg := writeFile(t, "config.yaml", "engine:\n  strategy: genetic\n  population_size: 6\n  generations: 2\n")
			out, _, err := run("solve", perf, "--config", cfg, "--log-level", "error")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"strategy": "genetic"`)
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithLogger(logger.Discard()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)

		convey.Convey("When the server context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			err := serve(ctx, logger.Discard(), "127.0.0.1:0", svc)

			convey.Convey("Then the server and the service shut down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.GetStats(context.Background())["started"], convey.ShouldEqual, false)
			})
		})

		convey.Convey("When the address cannot be used", func() {
			err := serve(context.Background(), logger.Discard(), "256.0.0.1:bad", svc)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
