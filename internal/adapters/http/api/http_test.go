package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/fingering/internal/adapters/http/api"
	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/adapters/mq/queue"
	"github.com/okian/fingering/internal/adapters/repository"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	solveErr  error
	submitErr error
	records   map[string]repository.Record

	solved    []loader.Request
	submitted []model.Job
}

func (m *mockDependencies) SolveNow(_ context.Context, req loader.Request) (solver.Result, error) {
	m.solved = append(m.solved, req)
	if m.solveErr != nil {
		return solver.Result{}, m.solveErr
	}
	return solver.Result{Strategy: "greedy", Score: 100, FingerUsage: map[string]int{"left-index": len(req.Performance.Events)}}, nil
}

func (m *mockDependencies) Submit(_ context.Context, job model.Job) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, job)
	if job.ID == "" {
		return "generated-id", nil
	}
	return job.ID, nil
}

func (m *mockDependencies) Job(_ context.Context, id string) (repository.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return repository.Record{}, fmt.Errorf("job %s: %w", id, repository.ErrNotFound)
	}
	return rec, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]any {
	return m.stats
}

const body = `{"events": [{"noteNumber": 36, "startTime": 0}, {"noteNumber": 37, "startTime": 0.5}]}`

func serve(mux *http.ServeMux, method, path, payload string) *httptest.ResponseRecorder {
	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(payload))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func newMux(deps *mockDependencies, stats *mockStatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func TestServerRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{records: map[string]repository.Record{
			"job-1": {ID: "job-1", Status: repository.StatusDone, Events: 2},
		}}
		stats := &mockStatsProvider{stats: map[string]any{"queue_depth": 3}}
		mux := newMux(deps, stats)

		Convey("Then health serves the metrics exposition", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats serves the provider snapshot", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var out map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
			So(out["queue_depth"], ShouldEqual, 3.0)
		})

		Convey("Then stats rejects other methods", func() {
			w := serve(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSolveEndpoint(t *testing.T) {
	Convey("Given the solve endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("When posting a valid performance", func() {
			w := serve(mux, http.MethodPost, "/solve", body)

			Convey("Then the result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var res solver.Result
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Strategy, ShouldEqual, "greedy")
				So(res.FingerUsage["left-index"], ShouldEqual, 2)
				So(deps.solved, ShouldHaveLength, 1)
				So(deps.solved[0].Performance.Events, ShouldHaveLength, 2)
			})
		})

		Convey("When the body is malformed", func() {
			w := serve(mux, http.MethodPost, "/solve", `{"events": [{"noteNumber": "x"}]}`)

			Convey("Then the request is rejected before solving", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
				So(deps.solved, ShouldBeEmpty)
			})
		})

		Convey("When the strategy has no synchronous mode", func() {
			deps.solveErr = fmt.Errorf("%w: beam", solver.ErrUnsupportedSolverMode)
			w := serve(mux, http.MethodPost, "/solve", `{"strategy": "beam", "events": []}`)

			Convey("Then the conflict is reported", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w)["code"], ShouldEqual, "unsupported_mode")
			})
		})

		Convey("When the strategy is unknown", func() {
			deps.solveErr = fmt.Errorf("%w: %q", solver.ErrUnknownSolverType, "quantum")
			w := serve(mux, http.MethodPost, "/solve", `{"strategy": "quantum", "events": []}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a manual assignment is invalid", func() {
			deps.solveErr = fmt.Errorf("%w: index -1", solver.ErrInvalidAssignment)
			w := serve(mux, http.MethodPost, "/solve", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When solving fails unexpectedly", func() {
			deps.solveErr = errors.New("boom")
			w := serve(mux, http.MethodPost, "/solve", body)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(w)["message"], ShouldEqual, "boom")
		})

		Convey("When using GET", func() {
			w := serve(mux, http.MethodGet, "/solve", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestJobsEndpoints(t *testing.T) {
	Convey("Given the jobs endpoints", t, func() {
		deps := &mockDependencies{records: map[string]repository.Record{
			"job-1": {ID: "job-1", Strategy: "genetic", Status: repository.StatusRunning, Events: 4},
		}}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("When submitting a job", func() {
			w := serve(mux, http.MethodPost, "/jobs", `{"id": "mine", "strategy": "annealing", "events": [{"noteNumber": 36, "startTime": 0}]}`)

			Convey("Then it is accepted with its id", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var out map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out["id"], ShouldEqual, "mine")
				So(out["status"], ShouldEqual, "pending")
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].Strategy, ShouldEqual, "annealing")
			})
		})

		Convey("When submitting without an id", func() {
			w := serve(mux, http.MethodPost, "/jobs", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, "generated-id")
		})

		Convey("When the submission fails", func() {
			cases := []struct {
				err  error
				code int
				kind string
			}{
				{queue.ErrQueueFull, http.StatusTooManyRequests, "backpressure"},
				{queue.ErrQueueClosed, http.StatusServiceUnavailable, "unavailable"},
				{repository.ErrDuplicate, http.StatusConflict, "duplicate"},
				{solver.ErrUnknownSolverType, http.StatusBadRequest, "bad_request"},
				{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
			}
			for _, tc := range cases {
				deps.submitErr = fmt.Errorf("submit: %w", tc.err)
				w := serve(mux, http.MethodPost, "/jobs", body)
				So(w.Code, ShouldEqual, tc.code)
				So(decodeError(w)["code"], ShouldEqual, tc.kind)
			}
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPost, "/jobs", `events`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("When fetching a known job", func() {
			w := serve(mux, http.MethodGet, "/jobs/job-1", "")

			Convey("Then its record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec repository.Record
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(rec.Status, ShouldEqual, repository.StatusRunning)
				So(rec.Strategy, ShouldEqual, "genetic")
				So(rec.Events, ShouldEqual, 4)
			})
		})

		Convey("When fetching an unknown job", func() {
			w := serve(mux, http.MethodGet, "/jobs/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When the id is missing or nested", func() {
			So(serve(mux, http.MethodGet, "/jobs/", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/jobs/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			So(serve(mux, http.MethodGet, "/jobs", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodDelete, "/jobs/job-1", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "op: bad request: cause")

		So(api.WrapKind("op", api.ErrConflict, nil).Error(), ShouldEqual, "op: conflict")
		So(errors.Is(api.NewKind("op", api.ErrBackpressure), api.ErrBackpressure), ShouldBeTrue)
	})
}
