// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/adapters/repository"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SolveNow runs a request synchronously.
	SolveNow(ctx context.Context, req loader.Request) (solver.Result, error)

	// Submit queues a job and returns its id.
	Submit(ctx context.Context, job model.Job) (string, error)

	// Job returns the stored state of a job.
	Job(ctx context.Context, id string) (repository.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	solveHandler  *SolveHandler
	jobsHandler   *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		solveHandler:  NewSolveHandler(deps),
		jobsHandler:   NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/solve", MetricsMiddleware(s.solveHandler.HandleSolve, "solve"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs_submit"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGet, "jobs_get"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isBadInput reports whether err was caused by the request content.
func isBadInput(err error) bool {
	for _, kind := range []error{
		loader.ErrInvalidJSON,
		loader.ErrInvalidEvent,
		loader.ErrInvalidManual,
		solver.ErrInvalidAssignment,
		solver.ErrUnknownSolverType,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
