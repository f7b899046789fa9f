package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/domain/solver"
)

// SolveDependencies defines what POST /solve needs.
type SolveDependencies interface {
	SolveNow(ctx context.Context, req loader.Request) (solver.Result, error)
}

// SolveHandler handles synchronous solve requests.
type SolveHandler struct {
	deps SolveDependencies
}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler(deps SolveDependencies) *SolveHandler {
	return &SolveHandler{deps: deps}
}

// HandleSolve handles POST /solve requests. Only strategies with a
// synchronous mode are accepted; the others answer 409 and must go through
// POST /jobs.
func (h *SolveHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.solve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := loader.ParseRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SolveNow(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, solver.ErrUnsupportedSolverMode):
		writeError(w, http.StatusConflict, "unsupported_mode", WrapKind(op, ErrConflict, err))
	case isBadInput(err):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
