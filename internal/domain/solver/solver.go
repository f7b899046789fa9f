// Package solver assigns fingers to note events.
//
// Four strategies share one contract: greedy with a depth-one lookahead, beam
// search, a genetic algorithm and simulated annealing. Solvers are stateless
// values; every Solve call builds its own hand states and bounce memo, so one
// solver may serve concurrent callers.
package solver

import (
	"context"
	"fmt"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
)

// PositionLookup resolves a note number to its pad. Columns is used by the
// hand shortlist heuristic.
type PositionLookup interface {
	Lookup(note int) (model.GridPosition, bool)
	Columns() int
}

// Solver is implemented by every strategy.
type Solver interface {
	Kind() Kind
	Solve(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (Result, error)
}

// SyncSolver is implemented by strategies that can run without a context.
// Only the greedy strategy does.
type SyncSolver interface {
	Solver
	SolveSync(perf model.Performance, manual model.ManualAssignments) (Result, error)
}

var (
	_ SyncSolver = (*GreedySolver)(nil)
	_ Solver     = (*BeamSolver)(nil)
	_ Solver     = (*GeneticSolver)(nil)
	_ Solver     = (*AnnealingSolver)(nil)
)

// New builds the solver for kind. A nil lookup uses the default 8x8 mapping.
func New(kind Kind, cfg Config, lookup PositionLookup) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lookup == nil {
		lookup = grid.NewMapping()
	}
	b := base{cfg: cfg, lookup: lookup}
	switch kind {
	case Greedy:
		return &GreedySolver{base: b}, nil
	case Beam:
		return &BeamSolver{base: b}, nil
	case Genetic:
		return &GeneticSolver{base: b}, nil
	case Annealing:
		return &AnnealingSolver{base: b}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSolverType, int(kind))
	}
}

// base holds the read-only inputs shared by all strategies.
type base struct {
	cfg    Config
	lookup PositionLookup
}

// prepare validates the overrides and resolves the performance.
func (b base) prepare(perf model.Performance, manual model.ManualAssignments) (*problem, error) {
	if err := ValidateManual(manual); err != nil {
		return nil, err
	}
	return newProblem(b.cfg, b.lookup, perf, manual), nil
}
