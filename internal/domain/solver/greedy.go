package solver

import (
	"context"

	"github.com/okian/fingering/internal/domain/model"
)

// GreedySolver commits the cheapest feasible candidate for each event in
// turn, with a depth-one lookahead on the next event. It is deterministic
// and the only strategy that can run synchronously.
type GreedySolver struct {
	base
}

// Kind implements Solver.
func (*GreedySolver) Kind() Kind { return Greedy }

// Solve implements Solver. The greedy walk is bounded by the event count, so
// ctx is only checked before it starts.
func (g *GreedySolver) Solve(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return g.SolveSync(perf, manual)
}

// SolveSync implements SyncSolver.
func (g *GreedySolver) SolveSync(perf model.Performance, manual model.ManualAssignments) (Result, error) {
	p, err := g.prepare(perf, manual)
	if err != nil {
		return Result{}, err
	}
	c := p.start()
	outs := make([]outcome, len(p.steps))
	for i, st := range p.steps {
		c.advance(p.cfg, st)
		outs[i] = p.play(&c, st, true)
	}
	return p.summarize(Greedy, outs, c), nil
}
