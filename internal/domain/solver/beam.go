package solver

import (
	"context"
	"sort"

	"github.com/okian/fingering/internal/domain/model"
)

// BeamSolver keeps the BeamWidth cheapest partial assignments after every
// event and extends each with all feasible candidates for the next one.
type BeamSolver struct {
	base
}

// trail is a persistent list of outcomes, newest first. Siblings share
// their parent's tail.
type trail struct {
	prev *trail
	out  outcome
}

func (t *trail) push(o outcome) *trail { return &trail{prev: t, out: o} }

func (t *trail) unwind(n int) []outcome {
	outs := make([]outcome, n)
	for i := n - 1; i >= 0 && t != nil; i-- {
		outs[i] = t.out
		t = t.prev
	}
	return outs
}

type partial struct {
	cur   cursor
	trail *trail
	total float64
}

// Kind implements Solver.
func (*BeamSolver) Kind() Kind { return Beam }

// Solve implements Solver.
func (b *BeamSolver) Solve(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (Result, error) {
	p, err := b.prepare(perf, manual)
	if err != nil {
		return Result{}, err
	}
	beam := []partial{{cur: p.start()}}
	for _, st := range p.steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		var next []partial
		for _, pt := range beam {
			pt.cur.advance(p.cfg, st)
			next = append(next, b.extend(p, pt, st)...)
		}
		sort.SliceStable(next, func(i, j int) bool { return next[i].total < next[j].total })
		if len(next) > p.cfg.BeamWidth {
			next = next[:p.cfg.BeamWidth]
		}
		beam = next
	}
	best := beam[0]
	return p.summarize(Beam, best.trail.unwind(len(p.steps)), best.cur), nil
}

// extend returns the children of pt for st. Every child owns its cursor.
func (b *BeamSolver) extend(p *problem, pt partial, st step) []partial {
	conflict := p.conflicted(st, &pt.cur)
	dead := func(r Reason) []partial {
		o := unplayable(r)
		o.conflict = conflict
		return []partial{{cur: pt.cur, trail: pt.trail.push(o), total: pt.total + p.cfg.UnplayablePenalty}}
	}
	if !st.mapped {
		return dead(ReasonUnmappedNote)
	}
	if a, ok := p.manual[st.index]; ok && pt.cur.available(a) {
		cur := pt.cur.clone()
		o := p.force(&cur, st, a, false, true)
		return []partial{{cur: cur, trail: pt.trail.push(o), total: pt.total + o.breakdown.Total}}
	}
	cands := p.candidates(&pt.cur, st, false)
	if len(cands) == 0 {
		return dead(ReasonNoFeasibleCandidate)
	}
	out := make([]partial, 0, len(cands))
	for _, o := range cands {
		o.conflict = conflict
		cur := pt.cur.clone()
		cur.commit(p.cfg, st, o.assignment)
		out = append(out, partial{cur: cur, trail: pt.trail.push(o), total: pt.total + o.breakdown.Total})
	}
	return out
}
