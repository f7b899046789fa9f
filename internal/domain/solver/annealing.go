package solver

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/okian/fingering/internal/domain/cost"
	"github.com/okian/fingering/internal/domain/model"
)

// AnnealingSolver starts from the greedy solution and proposes single-event
// reassignments, accepting worse ones with probability exp(-delta/T).
type AnnealingSolver struct {
	base
}

// Kind implements Solver.
func (*AnnealingSolver) Kind() Kind { return Annealing }

// Solve implements Solver. The best solution seen is returned, not the last.
func (s *AnnealingSolver) Solve(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (Result, error) {
	p, err := s.prepare(perf, manual)
	if err != nil {
		return Result{}, err
	}
	cfg := p.cfg
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), pcgStream))
	free := p.free()

	cur := p.evaluate(make(genome, len(p.steps)))
	best := cur
	temp := cfg.InitialTemperature
	var trace []AnnealingStep
	if len(free) > 0 {
		trace = make([]AnnealingStep, 0, cfg.Iterations)
	}

	for it := 0; it < cfg.Iterations && len(free) > 0; it++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		idx := free[rng.IntN(len(free))]
		cand := cur.genes.clone()
		cand[idx] = gene{set: true, a: otherAssignment(rng, cand[idx].a)}
		next := p.evaluate(cand)

		delta := next.cost - cur.cost
		accepted := delta <= 0 || rng.Float64() < math.Exp(-delta/temp)
		if accepted {
			cur = next
			if cur.cost < best.cost {
				best = cur
			}
		}
		trace = append(trace, AnnealingStep{
			Iteration:   it,
			Temperature: temp,
			Cost:        cur.cost,
			Delta:       delta,
			Accepted:    accepted,
			Shares:      shares(cur.outs),
		})
		temp = math.Max(cfg.MinTemperature, temp*cfg.CoolingRate)
	}

	res := p.summarize(Annealing, best.outs, best.final)
	res.AnnealingTrace = trace
	return res, nil
}

// shares is each term's fraction of the summed terms over playable steps.
func shares(outs []outcome) cost.Breakdown {
	var sum cost.Breakdown
	for _, o := range outs {
		if o.playable {
			sum = sum.Add(o.breakdown)
		}
	}
	total := sum.Sum()
	if total <= 0 {
		return cost.Breakdown{}
	}
	out := sum.Scale(1 / total)
	out.Total = 1
	return out
}
