package solver

import (
	"math/rand/v2"

	"github.com/okian/fingering/internal/domain/model"
)

// pcgStream is the fixed PCG stream paired with Config.Seed.
const pcgStream = 0x9e3779b97f4a7c15

// gene is the proposed assignment for one step. An unset gene is filled by
// the greedy rule when the genome is evaluated.
type gene struct {
	set bool
	a   model.Assignment
}

type genome []gene

func (g genome) clone() genome {
	out := make(genome, len(g))
	copy(out, g)
	return out
}

// evaluation is a genome replayed against the problem. genes holds the
// repaired genome: every playable step carries the assignment it received.
type evaluation struct {
	genes genome
	outs  []outcome
	final cursor
	cost  float64
}

// evaluate walks the steps in order. A manual override wins, then a set gene
// that is feasible at that point; anything else is repaired greedily without
// lookahead.
func (p *problem) evaluate(g genome) evaluation {
	c := p.start()
	ev := evaluation{genes: make(genome, len(p.steps)), outs: make([]outcome, len(p.steps))}
	for i, st := range p.steps {
		c.advance(p.cfg, st)
		var o outcome
		if gn := g[i]; gn.set && st.mapped && !p.pinned(st, &c) && c.feasible(p.cfg, st, gn.a) {
			conflict := p.conflicted(st, &c)
			o = p.force(&c, st, gn.a, false, false)
			o.conflict = conflict
		} else {
			o = p.play(&c, st, false)
		}
		ev.outs[i] = o
		if o.playable {
			ev.genes[i] = gene{set: true, a: o.assignment}
		}
	}
	ev.final = c
	ev.cost = p.searchCost(ev.outs)
	return ev
}

// pinned reports whether a manual override will decide st.
func (p *problem) pinned(st step, c *cursor) bool {
	a, ok := p.manual[st.index]
	return ok && c.available(a)
}

func randomAssignment(rng *rand.Rand) model.Assignment {
	return model.Assignment{
		Hand:   model.Hand(rng.IntN(len(model.Hands))),
		Finger: model.Finger(rng.IntN(model.FingerCount)),
	}
}

// otherAssignment draws uniformly among the nine pairs different from a.
func otherAssignment(rng *rand.Rand, a model.Assignment) model.Assignment {
	n := len(model.Hands) * model.FingerCount
	cur := int(a.Hand)*model.FingerCount + int(a.Finger)
	k := rng.IntN(n - 1)
	if k >= cur {
		k++
	}
	return model.Assignment{Hand: model.Hand(k / model.FingerCount), Finger: model.Finger(k % model.FingerCount)}
}
