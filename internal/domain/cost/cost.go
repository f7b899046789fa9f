// Package cost scores feasible candidate placements.
//
// Six independent, non-negative terms are computed for a candidate and summed
// into Total. The caller is responsible for filtering infeasible candidates
// first; nothing here returns an infinite cost.
package cost

import (
	"math"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/hand"
	"github.com/okian/fingering/internal/domain/model"
)

// Breakdown is the per-term cost of one placement.
type Breakdown struct {
	Movement  float64 `json:"movement"`
	Stretch   float64 `json:"stretch"`
	Drift     float64 `json:"drift"`
	Bounce    float64 `json:"bounce"`
	Fatigue   float64 `json:"fatigue"`
	Crossover float64 `json:"crossover"`
	Total     float64 `json:"total"`
}

// Sum returns the sum of the six terms, ignoring Total.
func (b Breakdown) Sum() float64 {
	return b.Movement + b.Stretch + b.Drift + b.Bounce + b.Fatigue + b.Crossover
}

// Add accumulates o into b term by term, Total included.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Movement:  b.Movement + o.Movement,
		Stretch:   b.Stretch + o.Stretch,
		Drift:     b.Drift + o.Drift,
		Bounce:    b.Bounce + o.Bounce,
		Fatigue:   b.Fatigue + o.Fatigue,
		Crossover: b.Crossover + o.Crossover,
		Total:     b.Total + o.Total,
	}
}

// Scale multiplies every field by k.
func (b Breakdown) Scale(k float64) Breakdown {
	return Breakdown{
		Movement:  b.Movement * k,
		Stretch:   b.Stretch * k,
		Drift:     b.Drift * k,
		Bounce:    b.Bounce * k,
		Fatigue:   b.Fatigue * k,
		Crossover: b.Crossover * k,
		Total:     b.Total * k,
	}
}

// Params are the weights of the cost terms.
type Params struct {
	MovementWeight  float64
	StretchWeight   [model.FingerCount]float64
	SpanWeight      float64
	ComfortSpan     float64
	Stiffness       float64 // drift attractor towards the home position
	BouncePenalty   float64
	BounceWindow    float64 // seconds
	FatigueWeight   float64
	CrossoverWeight float64
}

// DefaultParams returns the documented default weights.
func DefaultParams() Params {
	return Params{
		MovementWeight: 1.0,
		StretchWeight: [model.FingerCount]float64{
			model.Thumb:  0.6,
			model.Index:  0.3,
			model.Middle: 0.3,
			model.Ring:   0.5,
			model.Pinky:  0.7,
		},
		SpanWeight:      0.5,
		ComfortSpan:     3.0,
		Stiffness:       0.3,
		BouncePenalty:   1.0,
		BounceWindow:    1.0,
		FatigueWeight:   1.0,
		CrossoverWeight: 2.0,
	}
}

// Candidate is one (hand, finger) option for a note at a target position.
type Candidate struct {
	Finger model.Finger
	State  hand.State // the candidate hand before placement
	Other  hand.State // the opposite hand, for crossover
	Target model.GridPosition
	Note   int
	Time   float64
}

// Evaluate computes the breakdown for c. memo may be nil, in which case the
// bounce term is zero.
func Evaluate(c Candidate, p Params, memo *Memo) Breakdown {
	fs := c.State.Finger(c.Finger)
	post := c.State.Place(c.Finger, c.Target, 0)
	centroid := post.Anchor()

	var b Breakdown
	if fs.Placed {
		b.Movement = p.MovementWeight * grid.Distance(fs.Position, c.Target)
	}
	b.Stretch = p.StretchWeight[c.Finger]*grid.Distance(c.Target, centroid) +
		p.SpanWeight*math.Max(0, post.Span()-p.ComfortSpan)
	b.Drift = p.Stiffness * grid.Distance(centroid, c.State.Home())
	if memo != nil {
		b.Bounce = memo.Penalty(c.Note, c.State.Hand(), c.Finger, c.Time, p)
	}
	b.Fatigue = p.FatigueWeight * fs.Fatigue
	b.Crossover = crossover(c, p)
	b.Total = b.Sum()
	return b
}

// crossover penalises a placement on the far side of the other hand.
func crossover(c Candidate, p Params) float64 {
	other := c.Other.Anchor().Col
	var overlap float64
	switch c.State.Hand() {
	case model.Left:
		overlap = c.Target.Col - other
	case model.Right:
		overlap = other - c.Target.Col
	}
	if overlap <= 0 {
		return 0
	}
	return p.CrossoverWeight * (overlap + 1)
}
