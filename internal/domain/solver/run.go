package solver

import (
	"github.com/okian/fingering/internal/domain/cost"
	"github.com/okian/fingering/internal/domain/feasibility"
	"github.com/okian/fingering/internal/domain/hand"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/scoring"
)

// step is one sorted event with its resolved pad.
type step struct {
	index   int
	event   model.NoteEvent
	pos     model.GridPosition
	mapped  bool
	elapsed float64       // seconds since the previous event
	order   [2]model.Hand // hands to try, preferred first
}

// problem is a performance resolved against one config and lookup. It is
// read-only once built and safe to share between goroutines.
type problem struct {
	cfg    Config
	steps  []step
	manual model.ManualAssignments
}

func newProblem(cfg Config, lookup PositionLookup, perf model.Performance, manual model.ManualAssignments) *problem {
	events := perf.Sorted()
	cols := lookup.Columns()
	p := &problem{cfg: cfg, steps: make([]step, len(events)), manual: manual}
	prev := 0.0
	for i, ev := range events {
		st := step{index: i, event: ev, order: [2]model.Hand{model.Right, model.Left}}
		if i > 0 {
			st.elapsed = ev.StartTime - prev
		}
		prev = ev.StartTime
		st.pos, st.mapped = lookup.Lookup(ev.NoteNumber)
		if st.mapped && st.pos.Col < float64(cols)/2 {
			st.order = [2]model.Hand{model.Left, model.Right}
		}
		p.steps[i] = st
	}
	return p
}

// next returns the step after st, if any.
func (p *problem) next(st step) (step, bool) {
	if st.index+1 >= len(p.steps) {
		return step{}, false
	}
	return p.steps[st.index+1], true
}

// free lists the indices a search strategy may reassign: mapped and not
// pinned by a manual override.
func (p *problem) free() []int {
	var out []int
	for _, st := range p.steps {
		if _, pinned := p.manual[st.index]; st.mapped && !pinned {
			out = append(out, st.index)
		}
	}
	return out
}

// cursor is the mutable state of one walk through the steps: both hands,
// the bounce memo and the (hand, finger) pairs already used at the current
// instant. A cursor is owned by a single goroutine.
type cursor struct {
	hands     [2]hand.State
	memo      cost.Memo
	used      [2][model.FingerCount]bool
	groupTime float64
	started   bool
}

func (p *problem) start() cursor {
	return cursor{hands: [2]hand.State{
		model.Left:  hand.New(model.Left, p.cfg.LeftHome),
		model.Right: hand.New(model.Right, p.cfg.RightHome),
	}}
}

func (c *cursor) clone() cursor {
	out := *c
	out.memo = c.memo.Clone()
	return out
}

// advance moves the clock to st: fatigue recovers for the elapsed time and
// the used set is cleared when a new instant begins.
func (c *cursor) advance(cfg Config, st step) {
	if !c.started || st.event.StartTime != c.groupTime {
		c.used = [2][model.FingerCount]bool{}
	}
	c.started = true
	c.groupTime = st.event.StartTime
	for i := range c.hands {
		c.hands[i] = c.hands[i].Decay(cfg.FatigueRecoveryRate, st.elapsed)
	}
}

func (c *cursor) available(a model.Assignment) bool {
	return !c.used[a.Hand][a.Finger]
}

func (c *cursor) feasible(cfg Config, st step, a model.Assignment) bool {
	return c.available(a) && feasibility.Feasible(c.hands[a.Hand], a.Finger, st.pos, cfg.Reach)
}

func (c *cursor) evaluate(cfg Config, st step, a model.Assignment) cost.Breakdown {
	return cost.Evaluate(cost.Candidate{
		Finger: a.Finger,
		State:  c.hands[a.Hand],
		Other:  c.hands[a.Hand.Other()],
		Target: st.pos,
		Note:   st.event.NoteNumber,
		Time:   st.event.StartTime,
	}, cfg.Cost, &c.memo)
}

// commit places the finger, marks the pair used and remembers the note.
func (c *cursor) commit(cfg Config, st step, a model.Assignment) {
	c.hands[a.Hand] = c.hands[a.Hand].Place(a.Finger, st.pos, cfg.FatigueIncrement)
	c.used[a.Hand][a.Finger] = true
	c.memo.Record(st.event.NoteNumber, a.Hand, a.Finger, st.event.StartTime, cfg.Cost.BounceWindow)
}

// outcome is what happened to one step.
type outcome struct {
	playable   bool
	assignment model.Assignment
	breakdown  cost.Breakdown // Total includes the lookahead on the greedy path
	reason     Reason
	manual     bool
	infeasible bool // forced past reach or finger order
	conflict   bool // a manual override existed but its pair was taken
}

func unplayable(r Reason) outcome { return outcome{reason: r} }

// candidates scores every feasible (hand, finger) pair for st in enumeration
// order: preferred hand first, thumb to pinky.
func (p *problem) candidates(c *cursor, st step, look bool) []outcome {
	var out []outcome
	for _, h := range st.order {
		for _, f := range model.Fingers {
			a := model.Assignment{Hand: h, Finger: f}
			if !c.feasible(p.cfg, st, a) {
				continue
			}
			bd := c.evaluate(p.cfg, st, a)
			if look {
				bd.Total += p.lookahead(c, st, a)
			}
			out = append(out, outcome{playable: true, assignment: a, breakdown: bd})
		}
	}
	return out
}

// force scores a and commits it regardless of feasibility, which is still
// recorded on the outcome.
func (p *problem) force(c *cursor, st step, a model.Assignment, look, manual bool) outcome {
	infeasible := !c.feasible(p.cfg, st, a)
	bd := c.evaluate(p.cfg, st, a)
	if look {
		bd.Total += p.lookahead(c, st, a)
	}
	c.commit(p.cfg, st, a)
	return outcome{playable: true, assignment: a, breakdown: bd, manual: manual, infeasible: infeasible}
}

// play resolves st on c with the greedy rule and commits the winner. A
// manual override wins when its pair is still free at this instant; a taken
// pair falls back to the greedy rule and is flagged. Ties keep the first
// enumerated candidate.
func (p *problem) play(c *cursor, st step, look bool) outcome {
	if !st.mapped {
		return unplayable(ReasonUnmappedNote)
	}
	if a, ok := p.manual[st.index]; ok && c.available(a) {
		return p.force(c, st, a, look, true)
	}
	conflict := p.conflicted(st, c)
	cands := p.candidates(c, st, look)
	if len(cands) == 0 {
		o := unplayable(ReasonNoFeasibleCandidate)
		o.conflict = conflict
		return o
	}
	best := cands[0]
	for _, o := range cands[1:] {
		if o.breakdown.Total < best.breakdown.Total {
			best = o
		}
	}
	c.commit(p.cfg, st, best.assignment)
	best.conflict = conflict
	return best
}

// conflicted reports whether st has a manual override whose pair is already
// used at this instant.
func (p *problem) conflicted(st step, c *cursor) bool {
	a, ok := p.manual[st.index]
	return ok && !c.available(a)
}

// lookahead is the depth-one penalty for committing a on st: it checks
// whether the same hand can still take the next event and how much that
// would cost.
func (p *problem) lookahead(c *cursor, st step, a model.Assignment) float64 {
	nx, ok := p.next(st)
	if !ok || !nx.mapped {
		return 0
	}
	cfg := p.cfg
	hyp := c.hands[a.Hand].
		Place(a.Finger, st.pos, cfg.FatigueIncrement).
		Decay(cfg.FatigueRecoveryRate, nx.elapsed)
	other := c.hands[a.Hand.Other()].Decay(cfg.FatigueRecoveryRate, nx.elapsed)
	simultaneous := nx.event.StartTime == st.event.StartTime

	cheapest, found := 0.0, false
	for _, f := range model.Fingers {
		if simultaneous && (f == a.Finger || c.used[a.Hand][f]) {
			continue
		}
		if !feasibility.Feasible(hyp, f, nx.pos, cfg.Reach) {
			continue
		}
		bd := cost.Evaluate(cost.Candidate{
			Finger: f,
			State:  hyp,
			Other:  other,
			Target: nx.pos,
			Note:   nx.event.NoteNumber,
			Time:   nx.event.StartTime,
		}, cfg.Cost, nil)
		if !found || bd.Total < cheapest {
			cheapest, found = bd.Total, true
		}
	}
	switch {
	case !found:
		return cfg.LookaheadPenalty
	case cheapest > cfg.LookaheadThreshold:
		return cfg.LookaheadFraction * cheapest
	}
	return 0
}

// searchCost ranks a complete walk for beam, genetic and annealing search.
func (p *problem) searchCost(outs []outcome) float64 {
	total := 0.0
	for _, o := range outs {
		if o.playable {
			total += o.breakdown.Total
		} else {
			total += p.cfg.UnplayablePenalty
		}
	}
	return total
}

// summarize builds the Result for a finished walk.
func (p *problem) summarize(kind Kind, outs []outcome, final cursor) Result {
	res := Result{
		Strategy:    kind.String(),
		DebugEvents: make([]DebugEvent, len(p.steps)),
		FingerUsage: make(map[string]int, 2*model.FingerCount),
		FatigueMap:  make(map[string]float64, 2*model.FingerCount),
	}
	for _, h := range model.Hands {
		fatigue := final.hands[h].Fatigue()
		for _, f := range model.Fingers {
			key := model.Assignment{Hand: h, Finger: f}.Key()
			res.FingerUsage[key] = 0
			res.FatigueMap[key] = fatigue[f]
		}
	}

	var sum cost.Breakdown
	playable := 0
	for i, st := range p.steps {
		o := outs[i]
		ev := DebugEvent{
			EventIndex: st.index,
			NoteNumber: st.event.NoteNumber,
			StartTime:  st.event.StartTime,
		}
		if st.mapped {
			pos := st.pos
			ev.Position = &pos
		}
		if o.playable {
			f := o.assignment.Finger
			bd := o.breakdown
			ev.Hand = labelOf(o.assignment.Hand)
			ev.Finger = &f
			ev.Cost = bd.Total
			ev.Breakdown = &bd
			ev.Manual = o.manual
			ev.Infeasible = o.infeasible
			res.FingerUsage[o.assignment.Key()]++
			sum = sum.Add(bd)
			playable++
		} else {
			ev.Hand = HandUnplayable
			ev.Cost = infinity
			ev.Reason = o.reason
		}
		ev.OverrideConflict = o.conflict
		ev.Difficulty = scoring.Classify(ev.Cost)
		switch ev.Difficulty {
		case scoring.Hard:
			res.HardCount++
		case scoring.Unplayable:
			res.UnplayableCount++
		}
		res.DebugEvents[i] = ev
	}
	if playable > 0 {
		res.AverageMetrics = sum.Scale(1 / float64(playable))
		res.AverageDrift = res.AverageMetrics.Drift
	}
	res.Score = scoring.PlayabilityScore(res.HardCount, res.UnplayableCount)
	return res
}
