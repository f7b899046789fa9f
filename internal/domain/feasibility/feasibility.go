// Package feasibility holds the hard constraints that filter candidate
// placements before they are scored.
package feasibility

import (
	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/hand"
	"github.com/okian/fingering/internal/domain/model"
)

// Reach is the maximum distance, in grid units, each finger can travel for a
// single placement. Indexed by model.Finger.
type Reach [model.FingerCount]float64

// DefaultReach gives the thumb and pinky a shorter radius than the three
// middle fingers.
func DefaultReach() Reach {
	return Reach{
		model.Thumb:  5.0,
		model.Index:  6.0,
		model.Middle: 6.0,
		model.Ring:   5.5,
		model.Pinky:  5.0,
	}
}

// ReachPossible reports whether finger can move from its current position to
// target. An unplaced finger can always make its first touch.
func ReachPossible(fs hand.FingerState, target model.GridPosition, finger model.Finger, reach Reach) bool {
	if !fs.Placed {
		return true
	}
	return grid.Distance(fs.Position, target) <= reach[finger]
}

// ValidFingerOrder reports whether placing finger at pos keeps it in
// anatomical column order relative to the hand's other placed fingers. On the
// right hand columns must not decrease from thumb to pinky; the left hand is
// mirrored. Only pairs involving finger are checked, so an existing violation
// between two other fingers does not block it. Unplaced fingers are ignored.
func ValidFingerOrder(s hand.State, finger model.Finger, pos model.GridPosition) bool {
	for _, other := range model.Fingers {
		if other == finger {
			continue
		}
		fs := s.Finger(other)
		if !fs.Placed {
			continue
		}
		lo, hi := fs.Position.Col, pos.Col
		if other > finger {
			lo, hi = hi, lo
		}
		if s.Hand() == model.Left {
			lo, hi = hi, lo
		}
		if lo > hi {
			return false
		}
	}
	return true
}

// Feasible combines both predicates for a candidate placement.
func Feasible(s hand.State, finger model.Finger, pos model.GridPosition, reach Reach) bool {
	return ReachPossible(s.Finger(finger), pos, finger, reach) && ValidFingerOrder(s, finger, pos)
}
