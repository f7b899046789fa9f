// Package hand models the per-hand finger state used by the solvers.
//
// State is a value type: every method that changes it returns a new State,
// so a hypothetical placement can be tried and discarded without touching
// the live state it was derived from.
package hand

import (
	"math"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
)

// FingerState is one finger's position and accumulated fatigue.
type FingerState struct {
	Position model.GridPosition
	Placed   bool
	Fatigue  float64
}

// State is a snapshot of one hand.
type State struct {
	hand    model.Hand
	home    model.GridPosition
	fingers [model.FingerCount]FingerState
}

// New returns a fresh state: no finger placed, no fatigue.
func New(h model.Hand, home model.GridPosition) State {
	return State{hand: h, home: home}
}

// Hand returns which hand this state describes.
func (s State) Hand() model.Hand { return s.hand }

// Home returns the resting position of the hand.
func (s State) Home() model.GridPosition { return s.home }

// Finger returns the state of finger f.
func (s State) Finger(f model.Finger) FingerState { return s.fingers[f] }

// Place returns a copy with f moved to pos and its fatigue raised by increment.
func (s State) Place(f model.Finger, pos model.GridPosition, increment float64) State {
	fs := &s.fingers[f]
	fs.Position = pos
	fs.Placed = true
	fs.Fatigue += increment
	if fs.Fatigue < 0 {
		fs.Fatigue = 0
	}
	return s
}

// Decay returns a copy with every finger's fatigue reduced by rate*elapsed,
// floored at zero.
func (s State) Decay(rate, elapsed float64) State {
	if rate <= 0 || elapsed <= 0 {
		return s
	}
	drop := rate * elapsed
	for i := range s.fingers {
		s.fingers[i].Fatigue = math.Max(0, s.fingers[i].Fatigue-drop)
	}
	return s
}

// Centroid is the mean position of the placed fingers. ok is false when no
// finger is placed.
func (s State) Centroid() (c model.GridPosition, ok bool) {
	n := 0
	for _, fs := range s.fingers {
		if !fs.Placed {
			continue
		}
		c.Row += fs.Position.Row
		c.Col += fs.Position.Col
		n++
	}
	if n == 0 {
		return model.GridPosition{}, false
	}
	c.Row /= float64(n)
	c.Col /= float64(n)
	return c, true
}

// Anchor is the centroid, or the home position when nothing is placed.
func (s State) Anchor() model.GridPosition {
	if c, ok := s.Centroid(); ok {
		return c
	}
	return s.home
}

// Span is the thumb-to-pinky distance, 0 unless both are placed.
func (s State) Span() float64 {
	thumb, pinky := s.fingers[model.Thumb], s.fingers[model.Pinky]
	if !thumb.Placed || !pinky.Placed {
		return 0
	}
	return grid.Distance(thumb.Position, pinky.Position)
}

// Fatigue returns the fatigue of every finger, thumb first.
func (s State) Fatigue() [model.FingerCount]float64 {
	var out [model.FingerCount]float64
	for i, fs := range s.fingers {
		out[i] = fs.Fatigue
	}
	return out
}
