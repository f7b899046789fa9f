package model

import (
	"fmt"
	"strings"
)

// Hand identifies the left or right hand.
type Hand int

// Hands.
const (
	Left Hand = iota
	Right
)

// Hands lists both hands in enumeration order.
var Hands = [...]Hand{Left, Right}

func (h Hand) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// Other returns the opposite hand.
func (h Hand) Other() Hand {
	if h == Left {
		return Right
	}
	return Left
}

// ParseHand accepts "left"/"l" and "right"/"r" (case-insensitive).
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown hand %q", s)
}

// Finger identifies one of the five fingers of a hand, thumb first.
type Finger int

// Fingers, in anatomical order from thumb to pinky.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerCount is the number of fingers per hand.
const FingerCount = 5

// Fingers lists all fingers in enumeration order.
var Fingers = [FingerCount]Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = [FingerCount]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= FingerCount {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Valid reports whether f is one of the five fingers.
func (f Finger) Valid() bool { return f >= Thumb && f <= Pinky }

// ParseFinger parses a finger name (case-insensitive).
func ParseFinger(s string) (Finger, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}

// GridPosition is a (row, col) coordinate on the pad surface. Values are real
// so that centroids can be represented.
type GridPosition struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// Assignment pairs a hand with one of its fingers.
type Assignment struct {
	Hand   Hand
	Finger Finger
}

// Key renders the assignment as "<hand>-<finger>", e.g. "left-index".
func (a Assignment) Key() string { return a.Hand.String() + "-" + a.Finger.String() }

// ManualAssignments forces a hand and finger for an event, keyed by the
// event's index in start-time order.
type ManualAssignments map[int]Assignment

// MarshalText encodes the hand by name.
func (h Hand) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText decodes a hand name.
func (h *Hand) UnmarshalText(b []byte) error {
	v, err := ParseHand(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// MarshalText encodes the finger by name.
func (f Finger) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText decodes a finger name.
func (f *Finger) UnmarshalText(b []byte) error {
	v, err := ParseFinger(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
