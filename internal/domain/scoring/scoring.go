// Package scoring turns per-event costs into difficulty labels and a 0-100
// playability score.
package scoring

import (
	"math"
)

// Difficulty buckets the cost of a single event.
type Difficulty string

// Difficulty labels, easiest first.
const (
	Easy       Difficulty = "Easy"
	Medium     Difficulty = "Medium"
	Hard       Difficulty = "Hard"
	Unplayable Difficulty = "Unplayable"
)

// Cost thresholds (exclusive lower bounds) for each label.
const (
	mediumThreshold     = 3.0
	hardThreshold       = 10.0
	unplayableThreshold = 100.0
)

// Score shape.
const (
	maxScoreValue     = 100
	hardPenalty       = 5
	unplayablePenalty = 20
)

// Classify labels an event by its cost alone.
func Classify(cost float64) Difficulty {
	switch {
	case math.IsInf(cost, 1) || math.IsNaN(cost) || cost > unplayableThreshold:
		return Unplayable
	case cost > hardThreshold:
		return Hard
	case cost > mediumThreshold:
		return Medium
	default:
		return Easy
	}
}

// PlayabilityScore is 100 minus 5 per hard and 20 per unplayable event,
// clamped to [0, 100].
func PlayabilityScore(hardCount, unplayableCount int) float64 {
	score := float64(maxScoreValue - hardPenalty*hardCount - unplayablePenalty*unplayableCount)
	return math.Max(0, math.Min(maxScoreValue, score))
}
