package solver

import (
	"encoding/json"
	"math"

	"github.com/okian/fingering/internal/domain/cost"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/scoring"
)

// HandLabel is the hand recorded on a debug event.
type HandLabel string

// Hand labels.
const (
	HandLeft       HandLabel = "left"
	HandRight      HandLabel = "right"
	HandUnplayable HandLabel = "Unplayable"
)

var infinity = math.Inf(1)

func labelOf(h model.Hand) HandLabel {
	if h == model.Left {
		return HandLeft
	}
	return HandRight
}

// Reason explains why an event is unplayable.
type Reason string

// Per-event failure reasons. Both are local to the event; the run continues.
const (
	ReasonUnmappedNote        Reason = "UnmappedNote"
	ReasonNoFeasibleCandidate Reason = "NoFeasibleCandidate"
)

// DebugEvent is the assignment trace entry for one input event.
type DebugEvent struct {
	EventIndex int                 `json:"eventIndex"`
	NoteNumber int                 `json:"noteNumber"`
	StartTime  float64             `json:"startTime"`
	Hand       HandLabel           `json:"assignedHand"`
	Finger     *model.Finger       `json:"finger"` // nil iff Hand is HandUnplayable
	Cost       float64             `json:"cost"`   // +Inf when unplayable
	Breakdown  *cost.Breakdown     `json:"costBreakdown,omitempty"`
	Difficulty scoring.Difficulty  `json:"difficulty"`
	Position   *model.GridPosition `json:"position,omitempty"`
	Reason     Reason              `json:"reason,omitempty"`
	Manual     bool                `json:"manual,omitempty"`
	// Infeasible marks a manual override applied past reach or finger order.
	Infeasible bool `json:"infeasible,omitempty"`
	// OverrideConflict marks an event whose manual override was skipped
	// because its (hand, finger) was already used at that start time.
	OverrideConflict bool `json:"overrideConflict,omitempty"`
}

// Playable reports whether a hand was assigned.
func (d DebugEvent) Playable() bool { return d.Hand != HandUnplayable }

// MarshalJSON writes an infinite cost as null.
func (d DebugEvent) MarshalJSON() ([]byte, error) {
	type plain DebugEvent
	var c *float64
	if !math.IsInf(d.Cost, 0) && !math.IsNaN(d.Cost) {
		v := d.Cost
		c = &v
	}
	return json.Marshal(struct {
		plain
		Cost *float64 `json:"cost"`
	}{plain: plain(d), Cost: c})
}

// UnmarshalJSON reads a null cost back as +Inf.
func (d *DebugEvent) UnmarshalJSON(b []byte) error {
	type plain DebugEvent
	aux := struct {
		*plain
		Cost *float64 `json:"cost"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Cost == nil {
		d.Cost = math.Inf(1)
	} else {
		d.Cost = *aux.Cost
	}
	return nil
}

// GenerationStats is one line of the genetic algorithm's evolution log.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestCost    float64 `json:"bestCost"`
	AverageCost float64 `json:"averageCost"`
	WorstCost   float64 `json:"worstCost"`
}

// AnnealingStep is one iteration of the simulated annealing trace. Shares
// holds each cost term's fraction of the current solution's summed terms.
type AnnealingStep struct {
	Iteration   int            `json:"iteration"`
	Temperature float64        `json:"temperature"`
	Cost        float64        `json:"cost"`
	Delta       float64        `json:"delta"`
	Accepted    bool           `json:"accepted"`
	Shares      cost.Breakdown `json:"shares"`
}

// Result is the outcome of one solve. Its shape is identical for every
// strategy; the two logs are only filled by the strategy that produces them.
type Result struct {
	Strategy        string             `json:"strategy"`
	Score           float64            `json:"score"`
	HardCount       int                `json:"hardCount"`
	UnplayableCount int                `json:"unplayableCount"`
	DebugEvents     []DebugEvent       `json:"debugEvents"`
	FingerUsage     map[string]int     `json:"fingerUsageStats"`
	FatigueMap      map[string]float64 `json:"fatigueMap"`
	AverageDrift    float64            `json:"averageDrift"`
	AverageMetrics  cost.Breakdown     `json:"averageMetrics"`
	EvolutionLog    []GenerationStats  `json:"evolutionLog,omitempty"`
	AnnealingTrace  []AnnealingStep    `json:"annealingTrace,omitempty"`
}
