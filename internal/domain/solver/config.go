package solver

import (
	"fmt"
	"runtime"

	"github.com/okian/fingering/internal/domain/cost"
	"github.com/okian/fingering/internal/domain/feasibility"
	"github.com/okian/fingering/internal/domain/model"
)

// Config carries every tunable of the solvers. Nothing in the cost or search
// code hard-codes these values; DefaultConfig documents the defaults.
type Config struct {
	// Hands.
	LeftHome            model.GridPosition
	RightHome           model.GridPosition
	FatigueRecoveryRate float64 // fatigue units recovered per second
	FatigueIncrement    float64 // fatigue added per placement
	Reach               feasibility.Reach
	Cost                cost.Params

	// Greedy lookahead.
	LookaheadPenalty   float64 // added when the next event becomes unreachable
	LookaheadThreshold float64
	LookaheadFraction  float64 // share of an expensive next step that is added

	// UnplayablePenalty ranks an unplayable event during beam, genetic and
	// annealing search. It never appears in a reported cost.
	UnplayablePenalty float64

	// Beam search.
	BeamWidth int

	// Shared by the stochastic strategies.
	Seed int64

	// Genetic algorithm.
	PopulationSize int
	Generations    int
	EliteCount     int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64
	EvalWorkers    int // parallel genome evaluations; <1 means unbounded

	// Simulated annealing.
	Iterations         int
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
}

// DefaultConfig returns the documented defaults for an 8x8 grid.
func DefaultConfig() Config {
	return Config{
		LeftHome:            model.GridPosition{Row: 2, Col: 1.5},
		RightHome:           model.GridPosition{Row: 2, Col: 5.5},
		FatigueRecoveryRate: 0.5,
		FatigueIncrement:    0.5,
		Reach:               feasibility.DefaultReach(),
		Cost:                cost.DefaultParams(),
		LookaheadPenalty:    10.0,
		LookaheadThreshold:  5.0,
		LookaheadFraction:   0.1,
		UnplayablePenalty:   100.0,
		BeamWidth:           5,
		Seed:                42,
		PopulationSize:      40,
		Generations:         60,
		EliteCount:          2,
		TournamentSize:      3,
		CrossoverRate:       0.8,
		MutationRate:        0.05,
		EvalWorkers:         runtime.NumCPU(),
		Iterations:          2000,
		InitialTemperature:  10.0,
		CoolingRate:         0.995,
		MinTemperature:      0.01,
	}
}

// Validate checks the ranges every strategy relies on.
func (c Config) Validate() error {
	switch {
	case c.BeamWidth < 1:
		return fmt.Errorf("%w: beam width must be at least 1, got %d", ErrInvalidConfig, c.BeamWidth)
	case c.FatigueRecoveryRate < 0 || c.FatigueIncrement < 0:
		return fmt.Errorf("%w: fatigue rates must not be negative", ErrInvalidConfig)
	case c.PopulationSize < 2:
		return fmt.Errorf("%w: population size must be at least 2, got %d", ErrInvalidConfig, c.PopulationSize)
	case c.Generations < 0 || c.Iterations < 0:
		return fmt.Errorf("%w: generation and iteration caps must not be negative", ErrInvalidConfig)
	case c.EliteCount < 0 || c.EliteCount >= c.PopulationSize:
		return fmt.Errorf("%w: elite count must be in [0, population)", ErrInvalidConfig)
	case c.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size must be at least 1", ErrInvalidConfig)
	case !unit(c.CrossoverRate) || !unit(c.MutationRate):
		return fmt.Errorf("%w: crossover and mutation rates must be in [0, 1]", ErrInvalidConfig)
	case c.InitialTemperature <= 0 || c.MinTemperature <= 0:
		return fmt.Errorf("%w: temperatures must be positive", ErrInvalidConfig)
	case c.CoolingRate <= 0 || c.CoolingRate > 1:
		return fmt.Errorf("%w: cooling rate must be in (0, 1]", ErrInvalidConfig)
	case c.UnplayablePenalty < 0 || c.LookaheadPenalty < 0 || c.LookaheadFraction < 0:
		return fmt.Errorf("%w: penalties must not be negative", ErrInvalidConfig)
	}
	for _, f := range model.Fingers {
		if c.Reach[f] < 0 {
			return fmt.Errorf("%w: reach of %s must not be negative", ErrInvalidConfig, f)
		}
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// ValidateManual rejects overrides naming an unknown hand or finger.
func ValidateManual(manual model.ManualAssignments) error {
	for idx, a := range manual {
		if idx < 0 {
			return fmt.Errorf("%w: negative event index %d", ErrInvalidAssignment, idx)
		}
		if a.Hand != model.Left && a.Hand != model.Right {
			return fmt.Errorf("%w: event %d: %s", ErrInvalidAssignment, idx, a.Hand)
		}
		if !a.Finger.Valid() {
			return fmt.Errorf("%w: event %d: %s", ErrInvalidAssignment, idx, a.Finger)
		}
	}
	return nil
}
