package config

import (
	"fmt"
	"strconv"

	"github.com/okian/fingering/internal/domain/cost"
	"github.com/okian/fingering/internal/domain/feasibility"
	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
)

// Strategy resolves the configured default strategy.
func (c *Config) Strategy() (solver.Kind, error) {
	k, err := solver.ParseKind(c.Engine.Strategy)
	if err != nil {
		return 0, fmt.Errorf("%w: engine.strategy: %w", ErrInvalidConfig, err)
	}
	return k, nil
}

// EngineConfig converts the engine section into solver tuning. Fingers
// missing from a per-finger table keep their default.
func (c *Config) EngineConfig() (solver.Config, error) {
	e := c.Engine
	out := solver.DefaultConfig()
	out.LeftHome = model.GridPosition{Row: e.LeftHome.Row, Col: e.LeftHome.Col}
	out.RightHome = model.GridPosition{Row: e.RightHome.Row, Col: e.RightHome.Col}
	out.FatigueRecoveryRate = e.FatigueRecoveryRate
	out.FatigueIncrement = e.FatigueIncrement
	reach, err := perFinger(e.Reach, [model.FingerCount]float64(out.Reach))
	if err != nil {
		return solver.Config{}, fmt.Errorf("%w: engine.reach: %w", ErrInvalidConfig, err)
	}
	out.Reach = feasibility.Reach(reach)
	stretch, err := perFinger(e.StretchWeight, out.Cost.StretchWeight)
	if err != nil {
		return solver.Config{}, fmt.Errorf("%w: engine.stretch_weight: %w", ErrInvalidConfig, err)
	}
	out.Cost = cost.Params{
		MovementWeight:  e.MovementWeight,
		StretchWeight:   stretch,
		SpanWeight:      e.SpanWeight,
		ComfortSpan:     e.ComfortSpan,
		Stiffness:       e.Stiffness,
		BouncePenalty:   e.BouncePenalty,
		BounceWindow:    e.BounceWindow,
		FatigueWeight:   e.FatigueWeight,
		CrossoverWeight: e.CrossoverWeight,
	}
	out.LookaheadPenalty = e.LookaheadPenalty
	out.LookaheadThreshold = e.LookaheadThreshold
	out.LookaheadFraction = e.LookaheadFraction
	out.UnplayablePenalty = e.UnplayablePenalty
	out.BeamWidth = e.BeamWidth
	out.Seed = e.Seed
	out.PopulationSize = e.PopulationSize
	out.Generations = e.Generations
	out.EliteCount = e.EliteCount
	out.TournamentSize = e.TournamentSize
	out.CrossoverRate = e.CrossoverRate
	out.MutationRate = e.MutationRate
	out.EvalWorkers = e.EvalWorkers
	out.Iterations = e.Iterations
	out.InitialTemperature = e.InitialTemperature
	out.CoolingRate = e.CoolingRate
	out.MinTemperature = e.MinTemperature
	if err := out.Validate(); err != nil {
		return solver.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return out, nil
}

func perFinger(table map[string]float64, base [model.FingerCount]float64) ([model.FingerCount]float64, error) {
	for name, v := range table {
		f, err := model.ParseFinger(name)
		if err != nil {
			return base, err
		}
		base[f] = v
	}
	return base, nil
}

// GridMapping converts the grid section into a position lookup.
func (c *Config) GridMapping() (grid.Mapping, error) {
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return grid.Mapping{}, fmt.Errorf("%w: grid dimensions must be positive", ErrInvalidConfig)
	}
	opts := []grid.Option{
		grid.WithDimensions(c.Grid.Rows, c.Grid.Cols),
		grid.WithBaseNote(c.Grid.BaseNote),
	}
	if len(c.Grid.Custom) > 0 {
		table := make(map[int]model.GridPosition, len(c.Grid.Custom))
		for key, p := range c.Grid.Custom {
			note, err := strconv.Atoi(key)
			if err != nil {
				return grid.Mapping{}, fmt.Errorf("%w: grid.custom key %q is not a note number", ErrInvalidConfig, key)
			}
			table[note] = model.GridPosition{Row: p.Row, Col: p.Col}
		}
		opts = append(opts, grid.WithCustom(table))
	}
	return grid.NewMapping(opts...), nil
}
