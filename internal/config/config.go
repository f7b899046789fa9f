// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of solve workers.
	WorkerCount int `koanf:"worker_count"`

	// JobStoreSize caps how many job records are kept; the oldest go first.
	JobStoreSize int `koanf:"job_store_size"`

	// JobTimeout bounds a single asynchronous solve.
	JobTimeout time.Duration `koanf:"job_timeout"`

	MetricsEnabled bool    `koanf:"metrics_enabled"`
	Metrics        Metrics `koanf:"metrics"`

	// JobStoreRefresh is how often the job store republishes its size gauge.
	JobStoreRefresh time.Duration `koanf:"job_store_refresh"`

	Engine Engine `koanf:"engine"`
	Grid   Grid   `koanf:"grid"`
}

// Metrics shapes the exported Prometheus series.
type Metrics struct {
	Namespace string            `koanf:"namespace"`
	Subsystem string            `koanf:"subsystem"`
	Buckets   []float64         `koanf:"buckets"` // latency histogram bounds, ascending
	Labels    map[string]string `koanf:"labels"`  // constant labels on every series
}

// Position is a pad coordinate in configuration files.
type Position struct {
	Row float64 `koanf:"row"`
	Col float64 `koanf:"col"`
}

// Engine holds the solver tuning. Per-finger tables are keyed by finger
// name (thumb, index, middle, ring, pinky).
type Engine struct {
	Strategy string `koanf:"strategy"`

	LeftHome            Position           `koanf:"left_home"`
	RightHome           Position           `koanf:"right_home"`
	FatigueRecoveryRate float64            `koanf:"fatigue_recovery_rate"`
	FatigueIncrement    float64            `koanf:"fatigue_increment"`
	Reach               map[string]float64 `koanf:"reach"`

	MovementWeight  float64            `koanf:"movement_weight"`
	StretchWeight   map[string]float64 `koanf:"stretch_weight"`
	SpanWeight      float64            `koanf:"span_weight"`
	ComfortSpan     float64            `koanf:"comfort_span"`
	Stiffness       float64            `koanf:"stiffness"`
	BouncePenalty   float64            `koanf:"bounce_penalty"`
	BounceWindow    float64            `koanf:"bounce_window"`
	FatigueWeight   float64            `koanf:"fatigue_weight"`
	CrossoverWeight float64            `koanf:"crossover_weight"`

	LookaheadPenalty   float64 `koanf:"lookahead_penalty"`
	LookaheadThreshold float64 `koanf:"lookahead_threshold"`
	LookaheadFraction  float64 `koanf:"lookahead_fraction"`
	UnplayablePenalty  float64 `koanf:"unplayable_penalty"`

	BeamWidth int   `koanf:"beam_width"`
	Seed      int64 `koanf:"seed"`

	PopulationSize int     `koanf:"population_size"`
	Generations    int     `koanf:"generations"`
	EliteCount     int     `koanf:"elite_count"`
	TournamentSize int     `koanf:"tournament_size"`
	CrossoverRate  float64 `koanf:"crossover_rate"`
	MutationRate   float64 `koanf:"mutation_rate"`
	EvalWorkers    int     `koanf:"eval_workers"`

	Iterations         int     `koanf:"iterations"`
	InitialTemperature float64 `koanf:"initial_temperature"`
	CoolingRate        float64 `koanf:"cooling_rate"`
	MinTemperature     float64 `koanf:"min_temperature"`
}

// Grid describes the pad layout. Custom maps note numbers (as strings, the
// way YAML and env keys arrive) to positions and wins over the derivation.
type Grid struct {
	Rows     int                 `koanf:"rows"`
	Cols     int                 `koanf:"cols"`
	BaseNote int                 `koanf:"base_note"`
	Custom   map[string]Position `koanf:"custom"`
}

// New creates a Config with defaults. The engine section mirrors
// solver.DefaultConfig.
func New(_ context.Context) *Config {
	d := solver.DefaultConfig()
	c := &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		QueueSize:      1024,
		WorkerCount:    runtime.NumCPU(),
		JobStoreSize:   10_000,
		JobTimeout:     30 * time.Second,
		MetricsEnabled: true,
		Metrics: Metrics{
			Namespace: "fingering",
			Subsystem: "engine",
		},
		JobStoreRefresh: 5 * time.Second,
		Engine: Engine{
			Strategy:            solver.Greedy.String(),
			LeftHome:            Position{Row: d.LeftHome.Row, Col: d.LeftHome.Col},
			RightHome:           Position{Row: d.RightHome.Row, Col: d.RightHome.Col},
			FatigueRecoveryRate: d.FatigueRecoveryRate,
			FatigueIncrement:    d.FatigueIncrement,
			Reach:               make(map[string]float64, model.FingerCount),
			MovementWeight:      d.Cost.MovementWeight,
			StretchWeight:       make(map[string]float64, model.FingerCount),
			SpanWeight:          d.Cost.SpanWeight,
			ComfortSpan:         d.Cost.ComfortSpan,
			Stiffness:           d.Cost.Stiffness,
			BouncePenalty:       d.Cost.BouncePenalty,
			BounceWindow:        d.Cost.BounceWindow,
			FatigueWeight:       d.Cost.FatigueWeight,
			CrossoverWeight:     d.Cost.CrossoverWeight,
			LookaheadPenalty:    d.LookaheadPenalty,
			LookaheadThreshold:  d.LookaheadThreshold,
			LookaheadFraction:   d.LookaheadFraction,
			UnplayablePenalty:   d.UnplayablePenalty,
			BeamWidth:           d.BeamWidth,
			Seed:                d.Seed,
			PopulationSize:      d.PopulationSize,
			Generations:         d.Generations,
			EliteCount:          d.EliteCount,
			TournamentSize:      d.TournamentSize,
			CrossoverRate:       d.CrossoverRate,
			MutationRate:        d.MutationRate,
			EvalWorkers:         d.EvalWorkers,
			Iterations:          d.Iterations,
			InitialTemperature:  d.InitialTemperature,
			CoolingRate:         d.CoolingRate,
			MinTemperature:      d.MinTemperature,
		},
		Grid: Grid{
			Rows:     grid.DefaultRows,
			Cols:     grid.DefaultCols,
			BaseNote: grid.DefaultBaseNote,
		},
	}
	for _, f := range model.Fingers {
		c.Engine.Reach[f.String()] = d.Reach[f]
		c.Engine.StretchWeight[f.String()] = d.Cost.StretchWeight[f]
	}
	return c
}
