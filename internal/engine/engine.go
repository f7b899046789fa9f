// Package engine is the public face of the fingering solvers: it holds the
// current strategy, grid mapping and tuning, and runs solves against a
// consistent snapshot of them.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/pkg/logger"
	"github.com/okian/fingering/pkg/metrics"
)

// Engine resolves a strategy and runs it. It is safe for concurrent use;
// settings changed during a solve apply to the next one.
type Engine struct {
	mu      sync.RWMutex
	kind    solver.Kind
	cfg     solver.Config
	mapping grid.Mapping
	log     logger.Logger
}

// Outcome is delivered by SolveAsync.
type Outcome struct {
	Result solver.Result
	Err    error
}

// New builds an engine with the default 8x8 mapping, greedy strategy and
// default configuration unless overridden.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		kind:    solver.Greedy,
		cfg:     solver.DefaultConfig(),
		mapping: grid.NewMapping(),
		log:     logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("engine")
	if !e.kind.Valid() {
		return nil, fmt.Errorf("%w: %s", solver.ErrUnknownSolverType, e.kind)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Strategy returns the current default strategy.
func (e *Engine) Strategy() solver.Kind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.kind
}

// SetStrategy switches the default strategy.
func (e *Engine) SetStrategy(kind solver.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", solver.ErrUnknownSolverType, kind)
	}
	e.mu.Lock()
	e.kind = kind
	e.mu.Unlock()
	return nil
}

// SetStrategyName switches the default strategy by name.
func (e *Engine) SetStrategyName(name string) error {
	kind, err := solver.ParseKind(name)
	if err != nil {
		return err
	}
	return e.SetStrategy(kind)
}

// UpdateGridMapping replaces the note-to-pad lookup.
func (e *Engine) UpdateGridMapping(m grid.Mapping) {
	e.mu.Lock()
	e.mapping = m
	e.mu.Unlock()
}

// UpdateEngineConfig replaces the solver configuration. An invalid config
// is rejected and the previous one kept.
func (e *Engine) UpdateEngineConfig(cfg solver.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

// Config returns the current solver configuration.
func (e *Engine) Config() solver.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Mapping returns the current grid mapping.
func (e *Engine) Mapping() grid.Mapping {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mapping
}

// Solve runs the current strategy synchronously. Strategies without a
// synchronous mode fail with solver.ErrUnsupportedSolverMode.
func (e *Engine) Solve(perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	return e.solveSync(nil, perf, manual)
}

// SolveSyncWith runs kind synchronously.
func (e *Engine) SolveSyncWith(kind solver.Kind, perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	return e.solveSync(&kind, perf, manual)
}

func (e *Engine) solveSync(k *solver.Kind, perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	kind, s, err := e.build(k)
	if err != nil {
		return solver.Result{}, err
	}
	ss, ok := s.(solver.SyncSolver)
	if !ok {
		return solver.Result{}, fmt.Errorf("%w: %s has no synchronous mode", solver.ErrUnsupportedSolverMode, kind)
	}
	return e.observe(context.Background(), kind, perf, func() (solver.Result, error) {
		return ss.SolveSync(perf, manual)
	})
}

// SolveContext runs the current strategy.
func (e *Engine) SolveContext(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	return e.solve(ctx, nil, perf, manual)
}

// SolveWith runs kind instead of the current strategy.
func (e *Engine) SolveWith(ctx context.Context, kind solver.Kind, perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	return e.solve(ctx, &kind, perf, manual)
}

// SolveJob runs a queued job with the strategy it names, or the current one
// when it names none.
func (e *Engine) SolveJob(ctx context.Context, job model.Job) (solver.Result, error) { //nolint:gocritic // hugeParam: mirrors queue payload
	if job.Strategy == "" {
		return e.SolveContext(ctx, job.Performance, job.Manual)
	}
	kind, err := solver.ParseKind(job.Strategy)
	if err != nil {
		return solver.Result{}, err
	}
	return e.SolveWith(ctx, kind, job.Performance, job.Manual)
}

// SolveAsync runs the current strategy in a goroutine. The channel receives
// exactly one Outcome and is then closed.
func (e *Engine) SolveAsync(ctx context.Context, perf model.Performance, manual model.ManualAssignments) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := e.SolveContext(ctx, perf, manual)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

func (e *Engine) solve(ctx context.Context, kind *solver.Kind, perf model.Performance, manual model.ManualAssignments) (solver.Result, error) {
	k, s, err := e.build(kind)
	if err != nil {
		return solver.Result{}, err
	}
	return e.observe(ctx, k, perf, func() (solver.Result, error) {
		return s.Solve(ctx, perf, manual)
	})
}

// build snapshots the settings and constructs a fresh solver.
func (e *Engine) build(kind *solver.Kind) (solver.Kind, solver.Solver, error) {
	e.mu.RLock()
	k, cfg, mapping := e.kind, e.cfg, e.mapping
	e.mu.RUnlock()
	if kind != nil {
		k = *kind
	}
	s, err := solver.New(k, cfg, mapping)
	if err != nil {
		metrics.RecordErrorByComponent("engine", "build")
		return k, nil, err
	}
	return k, s, nil
}

// observe runs fn with a per-run correlation id, logging and metrics.
func (e *Engine) observe(ctx context.Context, kind solver.Kind, perf model.Performance, fn func() (solver.Result, error)) (solver.Result, error) {
	log := e.log.With(logger.String("run_id", uuid.NewString()), logger.String("strategy", kind.String()))
	log.Debug(ctx, "solve started", logger.Int("events", len(perf.Events)), logger.String("performance", perf.Name))
	start := time.Now()
	res, err := fn()
	elapsed := time.Since(start)
	latency := float64(elapsed.Microseconds()) / 1000
	if err != nil {
		metrics.RecordSolve(kind.String(), "error", latency)
		log.Warn(ctx, "solve failed", logger.Error(err), logger.Duration("elapsed", elapsed))
		return solver.Result{}, err
	}
	metrics.RecordSolve(kind.String(), "ok", latency)
	metrics.RecordPlayabilityScore(res.Score)
	assigned := 0
	for _, d := range res.DebugEvents {
		if d.Playable() {
			assigned++
			continue
		}
		metrics.RecordUnplayable(string(d.Reason))
	}
	metrics.RecordEventsAssigned(assigned)
	if n := len(res.EvolutionLog); n > 0 {
		metrics.RecordGenerations(n - 1)
	}
	metrics.RecordAnnealingIterations(len(res.AnnealingTrace))
	log.Info(ctx, "solve finished",
		logger.Int("events", len(res.DebugEvents)),
		logger.Float64("score", res.Score),
		logger.Int("hard", res.HardCount),
		logger.Int("unplayable", res.UnplayableCount),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}
