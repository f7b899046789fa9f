package engine

import (
	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStrategy sets the default strategy. Greedy is used otherwise.
func WithStrategy(kind solver.Kind) Option {
	return func(e *Engine) {
		e.kind = kind
	}
}

// WithConfig replaces the solver configuration.
func WithConfig(cfg solver.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithMapping sets the note-to-pad lookup.
func WithMapping(m grid.Mapping) Option {
	return func(e *Engine) {
		e.mapping = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
