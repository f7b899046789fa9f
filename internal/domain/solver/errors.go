package solver

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrUnknownSolverType is returned when a strategy identifier is not one
	// of the known kinds.
	ErrUnknownSolverType = errors.New("unknown solver type")
	// ErrUnsupportedSolverMode is returned by a synchronous call against a
	// strategy that only runs asynchronously.
	ErrUnsupportedSolverMode = errors.New("unsupported solver mode")
	ErrInvalidConfig         = errors.New("invalid engine config")
	ErrInvalidAssignment     = errors.New("invalid manual assignment")
)
