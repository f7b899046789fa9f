package loader

import "errors"

// Sentinel error kinds for input decoding.
var (
	ErrInvalidJSON    = errors.New("invalid json")
	ErrInvalidEvent   = errors.New("invalid note event")
	ErrInvalidManual  = errors.New("invalid manual assignment")
	ErrInvalidMapping = errors.New("invalid grid mapping")
)
