package repository

import "time"

// Option applies a configuration option to the JobStore.
type Option func(*JobStore)

// WithCapacity bounds the number of records. The oldest record is evicted
// when a new job would exceed it.
func WithCapacity(capacity int) Option {
	return func(s *JobStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *JobStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *JobStore) {
		if now != nil {
			s.now = now
		}
	}
}
