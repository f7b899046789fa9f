// Package loadtest drives a running fingering service with generated
// performances and checks the results it returns.
package loadtest

import (
	"runtime"
	"time"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // base URL of the service
	Jobs         int           // number of performances to submit
	MinEvents    int           // events per performance, lower bound
	MaxEvents    int           // events per performance, upper bound
	Strategies   []string      // assigned round-robin; empty uses the service default
	Workers      int           // concurrent HTTP clients
	Timeout      time.Duration // per-request timeout
	PollInterval time.Duration // delay between status polls
	PollTimeout  time.Duration // how long to wait for all jobs to finish
	Seed         uint64        // generator seed
	OutputFile   string        // optional: write generated requests here
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:9080",
		Jobs:         200,
		MinEvents:    16,
		MaxEvents:    64,
		Workers:      runtime.NumCPU() * 2,
		Timeout:      10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		PollTimeout:  2 * time.Minute,
		Seed:         1,
	}
}

// Stats summarises a run.
type Stats struct {
	Generated    int           `json:"generated"`
	Accepted     int           `json:"accepted"`
	Backpressure int           `json:"backpressure"`
	Rejected     int           `json:"rejected"`
	Done         int           `json:"done"`
	Failed       int           `json:"failed"`
	Pending      int           `json:"pending"`
	Violations   int           `json:"violations"`
	MeanScore    float64       `json:"meanScore"`
	Unplayable   int           `json:"unplayable"`
	Duration     time.Duration `json:"duration"`
	JobsPerSec   float64       `json:"jobsPerSecond"`
}
