// Package repository keeps the state and results of solve jobs.
package repository

import (
	"context"
	"time"

	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/internal/domain/solver"
)

// Status is the lifecycle stage of a job.
type Status string

// Job statuses. A job moves pending -> running -> done or failed.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Finished reports whether no further transition is possible.
func (s Status) Finished() bool { return s == StatusDone || s == StatusFailed }

// Record is a stored job.
type Record struct {
	ID          string         `json:"id"`
	Strategy    string         `json:"strategy,omitempty"`
	Status      Status         `json:"status"`
	Events      int            `json:"events"`
	SubmittedAt time.Time      `json:"submittedAt"`
	StartedAt   time.Time      `json:"startedAt,omitzero"`
	FinishedAt  time.Time      `json:"finishedAt,omitzero"`
	Result      *solver.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Store provides read/write access to job records.
type Store interface {
	// Create records a new pending job. Returns ErrDuplicate if the id is taken.
	Create(ctx context.Context, job model.Job) error
	// Start marks a pending job as running.
	Start(ctx context.Context, id string) error
	// Complete stores the result of a running job.
	Complete(ctx context.Context, id string, res solver.Result) error
	// Fail stores the error of a pending or running job.
	Fail(ctx context.Context, id string, cause error) error
	// Delete drops a record so that its id can be reused, e.g. when the job
	// could not be queued.
	Delete(ctx context.Context, id string) error
	// Get returns a copy of the record. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (Record, error)
	// Count returns the number of records held.
	Count(ctx context.Context) int
	// Counts returns the number of records per status.
	Counts(ctx context.Context) map[Status]int
}
