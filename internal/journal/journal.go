// Package journal records pipeline run history: one record per run plus one
// record per executed operator. Stores are queried by the surrounding
// application to show past reconstructions and their timings.
package journal

import (
	"errors"
	"time"
)

var (
	// ErrRunNotFound is returned when a run record is not found.
	ErrRunNotFound = errors.New("run not found")
)

// Status is the journaled lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// RunRecord describes one pipeline run.
type RunRecord struct {
	ID        string
	Status    Status
	Operators int

	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in flight
}

// OperatorRecord describes one executed operator within a run.
type OperatorRecord struct {
	RunID    string
	Index    int
	Label    string
	Result   string
	Duration time.Duration

	CompletedAt time.Time
}

// RunFilter selects run records. Zero values mean "no filter".
type RunFilter struct {
	Status Status
}

// Store persists run history.
type Store interface {
	// SaveRun inserts a new run record.
	SaveRun(rec *RunRecord) error

	// FinishRun marks a run terminal with the given status and finish
	// time. It returns ErrRunNotFound for unknown IDs.
	FinishRun(id string, status Status, finishedAt time.Time) error

	// AppendOperator records one executed operator for a run.
	AppendOperator(rec *OperatorRecord) error

	// GetRun returns the run record for id, or ErrRunNotFound.
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns run records matching the filter, most recent
	// submissions included; ordering is store-specific.
	ListRuns(filter RunFilter) ([]*RunRecord, error)

	// ListOperators returns the operator records for a run in execution
	// order.
	ListOperators(runID string) ([]*OperatorRecord, error)
}
