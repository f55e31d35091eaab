package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// PipelineRun records one dataset → profile → selection → solve → validate →
// gate execution.
type PipelineRun struct {
	ID         string         `db:"id" json:"id"`
	DatasetID  string         `db:"dataset_id" json:"dataset_id"`
	Status     RunStatus      `db:"status" json:"status"`
	Solver     string         `db:"solver" json:"solver"`
	Difficulty string         `db:"difficulty" json:"difficulty"`
	Accepted   bool           `db:"accepted" json:"accepted"`
	Detail     types.JSONText `db:"detail" json:"detail"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// RunDetail is the JSON payload stored alongside a completed run.
type RunDetail struct {
	Profile    *ComplexityProfile  `json:"complexity_profile,omitempty"`
	Selection  *SolverSelection    `json:"solver_selection,omitempty"`
	Assignment *ScheduleAssignment `json:"assignment,omitempty"`
	Report     *ValidationReport   `json:"validation_report,omitempty"`
	Decision   *ThresholdDecision  `json:"threshold_decision,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// RunFilter describes query params for listing pipeline runs.
type RunFilter struct {
	DatasetID string
	Status    *RunStatus
	Accepted  *bool
	Page      int
	PageSize  int
}
