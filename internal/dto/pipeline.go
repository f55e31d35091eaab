package dto

import (
	"time"

	"github.com/akademika/timetable-engine/internal/models"
)

// RunRequest triggers a pipeline run over a stored dataset.
type RunRequest struct {
	DatasetID      string `json:"datasetId" validate:"required"`
	SolverOverride string `json:"solverOverride,omitempty"`
	Async          bool   `json:"async,omitempty"`
}

// RunResponse is the API view of a pipeline run.
type RunResponse struct {
	ID         string            `json:"id"`
	DatasetID  string            `json:"datasetId"`
	Status     models.RunStatus  `json:"status"`
	Solver     string            `json:"solver,omitempty"`
	Difficulty string            `json:"difficulty,omitempty"`
	Accepted   bool              `json:"accepted"`
	Detail     *models.RunDetail `json:"detail,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// RunListQuery filters the run listing endpoint.
type RunListQuery struct {
	DatasetID string `form:"datasetId"`
	Status    string `form:"status"`
	Accepted  *bool  `form:"accepted"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
