package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/akademika/timetable-engine/internal/models"
)

// RunRepository persists pipeline run records.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new pipeline run, minting the identifier when absent.
func (r *RunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.DatasetID == "" {
		return fmt.Errorf("dataset_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunPending
	}
	if len(run.Detail) == 0 {
		run.Detail = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	const query = `
INSERT INTO pipeline_runs (id, dataset_id, status, solver, difficulty, accepted, detail, created_at, updated_at)
VALUES (:id, :dataset_id, :status, :solver, :difficulty, :accepted, :detail, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// UpdateResult records the terminal state of a run.
func (r *RunRepository) UpdateResult(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	run.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE pipeline_runs
SET status = :status, solver = :solver, difficulty = :difficulty, accepted = :accepted,
    detail = :detail, updated_at = :updated_at
WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run)
	if err != nil {
		return fmt.Errorf("update pipeline run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pipeline run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	const query = `SELECT id, dataset_id, status, solver, difficulty, accepted, detail, created_at, updated_at
FROM pipeline_runs WHERE id = $1`
	var run models.PipelineRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs matching the filter, newest first, with the total count.
func (r *RunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.PipelineRun, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if filter.DatasetID != "" {
		args = append(args, filter.DatasetID)
		conditions = append(conditions, fmt.Sprintf("dataset_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Accepted != nil {
		args = append(args, *filter.Accepted)
		conditions = append(conditions, fmt.Sprintf("accepted = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM pipeline_runs" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pipeline runs: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)

	listQuery := fmt.Sprintf(`SELECT id, dataset_id, status, solver, difficulty, accepted, detail, created_at, updated_at
FROM pipeline_runs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var runs []models.PipelineRun
	if err := r.db.SelectContext(ctx, &runs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list pipeline runs: %w", err)
	}
	return runs, total, nil
}
