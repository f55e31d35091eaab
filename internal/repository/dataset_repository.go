package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika/timetable-engine/internal/models"
)

// DatasetRepository persists reference dataset snapshots.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository constructs repository.
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create inserts a dataset snapshot, minting the identifier when absent.
func (r *DatasetRepository) Create(ctx context.Context, record *models.DatasetRecord) error {
	if record == nil {
		return fmt.Errorf("dataset payload is nil")
	}
	if len(record.Payload) == 0 {
		return fmt.Errorf("dataset payload is empty")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO datasets (id, institution_name, payload, course_count, faculty_count, room_count, time_slot_count, batch_count, created_at)
VALUES (:id, :institution_name, :payload, :course_count, :faculty_count, :room_count, :time_slot_count, :batch_count, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, record); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// FindByID loads a dataset snapshot by its identifier.
func (r *DatasetRepository) FindByID(ctx context.Context, id string) (*models.DatasetRecord, error) {
	const query = `SELECT id, institution_name, payload, course_count, faculty_count, room_count, time_slot_count, batch_count, created_at
FROM datasets WHERE id = $1`
	var record models.DatasetRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns dataset snapshots, newest first.
func (r *DatasetRepository) List(ctx context.Context, page, pageSize int) ([]models.DatasetRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM datasets`); err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	const query = `SELECT id, institution_name, payload, course_count, faculty_count, room_count, time_slot_count, batch_count, created_at
FROM datasets ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var records []models.DatasetRecord
	if err := r.db.SelectContext(ctx, &records, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	return records, total, nil
}

// Delete removes a dataset snapshot.
func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dataset rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
