package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademika/timetable-engine/internal/models"
)

func newDatasetRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDatasetRepositoryCreateMintsID(t *testing.T) {
	db, mock, cleanup := newDatasetRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO datasets")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.DatasetRecord{
		InstitutionName: "Test Institute",
		Payload:         types.JSONText(`{"courses":[]}`),
		CourseCount:     3,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryCreateRejectsEmptyPayload(t *testing.T) {
	db, _, cleanup := newDatasetRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	err := repo.Create(context.Background(), &models.DatasetRecord{})
	assert.Error(t, err)
}

func TestDatasetRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newDatasetRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	rows := sqlmock.NewRows([]string{"id", "institution_name", "payload", "course_count", "faculty_count", "room_count", "time_slot_count", "batch_count", "created_at"}).
		AddRow("ds-1", "Test Institute", types.JSONText(`{}`), 3, 2, 2, 8, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM datasets WHERE id = $1")).
		WithArgs("ds-1").
		WillReturnRows(rows)

	record, err := repo.FindByID(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Institute", record.InstitutionName)
	assert.Equal(t, 3, record.CourseCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryList(t *testing.T) {
	db, mock, cleanup := newDatasetRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM datasets")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{"id", "institution_name", "payload", "course_count", "faculty_count", "room_count", "time_slot_count", "batch_count", "created_at"}).
		AddRow("ds-2", "", types.JSONText(`{}`), 1, 1, 1, 1, 1, time.Now()).
		AddRow("ds-1", "", types.JSONText(`{}`), 1, 1, 1, 1, 1, time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(rows)

	records, total, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newDatasetRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM datasets WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
