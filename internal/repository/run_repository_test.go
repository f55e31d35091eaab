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

func newRunRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pipeline_runs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.PipelineRun{DatasetID: "ds-1"}
	require.NoError(t, repo.Create(context.Background(), nil, run))

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunPending, run.Status)
	assert.Equal(t, types.JSONText(`{}`), run.Detail)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryCreateRequiresDataset(t *testing.T) {
	db, _, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	err := repo.Create(context.Background(), nil, &models.PipelineRun{})
	assert.Error(t, err)
}

func TestRunRepositoryUpdateResult(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pipeline_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	run := &models.PipelineRun{
		ID:         "run-1",
		DatasetID:  "ds-1",
		Status:     models.RunCompleted,
		Solver:     "Greedy Best-Fit",
		Difficulty: "SIMPLE",
		Accepted:   true,
		Detail:     types.JSONText(`{}`),
	}
	require.NoError(t, repo.UpdateResult(context.Background(), nil, run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryUpdateResultNotFound(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pipeline_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateResult(context.Background(), nil, &models.PipelineRun{ID: "missing", Detail: types.JSONText(`{}`)})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "dataset_id", "status", "solver", "difficulty", "accepted", "detail", "created_at", "updated_at"}).
		AddRow("run-1", "ds-1", string(models.RunCompleted), "Greedy Best-Fit", "SIMPLE", true, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM pipeline_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.FindByID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, run.Status)
	assert.True(t, run.Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pipeline_runs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	status := models.RunCompleted
	accepted := true

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pipeline_runs WHERE dataset_id = $1 AND status = $2 AND accepted = $3")).
		WithArgs("ds-1", status, accepted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "dataset_id", "status", "solver", "difficulty", "accepted", "detail", "created_at", "updated_at"}).
		AddRow("run-1", "ds-1", string(status), "Greedy Best-Fit", "SIMPLE", true, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("ds-1", status, accepted, 10, 0).
		WillReturnRows(rows)

	runs, total, err := repo.List(context.Background(), models.RunFilter{
		DatasetID: "ds-1",
		Status:    &status,
		Accepted:  &accepted,
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, runs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryListDefaultsPaging(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pipeline_runs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dataset_id", "status", "solver", "difficulty", "accepted", "detail", "created_at", "updated_at"}))

	runs, total, err := repo.List(context.Background(), models.RunFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
