package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	"github.com/akademika/timetable-engine/internal/solver"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
)

type mockRunRepo struct {
	created   []*models.PipelineRun
	updated   []*models.PipelineRun
	updatedCh chan *models.PipelineRun
	findRun   *models.PipelineRun
	listRuns  []models.PipelineRun
	listTotal int

	createErr error
	updateErr error
	findErr   error
	listErr   error
}

func (m *mockRunRepo) Create(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, run)
	return nil
}

func (m *mockRunRepo) UpdateResult(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, run)
	if m.updatedCh != nil {
		select {
		case m.updatedCh <- run:
		default:
		}
	}
	return nil
}

func (m *mockRunRepo) FindByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.findRun, nil
}

func (m *mockRunRepo) List(ctx context.Context, filter models.RunFilter) ([]models.PipelineRun, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listRuns, m.listTotal, nil
}

type mockDatasetReader struct {
	dataset *models.Dataset
	err     error
}

func (m *mockDatasetReader) Load(ctx context.Context, id string) (*models.Dataset, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

type mockProfiler struct {
	profile models.ComplexityProfile
}

func (m *mockProfiler) Profile(dataset *models.Dataset) models.ComplexityProfile {
	return m.profile
}

type fakeSolver struct {
	name   string
	result *models.ScheduleAssignment
	err    error
}

func (f *fakeSolver) Name() string                            { return f.name }
func (f *fakeSolver) PreferredRanges() solver.PreferredRanges { return solver.PreferredRanges{} }
func (f *fakeSolver) SuitabilityThreshold() float64           { return 10 }
func (f *fakeSolver) Solve(ctx context.Context, dataset *models.Dataset) (*models.ScheduleAssignment, error) {
	return f.result, f.err
}

type mockSelector struct {
	selection models.SolverSelection
	solvers   map[string]solver.Solver
}

func (m *mockSelector) Select(profile models.ComplexityProfile) models.SolverSelection {
	return m.selection
}

func (m *mockSelector) Lookup(name string) (solver.Solver, bool) {
	s, ok := m.solvers[name]
	return s, ok
}

type mockValidator struct {
	report models.ValidationReport
}

func (m *mockValidator) Validate(assignment *models.ScheduleAssignment, dataset *models.Dataset) models.ValidationReport {
	return m.report
}

type mockGate struct {
	decision models.ThresholdDecision
}

func (m *mockGate) Decide(report *models.ValidationReport) models.ThresholdDecision {
	return m.decision
}

type mockObserver struct {
	stages     []string
	runs       int
	violations map[string]int
}

func (m *mockObserver) ObservePipelineRun(solverName, difficulty string, accepted bool, duration time.Duration) {
	m.runs++
}

func (m *mockObserver) ObservePipelineStage(stage string, duration time.Duration) {
	m.stages = append(m.stages, stage)
}

func (m *mockObserver) ObserveViolations(kind string, count int) {
	if m.violations == nil {
		m.violations = make(map[string]int)
	}
	m.violations[kind] += count
}

type pipelineFixture struct {
	svc      *PipelineService
	runs     *mockRunRepo
	datasets *mockDatasetReader
	selector *mockSelector
	observer *mockObserver
}

func newPipelineFixture() *pipelineFixture {
	engine := &fakeSolver{
		name:   "Greedy Best-Fit",
		result: &models.ScheduleAssignment{Status: models.SolveSuccess, Entries: []models.AssignmentEntry{{CourseID: "C1"}}},
	}
	runs := &mockRunRepo{}
	datasets := &mockDatasetReader{dataset: &models.Dataset{ID: "ds-1"}}
	sel := &mockSelector{
		selection: models.SolverSelection{SolverName: engine.name, Score: 0.9, Confidence: 0.8},
		solvers:   map[string]solver.Solver{engine.name: engine},
	}
	observer := &mockObserver{}

	svc := NewPipelineService(
		runs,
		datasets,
		&mockProfiler{profile: models.ComplexityProfile{Overall: 2.5, Difficulty: models.DifficultySimple}},
		sel,
		&mockValidator{report: models.ValidationReport{Status: models.ReportPass, EntryCount: 1, QualityScore: 10, FeasibilityScore: 1}},
		&mockGate{decision: models.ThresholdDecision{Accepted: true}},
		observer,
		nil,
		zap.NewNop(),
	)
	return &pipelineFixture{svc: svc, runs: runs, datasets: datasets, selector: sel, observer: observer}
}

func TestPipelineServiceExecuteSyncSuccess(t *testing.T) {
	f := newPipelineFixture()

	res, err := f.svc.Execute(context.Background(), dto.RunRequest{DatasetID: "ds-1"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, models.RunCompleted, res.Status)
	assert.Equal(t, "Greedy Best-Fit", res.Solver)
	assert.Equal(t, string(models.DifficultySimple), res.Difficulty)
	assert.True(t, res.Accepted)
	require.NotNil(t, res.Detail)
	assert.NotNil(t, res.Detail.Profile)
	assert.NotNil(t, res.Detail.Selection)
	assert.NotNil(t, res.Detail.Report)
	assert.NotNil(t, res.Detail.Decision)

	require.Len(t, f.runs.created, 1)
	require.Len(t, f.runs.updated, 1)
	assert.Equal(t, models.RunCompleted, f.runs.updated[0].Status)

	assert.Equal(t, []string{"profile", "select", "solve", "validate", "gate"}, f.observer.stages)
	assert.Equal(t, 1, f.observer.runs)
}

func TestPipelineServiceExecuteMissingDataset(t *testing.T) {
	f := newPipelineFixture()
	f.datasets.err = sql.ErrNoRows

	_, err := f.svc.Execute(context.Background(), dto.RunRequest{DatasetID: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDatasetNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.runs.created)
}

func TestPipelineServiceExecuteUnknownOverride(t *testing.T) {
	f := newPipelineFixture()

	_, err := f.svc.Execute(context.Background(), dto.RunRequest{DatasetID: "ds-1", SolverOverride: "Simulated Annealing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSolverUnknown.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.runs.created)
}

func TestPipelineServiceExecuteOverrideForcesSolver(t *testing.T) {
	f := newPipelineFixture()
	forced := &fakeSolver{name: "Constraint Propagation", result: &models.ScheduleAssignment{Status: models.SolveSuccess}}
	f.selector.solvers[forced.name] = forced

	res, err := f.svc.Execute(context.Background(), dto.RunRequest{DatasetID: "ds-1", SolverOverride: forced.name})
	require.NoError(t, err)
	assert.Equal(t, forced.name, res.Solver)
	require.NotNil(t, res.Detail)
	assert.Contains(t, res.Detail.Selection.Rationale, "forced by request")
}

func TestPipelineServiceExecuteSolverFaultDowngradesRun(t *testing.T) {
	f := newPipelineFixture()
	f.selector.solvers["Greedy Best-Fit"] = &fakeSolver{name: "Greedy Best-Fit", err: errors.New("boom")}

	res, err := f.svc.Execute(context.Background(), dto.RunRequest{DatasetID: "ds-1"})
	require.NoError(t, err)

	assert.Equal(t, models.RunFailed, res.Status)
	require.NotNil(t, res.Detail)
	assert.Contains(t, res.Detail.Error, "boom")
	assert.Nil(t, res.Detail.Report)
	require.Len(t, f.runs.updated, 1)
	assert.Equal(t, models.RunFailed, f.runs.updated[0].Status)
}

func TestPipelineServiceExecuteValidatesRequest(t *testing.T) {
	f := newPipelineFixture()

	_, err := f.svc.Execute(context.Background(), dto.RunRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPipelineServiceExecuteAsyncReturnsPending(t *testing.T) {
	f := newPipelineFixture()
	f.runs.updatedCh = make(chan *models.PipelineRun, 4)
	f.runs.findRun = &models.PipelineRun{ID: "run-async", DatasetID: "ds-1", Status: models.RunPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.StartWorkers(ctx)
	defer f.svc.StopWorkers()

	res, err := f.svc.Execute(ctx, dto.RunRequest{DatasetID: "ds-1", Async: true})
	require.NoError(t, err)
	assert.Equal(t, models.RunPending, res.Status)
	assert.Nil(t, res.Detail)

	select {
	case run := <-f.runs.updatedCh:
		assert.Equal(t, models.RunCompleted, run.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("async run never finished")
	}
}

func TestPipelineServiceGetRunNotFound(t *testing.T) {
	f := newPipelineFixture()
	f.runs.findErr = sql.ErrNoRows

	_, err := f.svc.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRunNotFound.Code, appErrors.FromError(err).Code)
}

func TestPipelineServiceGetRunDecodesDetail(t *testing.T) {
	f := newPipelineFixture()
	f.runs.findRun = &models.PipelineRun{
		ID:     "run-1",
		Status: models.RunCompleted,
		Detail: []byte(`{"error":"solver Greedy Best-Fit: boom"}`),
	}

	res, err := f.svc.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, res.Detail)
	assert.Contains(t, res.Detail.Error, "boom")
}

func TestPipelineServiceListRunsRejectsUnknownStatus(t *testing.T) {
	f := newPipelineFixture()

	_, _, err := f.svc.ListRuns(context.Background(), dto.RunListQuery{Status: "BOGUS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPipelineServiceListRunsOmitsDetail(t *testing.T) {
	f := newPipelineFixture()
	f.runs.listRuns = []models.PipelineRun{
		{ID: "run-1", Status: models.RunCompleted, Detail: []byte(`{"error":"x"}`)},
	}
	f.runs.listTotal = 1

	items, total, err := f.svc.ListRuns(context.Background(), dto.RunListQuery{Status: "COMPLETED"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Detail)
}
