package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	"github.com/akademika/timetable-engine/internal/solver"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
	"github.com/akademika/timetable-engine/pkg/jobs"
)

type runRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error
	UpdateResult(ctx context.Context, exec sqlx.ExtContext, run *models.PipelineRun) error
	FindByID(ctx context.Context, id string) (*models.PipelineRun, error)
	List(ctx context.Context, filter models.RunFilter) ([]models.PipelineRun, int, error)
}

type datasetReader interface {
	Load(ctx context.Context, id string) (*models.Dataset, error)
}

type complexityProfiler interface {
	Profile(dataset *models.Dataset) models.ComplexityProfile
}

type solverSelector interface {
	Select(profile models.ComplexityProfile) models.SolverSelection
	Lookup(name string) (solver.Solver, bool)
}

type scheduleValidator interface {
	Validate(assignment *models.ScheduleAssignment, dataset *models.Dataset) models.ValidationReport
}

type thresholdGate interface {
	Decide(report *models.ValidationReport) models.ThresholdDecision
}

type pipelineObserver interface {
	ObservePipelineRun(solver, difficulty string, accepted bool, duration time.Duration)
	ObservePipelineStage(stage string, duration time.Duration)
	ObserveViolations(kind string, count int)
}

// PipelineService orchestrates the decision layer: profile the dataset, pick a
// solver, solve, validate the result and gate it. Stage faults downgrade the
// run; only a missing dataset fails it outright.
type PipelineService struct {
	runs      runRepository
	datasets  datasetReader
	profiler  complexityProfiler
	selector  solverSelector
	validator scheduleValidator
	gate      thresholdGate
	observer  pipelineObserver
	validate  *validator.Validate
	logger    *zap.Logger
	queue     *jobs.Queue
}

// NewPipelineService wires pipeline dependencies. The async queue is started
// lazily on the first asynchronous run.
func NewPipelineService(
	runs runRepository,
	datasets datasetReader,
	profiler complexityProfiler,
	selector solverSelector,
	scheduleVal scheduleValidator,
	gate thresholdGate,
	observer pipelineObserver,
	validate *validator.Validate,
	logger *zap.Logger,
) *PipelineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PipelineService{
		runs:      runs,
		datasets:  datasets,
		profiler:  profiler,
		selector:  selector,
		validator: scheduleVal,
		gate:      gate,
		observer:  observer,
		validate:  validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("pipeline-runs", s.handleAsyncRun, jobs.QueueConfig{
		Workers:        2,
		HandlerTimeout: 10 * time.Minute,
		Logger:         logger,
	})
	return s
}

// StartWorkers begins async run consumption. Safe to call once at boot.
func (s *PipelineService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains the async queue.
func (s *PipelineService) StopWorkers() {
	s.queue.Stop()
}

// Execute runs the pipeline for a stored dataset. Synchronous runs return the
// terminal record; asynchronous runs return the PENDING record immediately.
func (s *PipelineService) Execute(ctx context.Context, req dto.RunRequest) (*dto.RunResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pipeline run payload")
	}

	dataset, err := s.datasets.Load(ctx, req.DatasetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrDatasetNotFound, fmt.Sprintf("dataset %s not found", req.DatasetID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dataset")
	}

	if req.SolverOverride != "" {
		if _, ok := s.selector.Lookup(req.SolverOverride); !ok {
			return nil, appErrors.Clone(appErrors.ErrSolverUnknown, fmt.Sprintf("solver %q is not registered", req.SolverOverride))
		}
	}

	run := &models.PipelineRun{
		ID:        uuid.NewString(),
		DatasetID: req.DatasetID,
		Status:    models.RunPending,
	}
	if err := s.runs.Create(ctx, nil, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pipeline run")
	}

	if req.Async {
		if err := s.queue.Enqueue(jobs.Job{
			ID:   run.ID,
			Type: "pipeline_run",
			Payload: asyncRunPayload{
				RunID:          run.ID,
				DatasetID:      req.DatasetID,
				SolverOverride: req.SolverOverride,
			},
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue pipeline run")
		}
		return runToResponse(run, false), nil
	}

	s.runStages(ctx, run, dataset, req.SolverOverride)
	return runToResponse(run, true), nil
}

type asyncRunPayload struct {
	RunID          string
	DatasetID      string
	SolverOverride string
}

func (s *PipelineService) handleAsyncRun(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(asyncRunPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}

	run, err := s.runs.FindByID(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("load pipeline run %s: %w", payload.RunID, err)
	}

	dataset, err := s.datasets.Load(ctx, payload.DatasetID)
	if err != nil {
		s.finishRun(ctx, run, models.RunFailed, &models.RunDetail{Error: fmt.Sprintf("dataset %s unavailable: %v", payload.DatasetID, err)})
		return nil
	}

	s.runStages(ctx, run, dataset, payload.SolverOverride)
	return nil
}

// runStages drives the five pipeline stages and records the terminal state on
// the run. The run record is always left in COMPLETED or FAILED.
func (s *PipelineService) runStages(ctx context.Context, run *models.PipelineRun, dataset *models.Dataset, solverOverride string) {
	started := time.Now()
	run.Status = models.RunRunning

	detail := &models.RunDetail{}

	profileStart := time.Now()
	profile := s.profiler.Profile(dataset)
	s.observeStage("profile", time.Since(profileStart))
	detail.Profile = &profile
	run.Difficulty = string(profile.Difficulty)

	selectStart := time.Now()
	selection := s.selector.Select(profile)
	s.observeStage("select", time.Since(selectStart))
	if solverOverride != "" {
		selection.SolverName = solverOverride
		selection.Rationale = fmt.Sprintf("Solver %s forced by request", solverOverride)
	}
	detail.Selection = &selection
	run.Solver = selection.SolverName

	entry, ok := s.selector.Lookup(selection.SolverName)
	if !ok {
		detail.Error = fmt.Sprintf("selected solver %q is not registered", selection.SolverName)
		s.finishRun(ctx, run, models.RunFailed, detail)
		return
	}

	solveStart := time.Now()
	assignment, err := entry.Solve(ctx, dataset)
	s.observeStage("solve", time.Since(solveStart))
	if err != nil {
		detail.Error = fmt.Sprintf("solver %s: %v", selection.SolverName, err)
		s.finishRun(ctx, run, models.RunFailed, detail)
		return
	}
	detail.Assignment = assignment

	validateStart := time.Now()
	report := s.validator.Validate(assignment, dataset)
	s.observeStage("validate", time.Since(validateStart))
	detail.Report = &report
	s.observeViolations(report.Violations)

	gateStart := time.Now()
	decision := s.gate.Decide(&report)
	s.observeStage("gate", time.Since(gateStart))
	detail.Decision = &decision
	run.Accepted = decision.Accepted

	s.finishRun(ctx, run, models.RunCompleted, detail)

	if s.observer != nil {
		s.observer.ObservePipelineRun(run.Solver, run.Difficulty, run.Accepted, time.Since(started))
	}
	s.logger.Info("pipeline run finished",
		zap.String("run_id", run.ID),
		zap.String("dataset_id", run.DatasetID),
		zap.String("solver", run.Solver),
		zap.String("difficulty", run.Difficulty),
		zap.Bool("accepted", run.Accepted),
		zap.Duration("elapsed", time.Since(started)),
	)
}

func (s *PipelineService) observeStage(name string, d time.Duration) {
	if s.observer != nil {
		s.observer.ObservePipelineStage(name, d)
	}
}

func (s *PipelineService) observeViolations(violations []models.Violation) {
	if s.observer == nil {
		return
	}
	counts := make(map[string]int)
	for _, v := range violations {
		counts[string(v.Kind)]++
	}
	for kind, count := range counts {
		s.observer.ObserveViolations(kind, count)
	}
}

func (s *PipelineService) finishRun(ctx context.Context, run *models.PipelineRun, status models.RunStatus, detail *models.RunDetail) {
	run.Status = status

	payload, err := json.Marshal(detail)
	if err != nil {
		s.logger.Error("failed to encode run detail", zap.String("run_id", run.ID), zap.Error(err))
		payload = []byte(`{}`)
	}
	run.Detail = types.JSONText(payload)

	if err := s.runs.UpdateResult(ctx, nil, run); err != nil {
		s.logger.Error("failed to persist run result", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// GetRun loads a run with its stored detail.
func (s *PipelineService) GetRun(ctx context.Context, id string) (*dto.RunResponse, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRunNotFound, fmt.Sprintf("pipeline run %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pipeline run")
	}
	return runToResponse(run, true), nil
}

// ListRuns returns runs matching the query, newest first.
func (s *PipelineService) ListRuns(ctx context.Context, query dto.RunListQuery) ([]dto.RunResponse, int, error) {
	filter := models.RunFilter{
		DatasetID: query.DatasetID,
		Accepted:  query.Accepted,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status := models.RunStatus(query.Status)
		switch status {
		case models.RunPending, models.RunRunning, models.RunCompleted, models.RunFailed:
			filter.Status = &status
		default:
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown run status %q", query.Status))
		}
	}

	runs, total, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pipeline runs")
	}

	out := make([]dto.RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, *runToResponse(&runs[i], false))
	}
	return out, total, nil
}

func runToResponse(run *models.PipelineRun, includeDetail bool) *dto.RunResponse {
	resp := &dto.RunResponse{
		ID:         run.ID,
		DatasetID:  run.DatasetID,
		Status:     run.Status,
		Solver:     run.Solver,
		Difficulty: run.Difficulty,
		Accepted:   run.Accepted,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
	if includeDetail && len(run.Detail) > 0 {
		var detail models.RunDetail
		if err := json.Unmarshal(run.Detail, &detail); err == nil {
			resp.Detail = &detail
		}
	}
	return resp
}
