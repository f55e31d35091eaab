package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
)

type datasetRecordRepository interface {
	Create(ctx context.Context, record *models.DatasetRecord) error
	FindByID(ctx context.Context, id string) (*models.DatasetRecord, error)
	List(ctx context.Context, page, pageSize int) ([]models.DatasetRecord, int, error)
	Delete(ctx context.Context, id string) error
}

type datasetCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// DatasetService ingests and serves reference dataset snapshots. Snapshots are
// immutable once stored; re-uploading produces a new dataset id.
type DatasetService struct {
	records  datasetRecordRepository
	cache    datasetCache
	cacheTTL time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDatasetService wires dataset dependencies.
func NewDatasetService(records datasetRecordRepository, cache datasetCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *DatasetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &DatasetService{records: records, cache: cache, cacheTTL: cacheTTL, validate: validate, logger: logger}
}

// Create stores a JSON dataset snapshot.
func (s *DatasetService) Create(ctx context.Context, req dto.CreateDatasetRequest) (*dto.DatasetResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dataset payload")
	}

	dataset := &models.Dataset{
		InstitutionName: req.InstitutionName,
		Courses:         req.Courses,
		Faculty:         req.Faculty,
		Rooms:           req.Rooms,
		TimeSlots:       req.TimeSlots,
		Batches:         req.Batches,
		HardConstraints: req.HardConstraints,
		SoftConstraints: req.SoftConstraints,
		LoadedAt:        time.Now().UTC(),
	}
	if err := checkDuplicateIdentifiers(dataset); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	return s.store(ctx, dataset)
}

// CreateFromCSV stores a dataset assembled from per-entity CSV files keyed by
// logical name (courses, faculty, rooms, time_slots, batches, constraints).
func (s *DatasetService) CreateFromCSV(ctx context.Context, institutionName string, files map[string]io.Reader) (*dto.DatasetResponse, error) {
	dataset := &models.Dataset{
		InstitutionName: institutionName,
		LoadedAt:        time.Now().UTC(),
	}

	for _, name := range []string{"courses", "faculty", "rooms", "time_slots", "batches"} {
		if _, ok := files[name]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required file %q", name))
		}
	}

	for name, reader := range files {
		rows, header, err := readCSV(reader)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q: %v", name, err))
		}
		if err := parseDatasetFile(dataset, name, header, rows); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q: %v", name, err))
		}
	}

	if err := checkDuplicateIdentifiers(dataset); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return s.store(ctx, dataset)
}

func (s *DatasetService) store(ctx context.Context, dataset *models.Dataset) (*dto.DatasetResponse, error) {
	payload, err := json.Marshal(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode dataset")
	}

	record := &models.DatasetRecord{
		InstitutionName: dataset.InstitutionName,
		Payload:         types.JSONText(payload),
		CourseCount:     len(dataset.Courses),
		FacultyCount:    len(dataset.Faculty),
		RoomCount:       len(dataset.Rooms),
		TimeSlotCount:   len(dataset.TimeSlots),
		BatchCount:      len(dataset.Batches),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store dataset")
	}

	s.logger.Info("dataset stored",
		zap.String("dataset_id", record.ID),
		zap.Int("courses", record.CourseCount),
		zap.Int("faculty", record.FacultyCount),
		zap.Int("rooms", record.RoomCount),
		zap.Int("time_slots", record.TimeSlotCount),
		zap.Int("batches", record.BatchCount),
	)
	return recordToResponse(record), nil
}

// Load materialises the dataset snapshot for pipeline consumption, via cache
// when available.
func (s *DatasetService) Load(ctx context.Context, id string) (*models.Dataset, error) {
	cacheKey := "dataset:" + id
	if s.cache != nil {
		var cached models.Dataset
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var dataset models.Dataset
	if err := json.Unmarshal(record.Payload, &dataset); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	dataset.ID = record.ID

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, &dataset, s.cacheTTL)
	}
	return &dataset, nil
}

// Get returns the stored snapshot summary.
func (s *DatasetService) Get(ctx context.Context, id string) (*dto.DatasetResponse, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dataset id is required")
	}
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrDatasetNotFound, fmt.Sprintf("dataset %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dataset")
	}
	return recordToResponse(record), nil
}

// List pages stored snapshots, newest first.
func (s *DatasetService) List(ctx context.Context, query dto.DatasetListQuery) ([]dto.DatasetResponse, int, error) {
	records, total, err := s.records.List(ctx, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list datasets")
	}
	out := make([]dto.DatasetResponse, 0, len(records))
	for i := range records {
		out = append(out, *recordToResponse(&records[i]))
	}
	return out, total, nil
}

// Delete removes a snapshot and evicts its cache entry.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrDatasetNotFound, fmt.Sprintf("dataset %s not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dataset")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "dataset:"+id)
	}
	return nil
}

func recordToResponse(record *models.DatasetRecord) *dto.DatasetResponse {
	return &dto.DatasetResponse{
		ID:              record.ID,
		InstitutionName: record.InstitutionName,
		CourseCount:     record.CourseCount,
		FacultyCount:    record.FacultyCount,
		RoomCount:       record.RoomCount,
		TimeSlotCount:   record.TimeSlotCount,
		BatchCount:      record.BatchCount,
		CreatedAt:       record.CreatedAt,
	}
}

// --- CSV parsing ---

var datasetFileColumns = map[string][]string{
	"courses":     {"course_id", "course_name"},
	"faculty":     {"faculty_id", "faculty_name"},
	"rooms":       {"room_id", "room_name", "capacity"},
	"time_slots":  {"timeslot_id", "day_of_week", "start_time", "end_time"},
	"batches":     {"batch_id", "batch_name", "student_count"},
	"constraints": {"constraint_id", "constraint_code", "kind"},
}

func readCSV(reader io.Reader) ([]map[string]string, []string, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func parseDatasetFile(dataset *models.Dataset, name string, header []string, rows []map[string]string) error {
	required, ok := datasetFileColumns[name]
	if !ok {
		return fmt.Errorf("unknown dataset file")
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range required {
		if !present[col] {
			return fmt.Errorf("missing required column %q", col)
		}
	}

	for i, row := range rows {
		switch name {
		case "courses":
			dataset.Courses = append(dataset.Courses, models.Course{
				ID:              row["course_id"],
				Name:            row["course_name"],
				SessionsPerWeek: atoiDefault(row["sessions_per_week"], 1),
				RequiredRoomID:  row["required_room_id"],
			})
		case "faculty":
			dataset.Faculty = append(dataset.Faculty, models.Faculty{
				ID:          row["faculty_id"],
				Name:        row["faculty_name"],
				Competences: splitList(row["competences"]),
				MaxLoad:     atoiDefault(row["max_weekly_load"], 0),
			})
		case "rooms":
			capacity, err := strconv.Atoi(row["capacity"])
			if err != nil {
				return fmt.Errorf("row %d: capacity %q is not an integer", i+2, row["capacity"])
			}
			dataset.Rooms = append(dataset.Rooms, models.Room{
				ID:        row["room_id"],
				Name:      row["room_name"],
				Capacity:  capacity,
				Equipment: splitList(row["equipment"]),
			})
		case "time_slots":
			dataset.TimeSlots = append(dataset.TimeSlots, models.TimeSlot{
				ID:        row["timeslot_id"],
				DayOfWeek: strings.ToUpper(row["day_of_week"]),
				StartTime: row["start_time"],
				EndTime:   row["end_time"],
			})
		case "batches":
			count, err := strconv.Atoi(row["student_count"])
			if err != nil {
				return fmt.Errorf("row %d: student_count %q is not an integer", i+2, row["student_count"])
			}
			dataset.Batches = append(dataset.Batches, models.Batch{
				ID:           row["batch_id"],
				Name:         row["batch_name"],
				StudentCount: count,
			})
		case "constraints":
			constraint := models.Constraint{
				ID:          row["constraint_id"],
				Code:        row["constraint_code"],
				Kind:        models.ConstraintKind(strings.ToUpper(row["kind"])),
				Description: row["description"],
			}
			switch constraint.Kind {
			case models.ConstraintHard:
				dataset.HardConstraints = append(dataset.HardConstraints, constraint)
			case models.ConstraintSoft:
				dataset.SoftConstraints = append(dataset.SoftConstraints, constraint)
			default:
				return fmt.Errorf("row %d: kind %q must be HARD or SOFT", i+2, row["kind"])
			}
		}
	}
	return nil
}

func checkDuplicateIdentifiers(dataset *models.Dataset) error {
	collections := []struct {
		name string
		ids  []string
	}{
		{"courses", collectIDs(len(dataset.Courses), func(i int) string { return dataset.Courses[i].ID })},
		{"faculty", collectIDs(len(dataset.Faculty), func(i int) string { return dataset.Faculty[i].ID })},
		{"rooms", collectIDs(len(dataset.Rooms), func(i int) string { return dataset.Rooms[i].ID })},
		{"time_slots", collectIDs(len(dataset.TimeSlots), func(i int) string { return dataset.TimeSlots[i].ID })},
		{"batches", collectIDs(len(dataset.Batches), func(i int) string { return dataset.Batches[i].ID })},
	}
	for _, collection := range collections {
		seen := make(map[string]bool, len(collection.ids))
		for _, id := range collection.ids {
			if id == "" {
				return fmt.Errorf("%s: identifier must not be empty", collection.name)
			}
			if seen[id] {
				return fmt.Errorf("%s: duplicate identifier %q", collection.name, id)
			}
			seen[id] = true
		}
	}
	return nil
}

func collectIDs(n int, get func(int) string) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = get(i)
	}
	return ids
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
