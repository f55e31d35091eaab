package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
	"github.com/akademika/timetable-engine/pkg/export"
	"github.com/akademika/timetable-engine/pkg/storage"
)

type exportRunReader interface {
	GetRun(ctx context.Context, id string) (*dto.RunResponse, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Table, title string) ([]byte, error)
}

// ExportService renders completed pipeline runs into downloadable files.
type ExportService struct {
	runs    exportRunReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(runs exportRunReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		runs:    runs,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the run in the requested format and stores the file.
func (s *ExportService) Generate(ctx context.Context, runID string, format models.ExportFormat) (*ExportResult, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.RunCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("run %s is %s, only completed runs can be exported", runID, run.Status))
	}
	if run.Detail == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("run %s has no stored detail", runID))
	}

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(assignmentTable(run.Detail.Assignment))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(assignmentTable(run.Detail.Assignment), fmt.Sprintf("Timetable %s", run.ID))
	case models.ExportFormatJSON:
		payload, err = renderRunJSON(run)
	case models.ExportFormatText:
		payload = renderRunText(run)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := buildExportFilename(run.ID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(run.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (runID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildExportFilename(runID string, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ext := string(format)
	if format == models.ExportFormatText {
		ext = "txt"
	}
	return fmt.Sprintf("run_%s_%s.%s", sanitizeFilename(runID), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func assignmentTable(assignment *models.ScheduleAssignment) export.Table {
	headers := []string{"Course", "Faculty", "Room", "Day", "Time", "Batch", "Session"}
	if assignment == nil {
		return export.Table{Headers: headers}
	}

	entries := make([]models.AssignmentEntry, len(assignment.Entries))
	copy(entries, assignment.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day < entries[j].Day
		}
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].RoomID < entries[j].RoomID
	})

	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Course":  labelOr(entry.CourseName, entry.CourseID),
			"Faculty": labelOr(entry.FacultyName, entry.FacultyID),
			"Room":    labelOr(entry.RoomName, entry.RoomID),
			"Day":     entry.Day,
			"Time":    formatSlotTime(entry),
			"Batch":   labelOr(entry.BatchName, entry.BatchID),
			"Session": string(entry.Session),
		})
	}
	return export.Table{Headers: headers, Rows: rows}
}

func renderRunJSON(run *dto.RunResponse) ([]byte, error) {
	summary := map[string]any{
		"run_id":     run.ID,
		"dataset_id": run.DatasetID,
		"status":     run.Status,
		"solver":     run.Solver,
		"difficulty": run.Difficulty,
		"accepted":   run.Accepted,
		"created_at": run.CreatedAt,
		"detail":     run.Detail,
	}
	return json.MarshalIndent(summary, "", "  ")
}

func renderRunText(run *dto.RunResponse) []byte {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 30)

	b.WriteString("TIMETABLE VALIDATION REPORT\n")
	b.WriteString(line + "\n\n")
	b.WriteString(fmt.Sprintf("Run ID: %s\n", run.ID))
	b.WriteString(fmt.Sprintf("Dataset ID: %s\n", run.DatasetID))
	b.WriteString(fmt.Sprintf("Solver: %s\n", run.Solver))
	b.WriteString(fmt.Sprintf("Difficulty: %s\n", run.Difficulty))
	b.WriteString(fmt.Sprintf("Generated: %s\n", run.CreatedAt.UTC().Format("2006-01-02 15:04:05")))

	if report := run.Detail.Report; report != nil {
		b.WriteString(fmt.Sprintf("Overall Status: %s\n\n", report.Status))

		b.WriteString("VIOLATION SUMMARY:\n")
		b.WriteString(sub + "\n")
		b.WriteString(fmt.Sprintf("Total Violations: %d\n", report.TotalViolations))
		b.WriteString(fmt.Sprintf("Critical Violations: %d\n", report.CriticalViolations))
		b.WriteString(fmt.Sprintf("Warning Violations: %d\n\n", report.WarningViolations))

		b.WriteString("QUALITY METRICS:\n")
		b.WriteString(sub + "\n")
		b.WriteString(fmt.Sprintf("Quality Score: %.2f\n", report.QualityScore))
		b.WriteString(fmt.Sprintf("Feasibility Score: %.2f\n", report.FeasibilityScore))
		b.WriteString(fmt.Sprintf("Weighted Score: %.2f\n\n", report.WeightedScore))
	}

	if decision := run.Detail.Decision; decision != nil {
		verdict := "FAIL"
		if decision.Accepted {
			verdict = "PASS"
		}
		b.WriteString("THRESHOLD ANALYSIS: " + verdict + "\n")
		b.WriteString(sub + "\n")
		for _, check := range decision.Checks {
			status := "FAIL"
			if check.Passed {
				status = "PASS"
			}
			b.WriteString(fmt.Sprintf("%s: %.4f (limit %.4f) [%s]\n", titleCase(check.Name), check.Value, check.Limit, status))
		}
		b.WriteString("\n")
	}

	if report := run.Detail.Report; report != nil && report.CriticalViolations > 0 {
		b.WriteString("CRITICAL VIOLATIONS (Top 10):\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		count := 0
		for _, violation := range report.Violations {
			if !violation.Critical {
				continue
			}
			count++
			b.WriteString(fmt.Sprintf("%d. %s\n", count, violation.Description))
			b.WriteString(fmt.Sprintf("   Fix: %s\n\n", violation.Remediation))
			if count == 10 {
				break
			}
		}
	}

	return []byte(b.String())
}

func labelOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func formatSlotTime(entry models.AssignmentEntry) string {
	if entry.StartTime == "" && entry.EndTime == "" {
		return entry.TimeSlotID
	}
	return entry.StartTime + "-" + entry.EndTime
}

func titleCase(raw string) string {
	parts := strings.Split(raw, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
