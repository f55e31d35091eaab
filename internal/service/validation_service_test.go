package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

func validationDataset() *models.Dataset {
	return &models.Dataset{
		ID: "ds-1",
		Courses: []models.Course{
			{ID: "C1", Name: "Algorithms", SessionsPerWeek: 1},
			{ID: "C2", Name: "Databases", SessionsPerWeek: 1},
		},
		Faculty: []models.Faculty{
			{ID: "F1", Name: "Dr. Rao"},
			{ID: "F2", Name: "Dr. Lim"},
		},
		Rooms: []models.Room{
			{ID: "R1", Name: "Hall A", Capacity: 60},
			{ID: "R2", Name: "Hall B", Capacity: 60},
		},
		TimeSlots: []models.TimeSlot{
			{ID: "T1", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00"},
			{ID: "T2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		},
		Batches: []models.Batch{
			{ID: "B1", Name: "CS-A", StudentCount: 30},
			{ID: "B2", Name: "CS-B", StudentCount: 30},
		},
	}
}

func entry(courseID, facultyID, roomID, slotID, batchID string) models.AssignmentEntry {
	return models.AssignmentEntry{
		CourseID:   courseID,
		FacultyID:  facultyID,
		RoomID:     roomID,
		TimeSlotID: slotID,
		BatchID:    batchID,
	}
}

func kindCount(report models.ValidationReport, kind models.ViolationKind) int {
	n := 0
	for _, v := range report.Violations {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

func TestValidationServiceCleanSchedulePasses(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
		entry("C2", "F2", "R2", "T2", "B2"),
	}}

	report := svc.Validate(assignment, validationDataset())
	require.Equal(t, models.ReportPass, report.Status)
	assert.Zero(t, report.TotalViolations)
	assert.Equal(t, 10.0, report.QualityScore)
	assert.Equal(t, 1.0, report.FeasibilityScore)
}

func TestValidationServiceFacultyDoubleBooking(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	// Same faculty, same slot, different rooms and batches: only the faculty
	// collides.
	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
		entry("C2", "F1", "R2", "T1", "B2"),
	}}

	report := svc.Validate(assignment, validationDataset())
	assert.Equal(t, models.ReportFail, report.Status)
	assert.Equal(t, 1, kindCount(report, models.ViolationFacultyDoubleBooking))
	assert.Zero(t, kindCount(report, models.ViolationRoomDoubleBooking))
	assert.Zero(t, kindCount(report, models.ViolationBatchTimeConflict))
	assert.Equal(t, 1, report.CriticalViolations)
}

func TestValidationServiceConflictCountIsCollisionsMinusOne(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	dataset := validationDataset()
	dataset.Courses = append(dataset.Courses, models.Course{ID: "C3", Name: "Networks"})
	dataset.Rooms = append(dataset.Rooms, models.Room{ID: "R3", Name: "Hall C", Capacity: 60})
	dataset.Batches = append(dataset.Batches, models.Batch{ID: "B3", Name: "CS-C", StudentCount: 30})

	// Three entries holding the same faculty slot yield two conflicts, not
	// three.
	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
		entry("C2", "F1", "R2", "T1", "B2"),
		entry("C3", "F1", "R3", "T1", "B3"),
	}}

	report := svc.Validate(assignment, dataset)
	assert.Equal(t, 2, kindCount(report, models.ViolationFacultyDoubleBooking))
}

func TestValidationServiceUnknownReferencesSkipConflictPass(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "RX", "T1", "B1"),
		entry("C2", "F1", "R2", "T1", "B2"),
	}}

	report := svc.Validate(assignment, validationDataset())
	assert.Equal(t, 1, kindCount(report, models.ViolationInvalidRoomReference))
	// The broken entry never claimed the faculty slot, so the second entry
	// books it without conflict.
	assert.Zero(t, kindCount(report, models.ViolationFacultyDoubleBooking))
}

func TestValidationServiceRoomCapacityExceeded(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	dataset := validationDataset()
	dataset.Rooms[0].Capacity = 20

	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
		entry("C2", "F2", "R2", "T2", "B2"),
	}}

	report := svc.Validate(assignment, dataset)
	require.Equal(t, 1, kindCount(report, models.ViolationRoomCapacityExceeded))
	for _, v := range report.Violations {
		if v.Kind == models.ViolationRoomCapacityExceeded {
			assert.Equal(t, 20, v.Context["room_capacity"])
			assert.Equal(t, 30, v.Context["batch_size"])
		}
	}
}

func TestValidationServiceMissingCourseFlaggedOnce(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
	}}

	report := svc.Validate(assignment, validationDataset())
	assert.Equal(t, 1, kindCount(report, models.ViolationMissingCourseAssignment))
	assert.Equal(t, models.ReportFail, report.Status)
}

func TestValidationServiceEmptyAssignmentFails(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	report := svc.Validate(&models.ScheduleAssignment{}, validationDataset())
	assert.Equal(t, models.ReportFail, report.Status)
	assert.Zero(t, report.EntryCount)
	assert.Empty(t, report.Violations)
}

func TestValidationServiceNilInputs(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	assert.Equal(t, models.ReportError, svc.Validate(nil, validationDataset()).Status)
	assert.Equal(t, models.ReportError, svc.Validate(&models.ScheduleAssignment{}, nil).Status)
}

func TestValidationServiceWeightedScoreAggregation(t *testing.T) {
	svc := NewValidationService(zap.NewNop())

	assignment := &models.ScheduleAssignment{Entries: []models.AssignmentEntry{
		entry("C1", "F1", "R1", "T1", "B1"),
		entry("C2", "F1", "R2", "T1", "B2"),
	}}

	// One faculty double booking weighs 10.
	report := svc.Validate(assignment, validationDataset())
	assert.Equal(t, 10.0, report.WeightedScore)
	assert.InDelta(t, 0.5, report.FeasibilityScore, 1e-9)
}
