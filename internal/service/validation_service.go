package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

// ValidationService audits a schedule assignment against its reference
// dataset. Defects surface as violations, never as errors; an internal fault
// yields an ERROR report instead of propagating.
type ValidationService struct {
	logger *zap.Logger
}

// NewValidationService constructs the validator.
func NewValidationService(logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{logger: logger}
}

// bookings tracks which time slots each faculty, room and batch already
// occupies. Constructed fresh per validation call so concurrent validations
// stay isolated.
type bookings struct {
	faculty map[string]map[string]bool
	rooms   map[string]map[string]bool
	batches map[string]map[string]bool
}

func newBookings() *bookings {
	return &bookings{
		faculty: make(map[string]map[string]bool),
		rooms:   make(map[string]map[string]bool),
		batches: make(map[string]map[string]bool),
	}
}

// book records the (entity, slot) pair and reports whether the slot was
// already taken. A taken slot is not re-recorded, so k colliding entries
// produce exactly k-1 conflicts.
func book(m map[string]map[string]bool, entityID, slotID string) bool {
	slots := m[entityID]
	if slots == nil {
		slots = make(map[string]bool)
		m[entityID] = slots
	}
	if slots[slotID] {
		return true
	}
	slots[slotID] = true
	return false
}

// Validate runs the per-entry and system-wide passes and aggregates the
// quality metrics for the assignment.
func (s *ValidationService) Validate(assignment *models.ScheduleAssignment, dataset *models.Dataset) (report models.ValidationReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("validation failed", zap.Any("panic", r))
			report = models.ValidationReport{Status: models.ReportError}
		}
	}()

	if assignment == nil || dataset == nil {
		return models.ValidationReport{Status: models.ReportError}
	}

	if len(assignment.Entries) == 0 {
		// Degenerate: nothing to audit and nothing deployable.
		return models.ValidationReport{
			Status:     models.ReportFail,
			Violations: []models.Violation{},
		}
	}

	courses := dataset.CourseLookup()
	faculty := dataset.FacultyLookup()
	rooms := dataset.RoomLookup()
	timeSlots := dataset.TimeSlotLookup()
	batches := dataset.BatchLookup()

	taken := newBookings()
	violations := make([]models.Violation, 0)

	for idx, entry := range assignment.Entries {
		violations = append(violations, s.validateEntry(entry, idx, courses, faculty, rooms, timeSlots, batches, taken)...)
	}

	violations = append(violations, s.missingCourses(assignment, dataset, courses)...)

	return s.buildReport(violations, len(assignment.Entries))
}

func (s *ValidationService) validateEntry(
	entry models.AssignmentEntry,
	idx int,
	courses map[string]models.Course,
	faculty map[string]models.Faculty,
	rooms map[string]models.Room,
	timeSlots map[string]models.TimeSlot,
	batches map[string]models.Batch,
	taken *bookings,
) []models.Violation {
	violations := make([]models.Violation, 0)

	_, courseOK := courses[entry.CourseID]
	_, facultyOK := faculty[entry.FacultyID]
	room, roomOK := rooms[entry.RoomID]
	_, slotOK := timeSlots[entry.TimeSlotID]
	batch, batchOK := batches[entry.BatchID]

	// Referential pass. Every unresolved id is recorded, even when several
	// ids on the same entry are invalid. The violation enumeration is closed,
	// so unknown course ids reuse the faculty-reference kind and unknown
	// batch ids the batch-assignment kind, matching the reference engine.
	if entry.CourseID != "" && !courseOK {
		violations = append(violations, newViolation(
			models.ViolationInvalidFacultyReference, entry.CourseID, "COURSE",
			fmt.Sprintf("Course %s not found in reference data", entry.CourseID),
			fmt.Sprintf("Entry %d: course_id %q has no corresponding record", idx, entry.CourseID),
			"Verify course exists in master data or remove invalid entry",
			idx,
		))
	}
	if entry.FacultyID != "" && !facultyOK {
		violations = append(violations, newViolation(
			models.ViolationInvalidFacultyReference, entry.FacultyID, "FACULTY",
			fmt.Sprintf("Faculty %s not found in reference data", entry.FacultyID),
			fmt.Sprintf("Entry %d: faculty_id %q has no corresponding record", idx, entry.FacultyID),
			"Verify faculty exists in master data or assign different faculty",
			idx,
		))
	}
	if entry.RoomID != "" && !roomOK {
		violations = append(violations, newViolation(
			models.ViolationInvalidRoomReference, entry.RoomID, "ROOM",
			fmt.Sprintf("Room %s not found in reference data", entry.RoomID),
			fmt.Sprintf("Entry %d: room_id %q has no corresponding record", idx, entry.RoomID),
			"Verify room exists in master data or assign different room",
			idx,
		))
	}
	if entry.TimeSlotID != "" && !slotOK {
		violations = append(violations, newViolation(
			models.ViolationInvalidTimeSlotReference, entry.TimeSlotID, "TIME_SLOT",
			fmt.Sprintf("Time slot %s not found in reference data", entry.TimeSlotID),
			fmt.Sprintf("Entry %d: time_slot_id %q has no corresponding record", idx, entry.TimeSlotID),
			"Verify time slot exists in master data or assign different time slot",
			idx,
		))
	}
	if entry.BatchID != "" && !batchOK {
		violations = append(violations, newViolation(
			models.ViolationMissingBatchAssignment, entry.BatchID, "BATCH",
			fmt.Sprintf("Batch %s not found in reference data", entry.BatchID),
			fmt.Sprintf("Entry %d: batch_id %q has no corresponding record", idx, entry.BatchID),
			"Verify batch exists in master data or assign different batch",
			idx,
		))
	}

	// Conflict pass runs only on fully resolved entries: a broken reference
	// makes ownership of the slot meaningless.
	if courseOK && facultyOK && roomOK && slotOK && batchOK {
		if book(taken.faculty, entry.FacultyID, entry.TimeSlotID) {
			violations = append(violations, newViolation(
				models.ViolationFacultyDoubleBooking, entry.FacultyID, "FACULTY",
				fmt.Sprintf("Faculty %s double booked at %s", entry.FacultyID, entry.TimeSlotID),
				fmt.Sprintf("Entry %d: faculty %s assigned to multiple sessions at %s", idx, entry.FacultyID, entry.TimeSlotID),
				"Reschedule one of the conflicting sessions to a different time slot",
				idx,
			))
		}
		if book(taken.rooms, entry.RoomID, entry.TimeSlotID) {
			violations = append(violations, newViolation(
				models.ViolationRoomDoubleBooking, entry.RoomID, "ROOM",
				fmt.Sprintf("Room %s double booked at %s", entry.RoomID, entry.TimeSlotID),
				fmt.Sprintf("Entry %d: room %s assigned to multiple sessions at %s", idx, entry.RoomID, entry.TimeSlotID),
				"Reschedule one of the conflicting sessions to a different room",
				idx,
			))
		}
		if book(taken.batches, entry.BatchID, entry.TimeSlotID) {
			violations = append(violations, newViolation(
				models.ViolationBatchTimeConflict, entry.BatchID, "BATCH",
				fmt.Sprintf("Batch %s has conflicting sessions at %s", entry.BatchID, entry.TimeSlotID),
				fmt.Sprintf("Entry %d: batch %s assigned to multiple sessions at %s", idx, entry.BatchID, entry.TimeSlotID),
				"Reschedule one of the conflicting sessions to a different time slot",
				idx,
			))
		}
	}

	if roomOK && batchOK && batch.StudentCount > room.Capacity {
		violation := newViolation(
			models.ViolationRoomCapacityExceeded, entry.RoomID, "ROOM",
			fmt.Sprintf("Room capacity (%d) exceeded by batch size (%d)", room.Capacity, batch.StudentCount),
			fmt.Sprintf("Entry %d: room %s capacity %d < batch %s size %d", idx, entry.RoomID, room.Capacity, entry.BatchID, batch.StudentCount),
			"Assign a larger room or split the batch into smaller groups",
			idx,
		)
		violation.Context["room_capacity"] = room.Capacity
		violation.Context["batch_size"] = batch.StudentCount
		violations = append(violations, violation)
	}

	return violations
}

// missingCourses flags every dataset course absent from the assignment,
// once per course.
func (s *ValidationService) missingCourses(assignment *models.ScheduleAssignment, dataset *models.Dataset, courses map[string]models.Course) []models.Violation {
	scheduled := assignment.ScheduledCourseIDs()
	violations := make([]models.Violation, 0)
	for _, course := range dataset.Courses {
		if _, ok := scheduled[course.ID]; ok {
			continue
		}
		violation := newViolation(
			models.ViolationMissingCourseAssignment, course.ID, "COURSE",
			fmt.Sprintf("Course %s not scheduled", courseLabel(courses, course.ID)),
			fmt.Sprintf("Course %s appears in master data but has no timetable entries", course.ID),
			"Add a timetable entry for this course or mark it as not requiring scheduling",
			-1,
		)
		delete(violation.Context, "entry_index")
		violations = append(violations, violation)
	}
	return violations
}

func (s *ValidationService) buildReport(violations []models.Violation, entryCount int) models.ValidationReport {
	critical := 0
	totalWeight := 0.0
	for _, v := range violations {
		if v.Critical {
			critical++
		}
		totalWeight += v.Weight
	}

	status := models.ReportPass
	if critical > 0 {
		status = models.ReportFail
	} else if len(violations) > 0 {
		status = models.ReportWarning
	}

	quality := 10.0
	if len(violations) > 0 {
		avgWeight := totalWeight / float64(len(violations))
		quality = math.Max(1.0, 10.0-(avgWeight/float64(entryCount))*10)
	}
	feasibility := math.Max(0.0, 1.0-float64(critical)/float64(entryCount))

	report := models.ValidationReport{
		Status:             status,
		EntryCount:         entryCount,
		TotalViolations:    len(violations),
		CriticalViolations: critical,
		WarningViolations:  len(violations) - critical,
		Violations:         violations,
		QualityScore:       quality,
		FeasibilityScore:   feasibility,
		WeightedScore:      totalWeight,
	}

	s.logger.Info("validation completed",
		zap.String("status", string(status)),
		zap.Int("violations", len(violations)),
		zap.Int("critical", critical),
		zap.Float64("quality", quality),
		zap.Float64("feasibility", feasibility),
	)
	return report
}

func newViolation(kind models.ViolationKind, entityID, entityType, description, details, remediation string, entryIdx int) models.Violation {
	return models.Violation{
		Kind:        kind,
		Severity:    kind.Severity(),
		EntityID:    entityID,
		EntityType:  entityType,
		Description: description,
		Details:     details,
		Remediation: remediation,
		Weight:      kind.Weight(),
		Critical:    kind.Critical(),
		Context:     map[string]any{"entry_index": entryIdx},
	}
}

func courseLabel(courses map[string]models.Course, id string) string {
	if c, ok := courses[id]; ok && c.Name != "" {
		return c.Name
	}
	return id
}
