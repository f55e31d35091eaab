package models

// ViolationSeverity grades how serious a detected violation is.
type ViolationSeverity string

const (
	SeverityInfo     ViolationSeverity = "INFO"
	SeverityWarning  ViolationSeverity = "WARNING"
	SeverityError    ViolationSeverity = "ERROR"
	SeverityCritical ViolationSeverity = "CRITICAL"
)

// ViolationKind is the closed enumeration of defects the validator can emit.
// Downstream exporters consume these tags verbatim.
type ViolationKind string

const (
	ViolationFacultyDoubleBooking      ViolationKind = "FACULTY_DOUBLE_BOOKING"
	ViolationRoomDoubleBooking         ViolationKind = "ROOM_DOUBLE_BOOKING"
	ViolationBatchTimeConflict         ViolationKind = "BATCH_TIME_CONFLICT"
	ViolationRoomCapacityExceeded      ViolationKind = "ROOM_CAPACITY_EXCEEDED"
	ViolationInvalidFacultyReference   ViolationKind = "INVALID_FACULTY_REFERENCE"
	ViolationInvalidRoomReference      ViolationKind = "INVALID_ROOM_REFERENCE"
	ViolationEquipmentUnavailable      ViolationKind = "EQUIPMENT_UNAVAILABLE"
	ViolationMissingCourseAssignment   ViolationKind = "MISSING_COURSE_ASSIGNMENT"
	ViolationInvalidTimeSlotReference  ViolationKind = "INVALID_TIME_SLOT_REFERENCE"
	ViolationFacultyCompetencyMismatch ViolationKind = "FACULTY_COMPETENCY_MISMATCH"
	ViolationMissingBatchAssignment    ViolationKind = "MISSING_BATCH_ASSIGNMENT"
	ViolationDuplicateAssignment       ViolationKind = "DUPLICATE_ASSIGNMENT"
	ViolationUnbalancedWorkload        ViolationKind = "UNBALANCED_WORKLOAD"
	ViolationLearningOutcomeSuboptimal ViolationKind = "LEARNING_OUTCOME_SUBOPTIMAL"
	ViolationFacultyPreferenceViolated ViolationKind = "FACULTY_PREFERENCE_VIOLATED"
	ViolationNonPreferredTimeSlot      ViolationKind = "NON_PREFERRED_TIME_SLOT"
	ViolationSuboptimalRoomAssignment  ViolationKind = "SUBOPTIMAL_ROOM_ASSIGNMENT"
)

// Weight returns the fixed penalty weight for the violation kind.
func (k ViolationKind) Weight() float64 {
	switch k {
	case ViolationFacultyDoubleBooking, ViolationRoomDoubleBooking, ViolationBatchTimeConflict:
		return 10.0
	case ViolationRoomCapacityExceeded, ViolationInvalidFacultyReference, ViolationInvalidRoomReference:
		return 9.0
	case ViolationEquipmentUnavailable, ViolationMissingCourseAssignment, ViolationInvalidTimeSlotReference:
		return 8.0
	case ViolationFacultyCompetencyMismatch, ViolationMissingBatchAssignment:
		return 7.0
	case ViolationDuplicateAssignment:
		return 6.0
	case ViolationUnbalancedWorkload:
		return 4.0
	case ViolationLearningOutcomeSuboptimal:
		return 3.5
	case ViolationFacultyPreferenceViolated:
		return 3.0
	case ViolationNonPreferredTimeSlot:
		return 2.5
	case ViolationSuboptimalRoomAssignment:
		return 2.0
	}
	return 0
}

// Critical reports whether the violation kind is a hard failure.
func (k ViolationKind) Critical() bool {
	switch k {
	case ViolationFacultyDoubleBooking,
		ViolationRoomDoubleBooking,
		ViolationBatchTimeConflict,
		ViolationRoomCapacityExceeded,
		ViolationInvalidFacultyReference,
		ViolationInvalidRoomReference,
		ViolationEquipmentUnavailable,
		ViolationMissingCourseAssignment,
		ViolationInvalidTimeSlotReference,
		ViolationFacultyCompetencyMismatch,
		ViolationMissingBatchAssignment:
		return true
	}
	return false
}

// Severity returns the default severity for the violation kind.
func (k ViolationKind) Severity() ViolationSeverity {
	if k.Critical() {
		return SeverityCritical
	}
	return SeverityWarning
}

// Violation is a pure observation about one defect in a schedule assignment.
// Never mutated after creation.
type Violation struct {
	Kind        ViolationKind     `json:"kind"`
	Severity    ViolationSeverity `json:"severity"`
	EntityID    string            `json:"entity_id"`
	EntityType  string            `json:"entity_type"`
	Description string            `json:"description"`
	Details     string            `json:"technical_details"`
	Remediation string            `json:"suggested_fix"`
	Weight      float64           `json:"weight"`
	Critical    bool              `json:"is_critical"`
	Context     map[string]any    `json:"context,omitempty"`
}

// ReportStatus is the overall outcome of one validation call.
type ReportStatus string

const (
	ReportPass    ReportStatus = "PASS"
	ReportWarning ReportStatus = "WARNING"
	ReportFail    ReportStatus = "FAIL"
	ReportError   ReportStatus = "ERROR"
)

// ValidationReport aggregates a validation run over one assignment.
type ValidationReport struct {
	Status             ReportStatus `json:"overall_status"`
	EntryCount         int          `json:"entry_count"`
	TotalViolations    int          `json:"total_violations"`
	CriticalViolations int          `json:"critical_violations"`
	WarningViolations  int          `json:"warning_violations"`
	Violations         []Violation  `json:"violations"`
	QualityScore       float64      `json:"quality_score"`
	FeasibilityScore   float64      `json:"feasibility_score"`
	WeightedScore      float64      `json:"weighted_score"`
}
