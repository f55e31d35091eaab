package models

// SessionKind distinguishes the delivery format of a scheduled session.
type SessionKind string

const (
	SessionLecture  SessionKind = "LECTURE"
	SessionLab      SessionKind = "LAB"
	SessionTutorial SessionKind = "TUTORIAL"
)

// AssignmentEntry binds one course occurrence to faculty, room, time slot and
// batch. Entry identity is positional within the assignment sequence.
type AssignmentEntry struct {
	CourseID    string      `json:"course_id"`
	CourseName  string      `json:"course_name,omitempty"`
	FacultyID   string      `json:"faculty_id"`
	FacultyName string      `json:"faculty_name,omitempty"`
	RoomID      string      `json:"room_id"`
	RoomName    string      `json:"room_name,omitempty"`
	TimeSlotID  string      `json:"time_slot_id"`
	Day         string      `json:"day,omitempty"`
	StartTime   string      `json:"start_time,omitempty"`
	EndTime     string      `json:"end_time,omitempty"`
	BatchID     string      `json:"batch_id"`
	BatchName   string      `json:"batch_name,omitempty"`
	Session     SessionKind `json:"session_type"`
}

// SolveStatus summarises how a solver run finished.
type SolveStatus string

const (
	SolveSuccess SolveStatus = "SUCCESS"
	SolvePartial SolveStatus = "PARTIAL"
	SolveFailed  SolveStatus = "FAILED"
)

// ScheduleAssignment is the candidate timetable produced by a solver,
// consumed read-only by the validator.
type ScheduleAssignment struct {
	Entries             []AssignmentEntry  `json:"entries"`
	Status              SolveStatus        `json:"status"`
	ObjectiveValue      float64            `json:"objective_value"`
	SolvingSeconds      float64            `json:"solving_seconds"`
	ResourceUtilization map[string]float64 `json:"resource_utilization,omitempty"`
	QualityMetrics      map[string]float64 `json:"quality_metrics,omitempty"`
}

// ScheduledCourseIDs returns the distinct course ids present in the assignment.
func (a *ScheduleAssignment) ScheduledCourseIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(a.Entries))
	for _, e := range a.Entries {
		if e.CourseID != "" {
			out[e.CourseID] = struct{}{}
		}
	}
	return out
}
