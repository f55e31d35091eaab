package solver

import (
	"context"
	"time"

	"github.com/akademika/timetable-engine/internal/models"
)

// GreedyBestFit assigns each course to the first workable faculty, room and
// time slot combination. Fast and deterministic; intended for small to
// moderate datasets with light constraint load.
type GreedyBestFit struct{}

// NewGreedyBestFit constructs the greedy solver.
func NewGreedyBestFit() *GreedyBestFit {
	return &GreedyBestFit{}
}

// Name implements Solver.
func (s *GreedyBestFit) Name() string { return "Greedy Best-Fit" }

// PreferredRanges implements Solver.
func (s *GreedyBestFit) PreferredRanges() PreferredRanges {
	return PreferredRanges{
		Combinatorial: DimensionRange{Min: 1.0, Max: 4.0},
		Constraint:    DimensionRange{Min: 1.0, Max: 3.0},
		Competition:   DimensionRange{Min: 1.0, Max: 5.0},
		Density:       DimensionRange{Min: 1.0, Max: 6.0},
	}
}

// SuitabilityThreshold implements Solver.
func (s *GreedyBestFit) SuitabilityThreshold() float64 { return 4.0 }

// Solve implements Solver using first-fit construction over a booking state.
func (s *GreedyBestFit) Solve(ctx context.Context, dataset *models.Dataset) (*models.ScheduleAssignment, error) {
	return constructGreedy(ctx, dataset)
}

// bookingState tracks which (entity, slot) pairs are already taken during
// construction. Scoped to a single solve call.
type bookingState struct {
	faculty map[string]map[string]bool
	rooms   map[string]map[string]bool
	batches map[string]map[string]bool
}

func newBookingState() *bookingState {
	return &bookingState{
		faculty: make(map[string]map[string]bool),
		rooms:   make(map[string]map[string]bool),
		batches: make(map[string]map[string]bool),
	}
}

func (b *bookingState) free(facultyID, roomID, batchID, slotID string) bool {
	return !b.faculty[facultyID][slotID] && !b.rooms[roomID][slotID] && !b.batches[batchID][slotID]
}

func (b *bookingState) reserve(facultyID, roomID, batchID, slotID string) {
	mark(b.faculty, facultyID, slotID)
	mark(b.rooms, roomID, slotID)
	mark(b.batches, batchID, slotID)
}

func mark(m map[string]map[string]bool, entityID, slotID string) {
	if m[entityID] == nil {
		m[entityID] = make(map[string]bool)
	}
	m[entityID][slotID] = true
}

func constructGreedy(ctx context.Context, dataset *models.Dataset) (*models.ScheduleAssignment, error) {
	start := time.Now()
	bookings := newBookingState()
	entries := make([]models.AssignmentEntry, 0, len(dataset.Courses)*len(dataset.Batches))

	for _, course := range dataset.Courses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		faculty, ok := pickFaculty(course, dataset.Faculty)
		if !ok {
			continue
		}
		sessions := course.SessionsPerWeek
		if sessions <= 0 {
			sessions = 1
		}
		for _, batch := range dataset.Batches {
			room, ok := pickRoom(course, batch, dataset.Rooms)
			if !ok {
				continue
			}
			placed := 0
			for _, slot := range dataset.TimeSlots {
				if placed >= sessions {
					break
				}
				if !bookings.free(faculty.ID, room.ID, batch.ID, slot.ID) {
					continue
				}
				bookings.reserve(faculty.ID, room.ID, batch.ID, slot.ID)
				entries = append(entries, models.AssignmentEntry{
					CourseID:    course.ID,
					CourseName:  course.Name,
					FacultyID:   faculty.ID,
					FacultyName: faculty.Name,
					RoomID:      room.ID,
					RoomName:    room.Name,
					TimeSlotID:  slot.ID,
					Day:         slot.DayOfWeek,
					StartTime:   slot.StartTime,
					EndTime:     slot.EndTime,
					BatchID:     batch.ID,
					BatchName:   batch.Name,
					Session:     sessionKindFor(room),
				})
				placed++
			}
		}
	}

	status := models.SolveSuccess
	if len(entries) == 0 {
		status = models.SolveFailed
	} else if len(dataset.Courses) > 0 && len(distinctCourses(entries)) < len(dataset.Courses) {
		status = models.SolvePartial
	}

	return &models.ScheduleAssignment{
		Entries:             entries,
		Status:              status,
		ObjectiveValue:      float64(len(entries)),
		SolvingSeconds:      time.Since(start).Seconds(),
		ResourceUtilization: utilization(entries, dataset),
		QualityMetrics:      completeness(entries, dataset),
	}, nil
}

func pickFaculty(course models.Course, faculty []models.Faculty) (models.Faculty, bool) {
	for _, f := range faculty {
		for _, competence := range f.Competences {
			if competence == course.ID {
				return f, true
			}
		}
	}
	if len(faculty) > 0 {
		return faculty[0], true
	}
	return models.Faculty{}, false
}

func pickRoom(course models.Course, batch models.Batch, rooms []models.Room) (models.Room, bool) {
	if course.RequiredRoomID != "" {
		for _, r := range rooms {
			if r.ID == course.RequiredRoomID {
				return r, true
			}
		}
	}
	for _, r := range rooms {
		if r.Capacity >= batch.StudentCount {
			return r, true
		}
	}
	if len(rooms) > 0 {
		return rooms[0], true
	}
	return models.Room{}, false
}

func sessionKindFor(room models.Room) models.SessionKind {
	if len(room.Equipment) > 0 {
		return models.SessionLab
	}
	return models.SessionLecture
}

func distinctCourses(entries []models.AssignmentEntry) map[string]struct{} {
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		out[e.CourseID] = struct{}{}
	}
	return out
}

func utilization(entries []models.AssignmentEntry, dataset *models.Dataset) map[string]float64 {
	usedFaculty := make(map[string]struct{})
	usedRooms := make(map[string]struct{})
	usedSlots := make(map[string]struct{})
	for _, e := range entries {
		usedFaculty[e.FacultyID] = struct{}{}
		usedRooms[e.RoomID] = struct{}{}
		usedSlots[e.TimeSlotID] = struct{}{}
	}
	out := make(map[string]float64, 3)
	if len(dataset.Faculty) > 0 {
		out["faculty"] = float64(len(usedFaculty)) / float64(len(dataset.Faculty)) * 100
	}
	if len(dataset.Rooms) > 0 {
		out["rooms"] = float64(len(usedRooms)) / float64(len(dataset.Rooms)) * 100
	}
	if len(dataset.TimeSlots) > 0 {
		out["time_slots"] = float64(len(usedSlots)) / float64(len(dataset.TimeSlots)) * 100
	}
	return out
}

func completeness(entries []models.AssignmentEntry, dataset *models.Dataset) map[string]float64 {
	out := make(map[string]float64, 1)
	if len(dataset.Courses) > 0 {
		out["schedule_completeness"] = float64(len(distinctCourses(entries))) / float64(len(dataset.Courses)) * 100
	}
	return out
}
