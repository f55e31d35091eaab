package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Course is a catalogue entry that must appear on the final timetable.
type Course struct {
	ID              string `json:"course_id" db:"course_id"`
	Name            string `json:"course_name" db:"course_name"`
	SessionsPerWeek int    `json:"sessions_per_week" db:"sessions_per_week"`
	RequiredRoomID  string `json:"required_room_id,omitempty" db:"required_room_id"`
}

// Faculty is a teaching staff member available for assignment.
type Faculty struct {
	ID          string   `json:"faculty_id" db:"faculty_id"`
	Name        string   `json:"faculty_name" db:"faculty_name"`
	Competences []string `json:"competences,omitempty" db:"-"`
	MaxLoad     int      `json:"max_weekly_load,omitempty" db:"max_weekly_load"`
}

// Room is a physical teaching space with a hard capacity.
type Room struct {
	ID        string   `json:"room_id" db:"room_id"`
	Name      string   `json:"room_name" db:"room_name"`
	Capacity  int      `json:"capacity" db:"capacity"`
	Equipment []string `json:"equipment,omitempty" db:"-"`
}

// TimeSlot is a bookable teaching period.
type TimeSlot struct {
	ID        string `json:"timeslot_id" db:"timeslot_id"`
	DayOfWeek string `json:"day_of_week" db:"day_of_week"`
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
}

// Batch is a cohort of students scheduled together.
type Batch struct {
	ID           string `json:"batch_id" db:"batch_id"`
	Name         string `json:"batch_name" db:"batch_name"`
	StudentCount int    `json:"student_count" db:"student_count"`
}

// ConstraintKind separates hard (must hold) from soft (preferred) rules.
type ConstraintKind string

const (
	ConstraintHard ConstraintKind = "HARD"
	ConstraintSoft ConstraintKind = "SOFT"
)

// Constraint is a declarative scheduling rule attached to a dataset.
type Constraint struct {
	ID          string         `json:"constraint_id" db:"constraint_id"`
	Code        string         `json:"constraint_code" db:"constraint_code"`
	Kind        ConstraintKind `json:"kind" db:"kind"`
	Description string         `json:"description,omitempty" db:"description"`
}

// Dataset is the read-only snapshot of one institution's reference tables.
// Identifiers are unique within each collection; cross-entity references are
// not assumed valid here — that is what validation is for.
type Dataset struct {
	ID              string       `json:"id"`
	InstitutionName string       `json:"institution_name,omitempty"`
	Courses         []Course     `json:"courses"`
	Faculty         []Faculty    `json:"faculty"`
	Rooms           []Room       `json:"rooms"`
	TimeSlots       []TimeSlot   `json:"time_slots"`
	Batches         []Batch      `json:"batches"`
	HardConstraints []Constraint `json:"hard_constraints"`
	SoftConstraints []Constraint `json:"soft_constraints"`
	LoadedAt        time.Time    `json:"loaded_at"`
}

// CourseLookup indexes courses by identifier.
func (d *Dataset) CourseLookup() map[string]Course {
	out := make(map[string]Course, len(d.Courses))
	for _, c := range d.Courses {
		out[c.ID] = c
	}
	return out
}

// FacultyLookup indexes faculty by identifier.
func (d *Dataset) FacultyLookup() map[string]Faculty {
	out := make(map[string]Faculty, len(d.Faculty))
	for _, f := range d.Faculty {
		out[f.ID] = f
	}
	return out
}

// RoomLookup indexes rooms by identifier.
func (d *Dataset) RoomLookup() map[string]Room {
	out := make(map[string]Room, len(d.Rooms))
	for _, r := range d.Rooms {
		out[r.ID] = r
	}
	return out
}

// TimeSlotLookup indexes time slots by identifier.
func (d *Dataset) TimeSlotLookup() map[string]TimeSlot {
	out := make(map[string]TimeSlot, len(d.TimeSlots))
	for _, t := range d.TimeSlots {
		out[t.ID] = t
	}
	return out
}

// BatchLookup indexes batches by identifier.
func (d *Dataset) BatchLookup() map[string]Batch {
	out := make(map[string]Batch, len(d.Batches))
	for _, b := range d.Batches {
		out[b.ID] = b
	}
	return out
}

// DatasetRecord is the persisted form of a dataset snapshot.
type DatasetRecord struct {
	ID              string         `db:"id" json:"id"`
	InstitutionName string         `db:"institution_name" json:"institution_name"`
	Payload         types.JSONText `db:"payload" json:"payload"`
	CourseCount     int            `db:"course_count" json:"course_count"`
	FacultyCount    int            `db:"faculty_count" json:"faculty_count"`
	RoomCount       int            `db:"room_count" json:"room_count"`
	TimeSlotCount   int            `db:"time_slot_count" json:"time_slot_count"`
	BatchCount      int            `db:"batch_count" json:"batch_count"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
