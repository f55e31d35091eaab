package dto

import (
	"time"

	"github.com/akademika/timetable-engine/internal/models"
)

// CreateDatasetRequest uploads a reference dataset snapshot as JSON.
type CreateDatasetRequest struct {
	InstitutionName string              `json:"institutionName,omitempty"`
	Courses         []models.Course     `json:"courses" validate:"required,min=1,dive"`
	Faculty         []models.Faculty    `json:"faculty" validate:"required,min=1,dive"`
	Rooms           []models.Room       `json:"rooms" validate:"required,min=1,dive"`
	TimeSlots       []models.TimeSlot   `json:"timeSlots" validate:"required,min=1,dive"`
	Batches         []models.Batch      `json:"batches" validate:"required,min=1,dive"`
	HardConstraints []models.Constraint `json:"hardConstraints,omitempty"`
	SoftConstraints []models.Constraint `json:"softConstraints,omitempty"`
}

// DatasetResponse summarises a stored dataset snapshot.
type DatasetResponse struct {
	ID              string    `json:"id"`
	InstitutionName string    `json:"institutionName,omitempty"`
	CourseCount     int       `json:"courseCount"`
	FacultyCount    int       `json:"facultyCount"`
	RoomCount       int       `json:"roomCount"`
	TimeSlotCount   int       `json:"timeSlotCount"`
	BatchCount      int       `json:"batchCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DatasetListQuery pages the dataset listing endpoint.
type DatasetListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}
