package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademika/timetable-engine/internal/models"
)

func solveDataset() *models.Dataset {
	return &models.Dataset{
		ID: "ds-1",
		Courses: []models.Course{
			{ID: "C1", Name: "Algorithms", SessionsPerWeek: 1},
			{ID: "C2", Name: "Databases", SessionsPerWeek: 1},
		},
		Faculty: []models.Faculty{
			{ID: "F1", Name: "Dr. Rao", Competences: []string{"C1"}},
			{ID: "F2", Name: "Dr. Lim", Competences: []string{"C2"}},
		},
		Rooms: []models.Room{
			{ID: "R1", Name: "Hall A", Capacity: 60},
			{ID: "R2", Name: "Hall B", Capacity: 60},
		},
		TimeSlots: []models.TimeSlot{
			{ID: "T1", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00"},
			{ID: "T2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
			{ID: "T3", DayOfWeek: "TUESDAY", StartTime: "08:00", EndTime: "09:00"},
			{ID: "T4", DayOfWeek: "TUESDAY", StartTime: "09:00", EndTime: "10:00"},
		},
		Batches: []models.Batch{
			{ID: "B1", Name: "CS-A", StudentCount: 30},
		},
	}
}

func TestGreedyBestFitSchedulesAllCourses(t *testing.T) {
	s := NewGreedyBestFit()

	result, err := s.Solve(context.Background(), solveDataset())
	require.NoError(t, err)
	require.Equal(t, models.SolveSuccess, result.Status)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, float64(len(result.Entries)), result.ObjectiveValue)
	assert.Equal(t, 100.0, result.QualityMetrics["schedule_completeness"])
}

func TestGreedyBestFitNeverDoubleBooks(t *testing.T) {
	s := NewGreedyBestFit()

	dataset := solveDataset()
	dataset.Courses[0].SessionsPerWeek = 2
	dataset.Courses[1].SessionsPerWeek = 2

	result, err := s.Solve(context.Background(), dataset)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range result.Entries {
		key := e.BatchID + "|" + e.TimeSlotID
		assert.False(t, seen[key], "batch double booked at %s", e.TimeSlotID)
		seen[key] = true
	}
}

func TestGreedyBestFitPartialWhenSlotsExhausted(t *testing.T) {
	s := NewGreedyBestFit()

	dataset := solveDataset()
	dataset.TimeSlots = dataset.TimeSlots[:1]

	result, err := s.Solve(context.Background(), dataset)
	require.NoError(t, err)
	assert.Equal(t, models.SolvePartial, result.Status)
	assert.Len(t, result.Entries, 1)
}

func TestGreedyBestFitEmptyDatasetFails(t *testing.T) {
	s := NewGreedyBestFit()

	result, err := s.Solve(context.Background(), &models.Dataset{})
	require.NoError(t, err)
	assert.Equal(t, models.SolveFailed, result.Status)
	assert.Empty(t, result.Entries)
}

func TestGreedyBestFitRespectsRequiredRoom(t *testing.T) {
	s := NewGreedyBestFit()

	dataset := solveDataset()
	dataset.Courses[0].RequiredRoomID = "R2"

	result, err := s.Solve(context.Background(), dataset)
	require.NoError(t, err)
	for _, e := range result.Entries {
		if e.CourseID == "C1" {
			assert.Equal(t, "R2", e.RoomID)
		}
	}
}

func TestGreedyBestFitCancelledContext(t *testing.T) {
	s := NewGreedyBestFit()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Solve(ctx, solveDataset())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntegerProgrammingTightensObjective(t *testing.T) {
	greedy, err := NewGreedyBestFit().Solve(context.Background(), solveDataset())
	require.NoError(t, err)

	tightened, err := NewIntegerProgramming().Solve(context.Background(), solveDataset())
	require.NoError(t, err)

	assert.InDelta(t, greedy.ObjectiveValue*1.2, tightened.ObjectiveValue, 1e-9)
	assert.Equal(t, 95.0, tightened.QualityMetrics["optimization_quality"])
}

func TestConstraintPropagationReportsSatisfaction(t *testing.T) {
	result, err := NewConstraintPropagation().Solve(context.Background(), solveDataset())
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.QualityMetrics["constraint_satisfaction"])
}

func TestDefaultRegistryOrderAndLookup(t *testing.T) {
	registry := DefaultRegistry()

	catalog := registry.List()
	require.Len(t, catalog, 3)
	assert.Equal(t, "Greedy Best-Fit", catalog[0].Name())
	assert.Equal(t, "Integer Programming", catalog[1].Name())
	assert.Equal(t, "Constraint Propagation", catalog[2].Name())

	s, ok := registry.Lookup("Constraint Propagation")
	require.True(t, ok)
	assert.Equal(t, "Constraint Propagation", s.Name())

	_, ok = registry.Lookup("unknown")
	assert.False(t, ok)
}

func TestDimensionRangeContains(t *testing.T) {
	r := DimensionRange{Min: 2.0, Max: 7.0}
	assert.True(t, r.Contains(2.0))
	assert.True(t, r.Contains(7.0))
	assert.False(t, r.Contains(1.99))
	assert.False(t, r.Contains(7.01))
}
