package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

func fixtureDataset(courses, faculty, rooms, timeSlots, batches int) *models.Dataset {
	d := &models.Dataset{ID: "ds-1"}
	for i := 0; i < courses; i++ {
		d.Courses = append(d.Courses, models.Course{ID: fmt.Sprintf("C%d", i+1), Name: fmt.Sprintf("Course %d", i+1), SessionsPerWeek: 1})
	}
	for i := 0; i < faculty; i++ {
		d.Faculty = append(d.Faculty, models.Faculty{ID: fmt.Sprintf("F%d", i+1), Name: fmt.Sprintf("Faculty %d", i+1)})
	}
	for i := 0; i < rooms; i++ {
		d.Rooms = append(d.Rooms, models.Room{ID: fmt.Sprintf("R%d", i+1), Name: fmt.Sprintf("Room %d", i+1), Capacity: 60})
	}
	for i := 0; i < timeSlots; i++ {
		d.TimeSlots = append(d.TimeSlots, models.TimeSlot{ID: fmt.Sprintf("T%d", i+1), DayOfWeek: "MONDAY", StartTime: fmt.Sprintf("%02d:00", 8+i), EndTime: fmt.Sprintf("%02d:00", 9+i)})
	}
	for i := 0; i < batches; i++ {
		d.Batches = append(d.Batches, models.Batch{ID: fmt.Sprintf("B%d", i+1), Name: fmt.Sprintf("Batch %d", i+1), StudentCount: 30})
	}
	return d
}

func TestComplexityServiceSmallDataset(t *testing.T) {
	svc := NewComplexityService(zap.NewNop())

	profile := svc.Profile(fixtureDataset(3, 3, 2, 4, 1))

	// 3 courses x 4 slots x 1 batch = 12 raw combinations, well under the
	// first piecewise band.
	assert.GreaterOrEqual(t, profile.Combinatorial, 1.0)
	assert.LessOrEqual(t, profile.Combinatorial, 3.0)
	assert.Equal(t, models.OverallFrom(profile.Combinatorial, profile.ConstraintComplexity, profile.ResourceCompetition, profile.ScheduleDensity), profile.Overall)
	assert.False(t, profile.AnalyzedAt.IsZero())
}

func TestComplexityServiceMissingEntities(t *testing.T) {
	svc := NewComplexityService(zap.NewNop())

	dataset := fixtureDataset(5, 2, 3, 6, 2)
	dataset.Faculty = nil

	profile := svc.Profile(dataset)
	assert.Equal(t, 10.0, profile.Combinatorial)
	assert.Equal(t, 8.0, profile.ResourceCompetition)
}

func TestComplexityServiceNoConstraints(t *testing.T) {
	svc := NewComplexityService(zap.NewNop())

	profile := svc.Profile(fixtureDataset(3, 3, 2, 4, 1))
	assert.Equal(t, 1.0, profile.ConstraintComplexity)
}

func TestComplexityServiceConstraintInterdependency(t *testing.T) {
	svc := NewComplexityService(zap.NewNop())

	dataset := fixtureDataset(3, 3, 2, 4, 1)
	for i := 0; i < 4; i++ {
		dataset.HardConstraints = append(dataset.HardConstraints, models.Constraint{ID: fmt.Sprintf("H%d", i+1), Kind: models.ConstraintHard})
	}
	for i := 0; i < 4; i++ {
		dataset.SoftConstraints = append(dataset.SoftConstraints, models.Constraint{ID: fmt.Sprintf("S%d", i+1), Kind: models.ConstraintSoft})
	}

	// (4*2 + 4)/5 = 2.4, amplified by 1 + 0.1*(8-5) = 1.3.
	profile := svc.Profile(dataset)
	assert.InDelta(t, 3.12, profile.ConstraintComplexity, 1e-9)
}

func TestComplexityServiceNilDataset(t *testing.T) {
	svc := NewComplexityService(zap.NewNop())

	profile := svc.Profile(nil)
	require.Equal(t, models.DifficultyModerate, profile.Difficulty)
	assert.Equal(t, 5.0, profile.Overall)
}

func TestClassifyDifficultyBoundaries(t *testing.T) {
	assert.Equal(t, models.DifficultySimple, models.ClassifyDifficulty(3.0))
	assert.Equal(t, models.DifficultyModerate, models.ClassifyDifficulty(3.01))
	assert.Equal(t, models.DifficultyModerate, models.ClassifyDifficulty(5.0))
	assert.Equal(t, models.DifficultyComplex, models.ClassifyDifficulty(7.5))
	assert.Equal(t, models.DifficultyExtreme, models.ClassifyDifficulty(7.51))
}
