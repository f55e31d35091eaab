package service

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

// ComplexityService scores how hard a dataset is to schedule. Profiling never
// fails: the pipeline always needs some profile to route on, so internal
// faults degrade to a neutral MODERATE profile instead of propagating.
type ComplexityService struct {
	logger *zap.Logger
}

// NewComplexityService constructs the profiler.
func NewComplexityService(logger *zap.Logger) *ComplexityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplexityService{logger: logger}
}

// Profile computes the four dimension scores and the derived overall score
// and difficulty level for the dataset.
func (s *ComplexityService) Profile(dataset *models.Dataset) (profile models.ComplexityProfile) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("complexity analysis failed", zap.Any("panic", r))
			profile = neutralProfile()
		}
	}()

	if dataset == nil {
		s.logger.Warn("complexity analysis received nil dataset")
		return neutralProfile()
	}

	courses := len(dataset.Courses)
	faculty := len(dataset.Faculty)
	rooms := len(dataset.Rooms)
	timeSlots := len(dataset.TimeSlots)
	batches := len(dataset.Batches)

	combinatorial := combinatorialScore(courses, faculty, rooms, timeSlots, batches)
	constraint := constraintScore(len(dataset.HardConstraints), len(dataset.SoftConstraints))
	competition := competitionScore(courses, faculty, rooms, timeSlots)
	density := densityScore(courses, timeSlots, batches)

	overall := models.OverallFrom(combinatorial, constraint, competition, density)
	difficulty := models.ClassifyDifficulty(overall)

	s.logger.Info("complexity analysis completed",
		zap.Float64("overall", overall),
		zap.String("difficulty", string(difficulty)),
	)

	return models.ComplexityProfile{
		Combinatorial:        combinatorial,
		ConstraintComplexity: constraint,
		ResourceCompetition:  competition,
		ScheduleDensity:      density,
		Overall:              overall,
		Difficulty:           difficulty,
		AnalyzedAt:           time.Now().UTC(),
		Metrics: map[string]int{
			"courses":          courses,
			"faculty":          faculty,
			"rooms":            rooms,
			"time_slots":       timeSlots,
			"batches":          batches,
			"hard_constraints": len(dataset.HardConstraints),
			"soft_constraints": len(dataset.SoftConstraints),
		},
	}
}

func neutralProfile() models.ComplexityProfile {
	return models.ComplexityProfile{
		Combinatorial:        5.0,
		ConstraintComplexity: 5.0,
		ResourceCompetition:  5.0,
		ScheduleDensity:      5.0,
		Overall:              5.0,
		Difficulty:           models.DifficultyModerate,
		AnalyzedAt:           time.Now().UTC(),
	}
}

// combinatorialScore maps the effective decision space onto [1,10] using
// piecewise-linear bands with breakpoints at 100, 1000, 10000 and 100000.
// A missing entity collection makes the dataset unschedulable, which is
// maximal complexity.
func combinatorialScore(courses, faculty, rooms, timeSlots, batches int) float64 {
	if courses == 0 || faculty == 0 || rooms == 0 || timeSlots == 0 || batches == 0 {
		return 10.0
	}

	decisionSpace := float64(courses) * float64(timeSlots) * float64(batches)
	facultyReduction := math.Min(1.0, float64(faculty)/float64(courses))
	roomReduction := math.Min(1.0, float64(rooms)/(float64(courses)*0.3))
	effective := decisionSpace * facultyReduction * roomReduction

	switch {
	case effective < 100:
		return 1.0 + (effective/100)*2
	case effective < 1000:
		return 3.0 + ((effective-100)/900)*2
	case effective < 10000:
		return 5.0 + ((effective-1000)/9000)*2
	case effective < 100000:
		return 7.0 + ((effective-10000)/90000)*2
	default:
		return 9.0 + math.Min(1.0, (effective-100000)/900000)
	}
}

// constraintScore weights hard constraints double, normalises by 5 and
// amplifies by an interdependency factor once more than five constraints
// interact.
func constraintScore(hard, soft int) float64 {
	total := hard + soft
	if total == 0 {
		return 1.0
	}

	score := (float64(hard)*2.0 + float64(soft)*1.0) / 5.0

	interdependency := 1.0
	if total > 5 {
		interdependency = 1.0 + float64(total-5)*0.1
	}

	return math.Min(10.0, score*interdependency)
}

// competitionScore combines demand pressure on faculty (60%) and on rooms
// across the week (40%), each capped at 10. Room supply assumes a 70%
// utilisation target.
func competitionScore(courses, faculty, rooms, timeSlots int) float64 {
	if courses == 0 || faculty == 0 || rooms == 0 || timeSlots == 0 {
		return 8.0
	}

	facultyRatio := float64(courses) / float64(faculty)
	facultyCompetition := math.Min(10.0, (facultyRatio-1)*2)

	roomSupply := float64(rooms) * float64(timeSlots) * 0.7
	roomCompetition := math.Min(10.0, (float64(courses)/roomSupply)*5)

	return facultyCompetition*0.6 + roomCompetition*0.4
}

// densityScore assumes three required sessions per course per batch per week
// against the weekly slot supply over five teaching days.
func densityScore(courses, timeSlots, batches int) float64 {
	if courses == 0 || timeSlots == 0 || batches == 0 {
		return 5.0
	}

	required := float64(courses) * float64(batches) * 3
	available := float64(timeSlots) * 5

	return math.Min(10.0, (required/available)*10)
}
