package models

import "time"

// DifficultyLevel classifies how hard a dataset is to schedule.
type DifficultyLevel string

const (
	DifficultySimple   DifficultyLevel = "SIMPLE"
	DifficultyModerate DifficultyLevel = "MODERATE"
	DifficultyComplex  DifficultyLevel = "COMPLEX"
	DifficultyExtreme  DifficultyLevel = "EXTREME"
)

// Weights used to fold the four dimension scores into the overall score.
// The same weights drive solver match scoring.
const (
	WeightCombinatorial = 0.35
	WeightConstraint    = 0.30
	WeightCompetition   = 0.20
	WeightDensity       = 0.15
)

// ClassifyDifficulty maps an overall complexity score onto the ordinal
// difficulty scale.
func ClassifyDifficulty(overall float64) DifficultyLevel {
	switch {
	case overall <= 3.0:
		return DifficultySimple
	case overall <= 5.0:
		return DifficultyModerate
	case overall <= 7.5:
		return DifficultyComplex
	default:
		return DifficultyExtreme
	}
}

// ComplexityProfile describes how hard a dataset is to schedule across four
// dimensions plus the derived overall score. Immutable once computed.
type ComplexityProfile struct {
	Combinatorial        float64         `json:"combinatorial_score"`
	ConstraintComplexity float64         `json:"constraint_complexity"`
	ResourceCompetition  float64         `json:"resource_competition"`
	ScheduleDensity      float64         `json:"schedule_density"`
	Overall              float64         `json:"overall_complexity"`
	Difficulty           DifficultyLevel `json:"difficulty_level"`
	AnalyzedAt           time.Time       `json:"analyzed_at"`
	Metrics              map[string]int  `json:"processing_metrics,omitempty"`
}

// OverallFrom computes the weighted overall score for the four sub-scores.
func OverallFrom(combinatorial, constraint, competition, density float64) float64 {
	return combinatorial*WeightCombinatorial +
		constraint*WeightConstraint +
		competition*WeightCompetition +
		density*WeightDensity
}
