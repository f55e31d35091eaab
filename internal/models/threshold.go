package models

// Gate threshold constants. Ratios are computed against the real number of
// assignment entries; an empty assignment yields ratio 0.
const (
	ThresholdCriticalRatio    = 0.05
	ThresholdTotalRatio       = 0.15
	ThresholdWeightedScore    = 25.0
	ThresholdQualityScore     = 7.0
	ThresholdFeasibilityScore = 0.95
)

// Gate threshold names, reported verbatim in decisions.
const (
	CheckCriticalRatio    = "critical_violation_ratio"
	CheckTotalRatio       = "total_violation_ratio"
	CheckWeightedScore    = "weighted_violation_score"
	CheckQualityScore     = "quality_score"
	CheckFeasibilityScore = "feasibility_score"
)

// ThresholdCheck is the outcome of evaluating one named threshold.
type ThresholdCheck struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Limit  float64 `json:"limit"`
	Passed bool    `json:"passed"`
}

// ThresholdDecision is the final accept/reject verdict. Accepted is the
// logical AND of every check.
type ThresholdDecision struct {
	Accepted bool             `json:"accepted"`
	Checks   []ThresholdCheck `json:"checks"`
	Failed   []string         `json:"failed_thresholds,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}
