package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

// ThresholdService turns a validation report into the final accept/reject
// verdict. Five independent thresholds are evaluated; a single failure fails
// the gate. The gate never raises: malformed input rejects with a marker.
type ThresholdService struct {
	logger *zap.Logger
}

// NewThresholdService constructs the gate.
func NewThresholdService(logger *zap.Logger) *ThresholdService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThresholdService{logger: logger}
}

// Decide evaluates every threshold against the report. Ratios are computed
// over the real entry count; zero entries define the ratio as 0 so the gate
// stays deterministic.
func (s *ThresholdService) Decide(report *models.ValidationReport) models.ThresholdDecision {
	if report == nil {
		return models.ThresholdDecision{
			Accepted: false,
			Reason:   "no validation report supplied",
		}
	}

	criticalRatio := 0.0
	totalRatio := 0.0
	if report.EntryCount > 0 {
		criticalRatio = float64(report.CriticalViolations) / float64(report.EntryCount)
		totalRatio = float64(report.TotalViolations) / float64(report.EntryCount)
	}

	checks := []models.ThresholdCheck{
		{Name: models.CheckCriticalRatio, Value: criticalRatio, Limit: models.ThresholdCriticalRatio, Passed: criticalRatio <= models.ThresholdCriticalRatio},
		{Name: models.CheckTotalRatio, Value: totalRatio, Limit: models.ThresholdTotalRatio, Passed: totalRatio <= models.ThresholdTotalRatio},
		{Name: models.CheckWeightedScore, Value: report.WeightedScore, Limit: models.ThresholdWeightedScore, Passed: report.WeightedScore <= models.ThresholdWeightedScore},
		{Name: models.CheckQualityScore, Value: report.QualityScore, Limit: models.ThresholdQualityScore, Passed: report.QualityScore >= models.ThresholdQualityScore},
		{Name: models.CheckFeasibilityScore, Value: report.FeasibilityScore, Limit: models.ThresholdFeasibilityScore, Passed: report.FeasibilityScore >= models.ThresholdFeasibilityScore},
	}

	accepted := true
	failed := make([]string, 0)
	for _, check := range checks {
		if !check.Passed {
			accepted = false
			failed = append(failed, check.Name)
		}
	}

	decision := models.ThresholdDecision{
		Accepted: accepted,
		Checks:   checks,
		Failed:   failed,
	}
	if !accepted {
		decision.Reason = "thresholds failed: " + strings.Join(failed, ", ")
	}

	s.logger.Info("threshold gate evaluated",
		zap.Bool("accepted", accepted),
		zap.Strings("failed", failed),
	)
	return decision
}
