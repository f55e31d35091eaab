package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
)

func TestThresholdServiceAcceptsCleanReport(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	decision := svc.Decide(&models.ValidationReport{
		Status:             models.ReportWarning,
		EntryCount:         50,
		TotalViolations:    5,
		CriticalViolations: 1,
		WeightedScore:      20.0,
		QualityScore:       8.0,
		FeasibilityScore:   0.98,
	})

	require.True(t, decision.Accepted)
	assert.Len(t, decision.Checks, 5)
	assert.Empty(t, decision.Failed)
	assert.Empty(t, decision.Reason)
}

func TestThresholdServiceSingleFailureRejects(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	// 2/50 critical passes the 0.05 ratio but the weighted score breaches 25.
	decision := svc.Decide(&models.ValidationReport{
		EntryCount:         50,
		TotalViolations:    6,
		CriticalViolations: 2,
		WeightedScore:      30.0,
		QualityScore:       8.0,
		FeasibilityScore:   0.96,
	})

	require.False(t, decision.Accepted)
	assert.Equal(t, []string{models.CheckWeightedScore}, decision.Failed)
	assert.Contains(t, decision.Reason, models.CheckWeightedScore)
}

func TestThresholdServiceReportsEveryFailedCheck(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	decision := svc.Decide(&models.ValidationReport{
		EntryCount:         10,
		TotalViolations:    8,
		CriticalViolations: 3,
		WeightedScore:      60.0,
		QualityScore:       4.0,
		FeasibilityScore:   0.7,
	})

	require.False(t, decision.Accepted)
	assert.Len(t, decision.Failed, 5)
}

func TestThresholdServiceZeroEntriesDefineRatiosAsZero(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	decision := svc.Decide(&models.ValidationReport{
		EntryCount:       0,
		QualityScore:     10.0,
		FeasibilityScore: 1.0,
	})

	require.True(t, decision.Accepted)
	for _, check := range decision.Checks {
		if check.Name == models.CheckCriticalRatio || check.Name == models.CheckTotalRatio {
			assert.Zero(t, check.Value)
		}
	}
}

func TestThresholdServiceBoundaryValuesPass(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	// Every metric sits exactly on its limit; limits are inclusive.
	decision := svc.Decide(&models.ValidationReport{
		EntryCount:         100,
		TotalViolations:    15,
		CriticalViolations: 5,
		WeightedScore:      models.ThresholdWeightedScore,
		QualityScore:       models.ThresholdQualityScore,
		FeasibilityScore:   models.ThresholdFeasibilityScore,
	})

	assert.True(t, decision.Accepted)
}

func TestThresholdServiceNilReportRejected(t *testing.T) {
	svc := NewThresholdService(zap.NewNop())

	decision := svc.Decide(nil)
	require.False(t, decision.Accepted)
	assert.Equal(t, "no validation report supplied", decision.Reason)
	assert.Empty(t, decision.Checks)
}
