package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/akademika/timetable-engine/internal/models"
	"github.com/akademika/timetable-engine/internal/solver"
)

// SelectorService matches a complexity profile against the solver catalog and
// picks the best fitting algorithm. Selection never fails: internal faults
// degrade to the first catalog entry with a conservative score.
type SelectorService struct {
	registry *solver.Registry
	logger   *zap.Logger
}

// NewSelectorService constructs the selector over a catalog.
func NewSelectorService(registry *solver.Registry, logger *zap.Logger) *SelectorService {
	if registry == nil {
		registry = solver.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectorService{registry: registry, logger: logger}
}

// Registry exposes the catalog for downstream solver lookup.
func (s *SelectorService) Registry() *solver.Registry {
	return s.registry
}

// Lookup finds a catalog entry by name.
func (s *SelectorService) Lookup(name string) (solver.Solver, bool) {
	return s.registry.Lookup(name)
}

// Select scores every catalog entry against the profile and returns the
// ranked selection. Ties go to the earlier catalog entry.
func (s *SelectorService) Select(profile models.ComplexityProfile) (selection models.SolverSelection) {
	catalog := s.registry.List()
	if len(catalog) == 0 {
		s.logger.Error("solver catalog is empty")
		return models.SolverSelection{Rationale: "no solvers registered"}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("solver selection failed", zap.Any("panic", r))
			fallback := catalog[0]
			selection = models.SolverSelection{
				SolverName: fallback.Name(),
				Score:      0.7,
				AllScores:  map[string]float64{fallback.Name(): 0.7},
				Rationale:  "Default selection due to analysis error",
				Confidence: 0.5,
			}
		}
	}()

	scores := make(map[string]float64, len(catalog))
	var best solver.Solver
	bestScore := math.Inf(-1)
	minScore := math.Inf(1)
	maxScore := math.Inf(-1)

	for _, entry := range catalog {
		score := matchScore(profile, entry)
		scores[entry.Name()] = score
		if score > bestScore {
			best = entry
			bestScore = score
		}
		minScore = math.Min(minScore, score)
		maxScore = math.Max(maxScore, score)
	}

	alternatives := make([]models.RankedSolver, 0, len(catalog)-1)
	for _, entry := range catalog {
		if entry.Name() == best.Name() {
			continue
		}
		alternatives = append(alternatives, models.RankedSolver{Name: entry.Name(), Score: scores[entry.Name()]})
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Score > alternatives[j].Score
	})

	confidence := math.Min(1.0, bestScore*(1.0+(maxScore-minScore)))

	selection = models.SolverSelection{
		SolverName:   best.Name(),
		Score:        bestScore,
		AllScores:    scores,
		Rationale:    buildRationale(best.Name(), profile, bestScore),
		Confidence:   confidence,
		Alternatives: alternatives,
	}

	s.logger.Info("solver selected",
		zap.String("solver", selection.SolverName),
		zap.Float64("score", selection.Score),
		zap.Float64("confidence", selection.Confidence),
	)
	return selection
}

// matchScore combines per-dimension fit with the overall suitability penalty,
// clamped to [0,1]. Dimension weights mirror the overall complexity weights.
func matchScore(profile models.ComplexityProfile, entry solver.Solver) float64 {
	ranges := entry.PreferredRanges()

	weighted := scoreDimension(profile.Combinatorial, ranges.Combinatorial)*models.WeightCombinatorial +
		scoreDimension(profile.ConstraintComplexity, ranges.Constraint)*models.WeightConstraint +
		scoreDimension(profile.ResourceCompetition, ranges.Competition)*models.WeightCompetition +
		scoreDimension(profile.ScheduleDensity, ranges.Density)*models.WeightDensity

	if profile.Overall > entry.SuitabilityThreshold() {
		weighted -= (profile.Overall - entry.SuitabilityThreshold()) * 0.1
	}

	return math.Max(0.0, math.Min(1.0, weighted))
}

// scoreDimension is 1.0 inside the preferred interval and decays linearly
// outside it: below, proportional to the interval's lower bound; above,
// proportional to the headroom remaining up to 10.
func scoreDimension(actual float64, preferred solver.DimensionRange) float64 {
	if preferred.Contains(actual) {
		return 1.0
	}
	if actual < preferred.Min {
		distance := preferred.Min - actual
		return math.Max(0.0, 1.0-distance/preferred.Min)
	}
	distance := actual - preferred.Max
	headroom := 10.0 - preferred.Max
	return math.Max(0.0, 1.0-distance/headroom)
}

func buildRationale(solverName string, profile models.ComplexityProfile, score float64) string {
	parts := []string{
		fmt.Sprintf("Selected %s based on complexity analysis:", solverName),
		fmt.Sprintf("• Problem complexity: %s (%.1f/10)", profile.Difficulty, profile.Overall),
		fmt.Sprintf("• Solver match score: %.3f/1.0", score),
		"• Key factors:",
	}
	if profile.Combinatorial > 7 {
		parts = append(parts, "  - High combinatorial complexity detected")
	}
	if profile.ConstraintComplexity > 6 {
		parts = append(parts, "  - Complex constraint interactions present")
	}
	if profile.ResourceCompetition > 7 {
		parts = append(parts, "  - Significant resource competition identified")
	}
	if profile.ScheduleDensity > 6 {
		parts = append(parts, "  - Dense scheduling requirements found")
	}
	return strings.Join(parts, "\n")
}
