package solver

import (
	"context"

	"github.com/akademika/timetable-engine/internal/models"
)

// DimensionRange is a closed interval of complexity scores a solver prefers.
type DimensionRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether value lies inside the interval.
func (r DimensionRange) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// PreferredRanges declares the per-dimension comfort zone of a solver.
type PreferredRanges struct {
	Combinatorial DimensionRange `json:"combinatorial"`
	Constraint    DimensionRange `json:"constraint"`
	Competition   DimensionRange `json:"competition"`
	Density       DimensionRange `json:"density"`
}

// Solver is the capability contract every pluggable scheduling algorithm
// implements. Capability metadata is static; Solve does the actual work.
type Solver interface {
	Name() string
	PreferredRanges() PreferredRanges
	SuitabilityThreshold() float64
	Solve(ctx context.Context, dataset *models.Dataset) (*models.ScheduleAssignment, error)
}

// Registry holds the process-wide solver catalog in declaration order.
// Declaration order breaks selection ties, so it is part of the contract.
type Registry struct {
	solvers []Solver
	byName  map[string]Solver
}

// NewRegistry builds a registry from the provided solvers.
func NewRegistry(solvers ...Solver) *Registry {
	byName := make(map[string]Solver, len(solvers))
	for _, s := range solvers {
		byName[s.Name()] = s
	}
	return &Registry{solvers: solvers, byName: byName}
}

// DefaultRegistry returns the standard catalog: greedy construction first,
// then the exact and constraint-driven strategies.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewGreedyBestFit(),
		NewIntegerProgramming(),
		NewConstraintPropagation(),
	)
}

// List returns the catalog in declaration order.
func (r *Registry) List() []Solver {
	return r.solvers
}

// Lookup finds a solver by name.
func (r *Registry) Lookup(name string) (Solver, bool) {
	s, ok := r.byName[name]
	return s, ok
}
