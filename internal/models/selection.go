package models

// RankedSolver pairs a catalog entry name with its match score.
type RankedSolver struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SolverSelection is the outcome of matching a complexity profile against the
// solver catalog. Created once per run, read-only afterwards.
type SolverSelection struct {
	SolverName   string             `json:"selected_solver"`
	Score        float64            `json:"selection_score"`
	AllScores    map[string]float64 `json:"all_solver_scores"`
	Rationale    string             `json:"selection_rationale"`
	Confidence   float64            `json:"confidence_level"`
	Alternatives []RankedSolver     `json:"alternative_solvers"`
}
