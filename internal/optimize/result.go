package optimize

import (
	"strings"

	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
)

// Status distinguishes a solved selection from the degenerate outcomes.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusBaseline   Status = "baseline"
	StatusInfeasible Status = "infeasible"
)

// SignatureSeparator joins species names into a result's dedup signature.
const SignatureSeparator = " | "

// Result is one (threshold, budget) outcome.
type Result struct {
	SpeciesCount int      `json:"species_count"`
	TotalCost    float64  `json:"total_cost"`
	Threshold    float64  `json:"threshold"`
	SpeciesNames []string `json:"species_names"`
	Strategies   []string `json:"strategies"`
	Budget       float64  `json:"budget"`
	Status       Status   `json:"status"`
}

// Signature identifies results that cover exactly the same species list.
func (r *Result) Signature() string {
	return strings.Join(r.SpeciesNames, SignatureSeparator)
}

func (r *Result) Feasible() bool { return r.Status != StatusInfeasible }

// Parse reads the credited (strategy, species) pairs out of a and reports
// them with the banked baseline species appended. Baseline names are not
// deduplicated against the credited ones.
func Parse(a *ilp.Assignment, cm *CoverageModel, inst *Instance, budget float64) *Result {
	m := inst.Matrix
	usedStrategy := make([]bool, m.Rows())
	usedSpecies := make([]bool, m.Cols())
	for i, row := range cm.X {
		for j, v := range row {
			if a.Value(v) {
				usedStrategy[i] = true
				usedSpecies[j] = true
			}
		}
	}

	strategies := []string{}
	var total float64
	for i, used := range usedStrategy {
		if used {
			strategies = append(strategies, m.Strategy(i))
			total += inst.Costs.Value(i)
		}
	}
	species := []string{}
	for j, used := range usedSpecies {
		if used {
			species = append(species, m.SpeciesName(j))
		}
	}
	species = append(species, inst.Baseline.Species...)

	return &Result{
		SpeciesCount: len(species),
		TotalCost:    total,
		Threshold:    inst.Threshold,
		SpeciesNames: species,
		Strategies:   strategies,
		Budget:       budget,
		Status:       StatusOptimal,
	}
}

// baselineResult reports only the banked species at zero cost.
func baselineResult(inst *Instance, budget float64, status Status) *Result {
	species := append([]string{}, inst.Baseline.Species...)
	return &Result{
		SpeciesCount: len(species),
		TotalCost:    0,
		Threshold:    inst.Threshold,
		SpeciesNames: species,
		Strategies:   []string{},
		Budget:       budget,
		Status:       status,
	}
}
