package optimize

import (
	"fmt"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
)

// CoverageModel is the binary program for one instance and budget, together
// with the variable layout needed to read an assignment back.
type CoverageModel struct {
	*ilp.Model
	// Y[i] is set when strategy i is selected.
	Y []int
	// X[i][j] is set when species j is credited to strategy i. Pairs that
	// could only lower the objective are not modelled and hold -1.
	X [][]int
}

// BuildModel formulates the selection problem:
//
//	maximise   sum B[i,j] * w[j] * X[i,j]
//	subject to sum_i X[i,j] <= 1            for every species j
//	           X[i,j] <= y[i]               for every pair
//	           y[a] + y[i] <= 1             for the sentinel a and every i != a
//	           sum cost[i] * y[i] <= budget
//
// The model also carries a greedy start, branching priorities that put the
// y variables first, and a coverage bound for the solver.
func BuildModel(inst *Instance, budget float64) (*CoverageModel, error) {
	m := inst.Matrix
	rows, cols := m.Rows(), m.Cols()
	if inst.Costs.Len() != rows {
		return nil, &benefit.ValidationError{Field: "costs", Reason: fmt.Sprintf("%d costs for %d strategies", inst.Costs.Len(), rows)}
	}
	if inst.AllIndex != benefit.NoSentinel && (inst.AllIndex < 0 || inst.AllIndex >= rows) {
		return nil, &benefit.ValidationError{Field: "all_index", Reason: fmt.Sprintf("%d out of range for %d strategies", inst.AllIndex, rows)}
	}

	cm := &CoverageModel{Model: ilp.NewModel(), Y: make([]int, rows), X: make([][]int, rows)}
	cov := newCoverage(inst, budget)
	for i := 0; i < rows; i++ {
		cm.Y[i] = cm.AddVar("y["+m.Strategy(i)+"]", 0)
	}
	for i := 0; i < rows; i++ {
		cm.X[i] = make([]int, cols)
		for j := 0; j < cols; j++ {
			cm.X[i][j] = -1
			if g := cov.gain[i][j]; g > 0 {
				cm.X[i][j] = cm.AddVar("x["+m.Strategy(i)+","+m.SpeciesName(j)+"]", g)
			}
		}
	}

	cov.y, cov.x = cm.Y, cm.X

	for j := 0; j < cols; j++ {
		var terms []ilp.Term
		for i := 0; i < rows; i++ {
			if v := cm.X[i][j]; v >= 0 {
				terms = append(terms, ilp.Term{Var: v, Coef: 1})
			}
		}
		if len(terms) > 0 {
			cm.AddConstraint("credit_once["+m.SpeciesName(j)+"]", ilp.LessEq, 1, terms...)
		}
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if cm.X[i][j] < 0 {
				continue
			}
			cm.AddConstraint("link["+m.Strategy(i)+","+m.SpeciesName(j)+"]", ilp.LessEq, 0,
				ilp.Term{Var: cm.X[i][j], Coef: 1},
				ilp.Term{Var: cm.Y[i], Coef: -1},
			)
		}
	}

	if a := inst.AllIndex; a != benefit.NoSentinel {
		for i := 0; i < rows; i++ {
			if i == a {
				continue
			}
			cm.AddConstraint("exclusive["+m.Strategy(i)+"]", ilp.LessEq, 1,
				ilp.Term{Var: cm.Y[a], Coef: 1},
				ilp.Term{Var: cm.Y[i], Coef: 1},
			)
		}
	}

	budgetTerms := make([]ilp.Term, rows)
	for i := 0; i < rows; i++ {
		budgetTerms[i] = ilp.Term{Var: cm.Y[i], Coef: inst.Costs.Value(i)}
	}
	cm.AddConstraint("budget", ilp.LessEq, budget, budgetTerms...)

	for rank, i := range cov.byRatio() {
		cm.SetPriority(cm.Y[i], rows-rank)
	}
	cm.SetStart(cov.start(cm.NumVars(), cov.greedy()))
	cm.SetBounder(cov)

	return cm, nil
}
