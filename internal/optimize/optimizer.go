package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
)

type Optimizer struct {
	solver ilp.Solver
	logger *slog.Logger
}

func New(solver ilp.Solver, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{solver: solver, logger: logger}
}

// Solve selects strategies for one instance under budget.
//
// A zero budget short-circuits to the baseline. An empty instance, or a
// budget below every strategy's cost, is reported as StatusInfeasible rather
// than as an empty selection. Solver failures other than infeasibility are
// returned as errors.
func (o *Optimizer) Solve(ctx context.Context, inst *Instance, budget float64) (*Result, error) {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget < 0 {
		return nil, &benefit.ValidationError{Field: "budget", Reason: fmt.Sprintf("must be a non-negative number, got %v", budget)}
	}
	if budget == 0 {
		return baselineResult(inst, budget, StatusBaseline), nil
	}
	if inst.Matrix.Rows() == 0 || inst.Matrix.Cols() == 0 || budget < inst.cheapest() {
		return baselineResult(inst, budget, StatusInfeasible), nil
	}

	cm, err := BuildModel(inst, budget)
	if err != nil {
		return nil, err
	}
	a, err := o.solver.Solve(ctx, cm.Model)
	if errors.Is(err, ilp.ErrInfeasible) {
		o.logger.Debug("solver reported infeasible", "threshold", inst.Threshold, "budget", budget)
		return baselineResult(inst, budget, StatusInfeasible), nil
	}
	if err != nil {
		return nil, fmt.Errorf("solving threshold %v budget %v: %w", inst.Threshold, budget, err)
	}

	r := Parse(a, cm, inst, budget)
	o.logger.Debug("solved",
		"threshold", inst.Threshold,
		"budget", budget,
		"species", r.SpeciesCount,
		"total_cost", r.TotalCost,
		"nodes", a.Nodes,
	)
	return r, nil
}
