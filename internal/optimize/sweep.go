package optimize

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
)

// SweepRequest describes a threshold x budget grid over one raw matrix.
type SweepRequest struct {
	Matrix        *benefit.Matrix
	Costs         benefit.CostVector
	BaselineIndex int
	AllIndex      int
	Thresholds    []float64
	// Budgets is the explicit ladder. When empty, the ladder is generated
	// from the first threshold's working costs and reused for every
	// threshold.
	Budgets []float64
	Combos  []benefit.Combo
	Weights benefit.Weights
	// Workers > 1 solves grid points concurrently. Output is identical to
	// the sequential run.
	Workers int
}

type SweepResult struct {
	Results   []*Result `json:"results"`
	Budgets   []float64 `json:"budgets"`
	Evaluated int       `json:"evaluated"`
}

// Sweep solves every (threshold, budget) pair, thresholds in request order
// and budgets ascending, then drops results whose species signature was
// already seen. Any error aborts the whole sweep.
func (o *Optimizer) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if req.Matrix == nil {
		return nil, &benefit.ValidationError{Field: "matrix", Reason: "is required"}
	}
	if len(req.Thresholds) == 0 {
		return nil, &benefit.ValidationError{Field: "thresholds", Reason: "at least one threshold is required"}
	}
	start := time.Now()

	opts := InstanceOptions{
		BaselineIndex: req.BaselineIndex,
		AllIndex:      req.AllIndex,
		Combos:        req.Combos,
		Weights:       req.Weights,
	}
	instances := make([]*Instance, len(req.Thresholds))
	for k, t := range req.Thresholds {
		inst, err := NewInstance(req.Matrix, req.Costs, opts, t)
		if err != nil {
			return nil, fmt.Errorf("threshold %v: %w", t, err)
		}
		instances[k] = inst
	}
	for _, w := range instances[0].Matrix.Warnings() {
		o.logger.Warn("benefit matrix", "warning", w)
	}

	var budgets []float64
	if len(req.Budgets) > 0 {
		budgets = sortedUnique(req.Budgets)
	} else {
		budgets = MakeBudget(instances[0].Costs.Values())
	}

	grid := make([]*Result, len(instances)*len(budgets))
	var err error
	if req.Workers > 1 {
		err = o.solveParallel(ctx, instances, budgets, grid, req.Workers)
	} else {
		err = o.solveSequential(ctx, instances, budgets, grid)
	}
	if err != nil {
		return nil, err
	}

	results := Dedup(grid)
	o.logger.Info("sweep complete",
		"thresholds", len(instances),
		"budgets", len(budgets),
		"evaluated", len(grid),
		"retained", len(results),
		"duration", time.Since(start),
	)
	return &SweepResult{Results: results, Budgets: budgets, Evaluated: len(grid)}, nil
}

func (o *Optimizer) solveSequential(ctx context.Context, instances []*Instance, budgets []float64, grid []*Result) error {
	for ti, inst := range instances {
		for bi, b := range budgets {
			r, err := o.Solve(ctx, inst, b)
			if err != nil {
				return err
			}
			grid[ti*len(budgets)+bi] = r
		}
	}
	return nil
}

// solveParallel fills grid at the same positions as solveSequential, so the
// dedup that follows sees the canonical order.
func (o *Optimizer) solveParallel(ctx context.Context, instances []*Instance, budgets []float64, grid []*Result, workers int) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ti, inst := range instances {
		for bi, b := range budgets {
			idx := ti*len(budgets) + bi
			inst, b := inst, b
			g.Go(func() error {
				r, err := o.Solve(gCtx, inst, b)
				if err != nil {
					return err
				}
				grid[idx] = r
				return nil
			})
		}
	}
	return g.Wait()
}

// Dedup keeps the first result for each species signature, in input order.
func Dedup(results []*Result) []*Result {
	seen := make(map[string]bool, len(results))
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		sig := r.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, r)
	}
	return out
}
