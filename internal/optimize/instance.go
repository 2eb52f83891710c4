// Package optimize turns a benefit matrix into budget-constrained strategy
// selections: one solve per (threshold, budget) pair, and sweeps over grids
// of them.
package optimize

import (
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
)

// InstanceOptions are the per-request settings shared by every threshold of
// a sweep.
type InstanceOptions struct {
	BaselineIndex int
	// AllIndex is the row of the "apply every strategy" sentinel in the raw
	// matrix, or benefit.NoSentinel.
	AllIndex int
	Combos   []benefit.Combo
	Weights  benefit.Weights
}

// Instance is one preprocessed problem at a fixed threshold. It is never
// shared between thresholds.
type Instance struct {
	Threshold  float64
	Matrix     *benefit.Matrix
	Costs      benefit.CostVector
	AllIndex   int
	Baseline   benefit.Baseline
	Weights    benefit.Weights
	Composites benefit.Composites
}

// NewInstance runs the preprocessing chain on raw: round and align costs,
// threshold, extract the baseline, then apply the combos in order.
func NewInstance(raw *benefit.Matrix, costs benefit.CostVector, opts InstanceOptions, threshold float64) (*Instance, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, &benefit.ValidationError{Field: "threshold", Reason: fmt.Sprintf("must be a finite number, got %v", threshold)}
	}

	rounded, aligned, err := benefit.Prepare(raw, costs)
	if err != nil {
		return nil, err
	}
	bin := benefit.Threshold(rounded, threshold)

	reduced, reducedCosts, allIndex, base, err := benefit.ExtractBaseline(bin, aligned, opts.BaselineIndex, opts.AllIndex)
	if err != nil {
		return nil, err
	}

	m, c, reg, err := benefit.ApplyCombos(reduced, reducedCosts, opts.Combos)
	if err != nil {
		return nil, fmt.Errorf("applying combos: %w", err)
	}
	if err := opts.Weights.Validate(m); err != nil {
		return nil, err
	}

	return &Instance{
		Threshold:  threshold,
		Matrix:     m,
		Costs:      c,
		AllIndex:   allIndex,
		Baseline:   base,
		Weights:    opts.Weights,
		Composites: reg,
	}, nil
}

// cheapest returns the lowest strategy cost, or +Inf when there are none.
func (in *Instance) cheapest() float64 {
	min := math.Inf(1)
	for i := 0; i < in.Costs.Len(); i++ {
		if v := in.Costs.Value(i); v < min {
			min = v
		}
	}
	return min
}
