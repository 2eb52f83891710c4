package benefit

import "math"

// Weights scales each species' contribution to the objective. A nil Weights
// means every species counts once. Weights never affect cost or budget.
type Weights map[string]float64

// Validate checks that every species of m has a non-negative finite weight.
func (w Weights) Validate(m *Matrix) error {
	if w == nil {
		return nil
	}
	for _, s := range m.species {
		v, ok := w[s]
		if !ok {
			return invalid("weights", "no weight for species %q", s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return invalid("weights", "weight of %q must be a non-negative number, got %v", s, v)
		}
	}
	return nil
}

// Of returns the weight of a species, 1 when no weights are set.
func (w Weights) Of(species string) float64 {
	if w == nil {
		return 1
	}
	return w[species]
}
