package benefit

// NoSentinel marks the absence of an "apply every strategy" row.
const NoSentinel = -1

// Baseline is the banked coverage of the no-action strategy. It is free by
// definition, so TotalCost is always zero.
type Baseline struct {
	Strategy  string   `json:"strategy"`
	Species   []string `json:"species"`
	TotalCost float64  `json:"total_cost"`
}

// ExtractBaseline removes the baseline row and every species column it
// covers, banking those species. The sentinel index is shifted down by one
// when it sat after the removed row.
func ExtractBaseline(m *Matrix, costs CostVector, baselineIndex, allIndex int) (*Matrix, CostVector, int, Baseline, error) {
	if baselineIndex < 0 || baselineIndex >= m.Rows() {
		return nil, CostVector{}, 0, Baseline{}, invalid("baseline_index", "%d out of range for %d strategies", baselineIndex, m.Rows())
	}
	if allIndex != NoSentinel {
		if allIndex < 0 || allIndex >= m.Rows() {
			return nil, CostVector{}, 0, Baseline{}, invalid("all_index", "%d out of range for %d strategies", allIndex, m.Rows())
		}
		if allIndex == baselineIndex {
			return nil, CostVector{}, 0, Baseline{}, invalid("all_index", "sentinel and baseline cannot be the same row")
		}
	}
	if costs.Len() != m.Rows() {
		return nil, CostVector{}, 0, Baseline{}, invalid("costs", "%d costs for %d strategies", costs.Len(), m.Rows())
	}

	name := m.strategies[baselineIndex]
	covered := make([]bool, m.Cols())
	banked := []string{}
	for j := 0; j < m.Cols(); j++ {
		if m.At(baselineIndex, j) > 0 {
			covered[j] = true
			banked = append(banked, m.species[j])
		}
	}

	strategies := make([]string, 0, m.Rows()-1)
	for i, s := range m.strategies {
		if i != baselineIndex {
			strategies = append(strategies, s)
		}
	}
	species := make([]string, 0, m.Cols()-len(banked))
	for j, s := range m.species {
		if !covered[j] {
			species = append(species, s)
		}
	}
	values := make([]float64, 0, len(strategies)*len(species))
	for i := 0; i < m.Rows(); i++ {
		if i == baselineIndex {
			continue
		}
		for j := 0; j < m.Cols(); j++ {
			if !covered[j] {
				values = append(values, m.At(i, j))
			}
		}
	}

	reduced, err := newMatrix(strategies, species, values)
	if err != nil {
		return nil, CostVector{}, 0, Baseline{}, err
	}
	reduced.warnings = m.warnings

	pos, ok := costs.index[name]
	if !ok {
		return nil, CostVector{}, 0, Baseline{}, invalid("costs", "no cost for baseline strategy %q", name)
	}
	reducedCosts := costs.without(pos)

	if allIndex > baselineIndex {
		allIndex--
	}

	return reduced, reducedCosts, allIndex, Baseline{Strategy: name, Species: banked}, nil
}
