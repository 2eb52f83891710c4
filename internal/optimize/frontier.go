package optimize

// Frontier returns the feasible results no other feasible result beats on
// both axes: lower or equal total cost with more species, or strictly lower
// cost with at least as many species. Input order is kept.
func Frontier(results []*Result) []*Result {
	var frontier []*Result
	for i, r := range results {
		if !r.Feasible() {
			continue
		}
		dominated := false
		for j, other := range results {
			if i == j || !other.Feasible() {
				continue
			}
			if dominates(other, r) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, r)
		}
	}
	return frontier
}

// dominates reports whether a is no worse than b on cost and species count
// and strictly better on one of them.
func dominates(a, b *Result) bool {
	if a.TotalCost > b.TotalCost || a.SpeciesCount < b.SpeciesCount {
		return false
	}
	return a.TotalCost < b.TotalCost || a.SpeciesCount > b.SpeciesCount
}
