package optimize

import "sort"

// MakeBudget builds the ladder of budgets at which a new strategy or a new
// run of cheapest strategies first becomes affordable: 0, then the sorted
// union of individual costs and prefix sums of the sorted costs, capped at
// the largest single cost. The result is strictly increasing.
func MakeBudget(costs []float64) []float64 {
	if len(costs) == 0 {
		return []float64{0}
	}
	sorted := append([]float64(nil), costs...)
	sort.Float64s(sorted)
	max := sorted[len(sorted)-1]

	points := make([]float64, 0, 2*len(sorted)+1)
	points = append(points, 0)
	var sum float64
	for _, c := range sorted {
		sum += c
		points = append(points, c)
		if sum <= max {
			points = append(points, sum)
		}
	}
	return sortedUnique(points)
}

// sortedUnique sorts values ascending and drops repeats.
func sortedUnique(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}
