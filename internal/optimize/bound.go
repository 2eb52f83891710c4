package optimize

import (
	"math"
	"sort"
)

// budgetSlack loosens the remaining budget in the bound so that strategies
// the solver accepts within its feasibility tolerance are never excluded.
const budgetSlack = 1e-3

// coverage is the structure of a CoverageModel seen from the strategies:
// the value each strategy earns per species, its cost, and the variables
// that select and credit it. It implements ilp.Bounder.
type coverage struct {
	gain   [][]float64
	cost   []float64
	budget float64
	all    int
	cols   int

	y []int
	x [][]int
}

func newCoverage(inst *Instance, budget float64) *coverage {
	m := inst.Matrix
	rows, cols := m.Rows(), m.Cols()
	c := &coverage{
		gain:   make([][]float64, rows),
		cost:   inst.Costs.Values(),
		budget: budget,
		all:    inst.AllIndex,
		cols:   cols,
	}
	for i := 0; i < rows; i++ {
		c.gain[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			c.gain[i][j] = math.Max(0, m.At(i, j)*inst.Weights.Of(m.SpeciesName(j)))
		}
	}
	return c
}

// Bound caps the objective of any completion of fix. Species already
// credited count at their credited value, species reachable through a
// selected strategy at their best such value, and whatever more the free
// strategies could add is bounded by a fractional knapsack over the budget
// left, ignoring overlap between them.
func (c *coverage) Bound(fix []int8) float64 {
	rows := len(c.y)
	remaining := c.budget + budgetSlack
	for i, v := range c.y {
		if fix[v] == 1 {
			remaining -= c.cost[i]
		}
	}

	value := make([]float64, rows)
	var total, extra float64
	for j := 0; j < c.cols; j++ {
		var have, best float64
		credited := false
		for i := 0; i < rows; i++ {
			v := c.x[i][j]
			if v < 0 || fix[v] == 0 || fix[c.y[i]] == 0 {
				continue
			}
			if fix[v] == 1 {
				total += c.gain[i][j]
				credited = true
				break
			}
			if fix[c.y[i]] == 1 {
				have = math.Max(have, c.gain[i][j])
			}
			best = math.Max(best, c.gain[i][j])
		}
		if credited {
			continue
		}
		total += have
		extra += best - have
		for i := 0; i < rows; i++ {
			v := c.x[i][j]
			if v < 0 || fix[v] >= 0 || fix[c.y[i]] >= 0 {
				continue
			}
			if g := c.gain[i][j] - have; g > 0 {
				value[i] += g
			}
		}
	}
	return total + math.Min(extra, c.knapsack(fix, value, remaining))
}

// knapsack is the fractional knapsack value of the free strategies that fit
// in remaining.
func (c *coverage) knapsack(fix []int8, value []float64, remaining float64) float64 {
	var total float64
	var items []int
	for i, v := range c.y {
		if fix[v] >= 0 || value[i] <= 0 || c.cost[i] > remaining {
			continue
		}
		if c.cost[i] <= 0 {
			total += value[i]
			continue
		}
		items = append(items, i)
	}
	sort.SliceStable(items, func(a, b int) bool {
		return value[items[a]]/c.cost[items[a]] > value[items[b]]/c.cost[items[b]]
	})
	for _, i := range items {
		if c.cost[i] <= remaining {
			total += value[i]
			remaining -= c.cost[i]
			continue
		}
		total += value[i] * remaining / c.cost[i]
		break
	}
	return total
}

// worth is the objective of selecting pick, each species credited once.
func (c *coverage) worth(pick []bool) float64 {
	var total float64
	for j := 0; j < c.cols; j++ {
		var best float64
		for i, on := range pick {
			if on {
				best = math.Max(best, c.gain[i][j])
			}
		}
		total += best
	}
	return total
}

func (c *coverage) ratio(i int, covered []bool) float64 {
	var g float64
	for j, done := range covered {
		if !done {
			g += c.gain[i][j]
		}
	}
	switch {
	case g <= 0:
		return 0
	case c.cost[i] <= 0:
		return math.Inf(1)
	}
	return g / c.cost[i]
}

// byRatio orders the strategies by value per unit cost, best first.
func (c *coverage) byRatio() []int {
	covered := make([]bool, c.cols)
	order := make([]int, len(c.gain))
	ratios := make([]float64, len(c.gain))
	for i := range order {
		order[i] = i
		ratios[i] = c.ratio(i, covered)
	}
	sort.SliceStable(order, func(a, b int) bool { return ratios[order[a]] > ratios[order[b]] })
	return order
}

// greedy picks a budget-feasible selection: repeatedly add the ordinary
// strategy with the best marginal value per cost, then keep the result
// only if no single affordable strategy, the sentinel included, beats it.
func (c *coverage) greedy() []bool {
	rows := len(c.gain)
	pick := make([]bool, rows)
	covered := make([]bool, c.cols)
	remaining := c.budget
	for {
		next, best := -1, 0.0
		for i := 0; i < rows; i++ {
			if pick[i] || i == c.all || c.cost[i] > remaining {
				continue
			}
			if r := c.ratio(i, covered); r > best {
				next, best = i, r
			}
		}
		if next < 0 {
			break
		}
		pick[next] = true
		remaining -= c.cost[next]
		for j := range covered {
			if c.gain[next][j] > 0 {
				covered[j] = true
			}
		}
	}

	worth := c.worth(pick)
	for i := 0; i < rows; i++ {
		if c.cost[i] > c.budget {
			continue
		}
		single := make([]bool, rows)
		single[i] = true
		if w := c.worth(single); w > worth {
			pick, worth = single, w
		}
	}
	return pick
}

// start encodes pick as a full assignment of n variables, crediting each
// species to the first picked strategy that covers it.
func (c *coverage) start(n int, pick []bool) []bool {
	x := make([]bool, n)
	for i, on := range pick {
		if on {
			x[c.y[i]] = true
		}
	}
	for j := 0; j < c.cols; j++ {
		for i, on := range pick {
			if on && c.x[i][j] >= 0 {
				x[c.x[i][j]] = true
				break
			}
		}
	}
	return x
}
