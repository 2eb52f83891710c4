package benefit

import "math"

// CostVector maps strategy names to non-negative costs, in a fixed order.
// After Align the order matches the matrix rows exactly.
type CostVector struct {
	names  []string
	values []float64
	index  map[string]int
}

func NewCostVector(names []string, values []float64) (CostVector, error) {
	if len(names) != len(values) {
		return CostVector{}, invalid("costs", "%d names for %d values", len(names), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return CostVector{}, invalid("costs", "cost of %q must be a non-negative number, got %v", names[i], v)
		}
	}
	idx, err := indexNames("costs", names)
	if err != nil {
		return CostVector{}, err
	}
	return CostVector{names: clone(names), values: clone(values), index: idx}, nil
}

// CostsFromMap builds a cost vector ordered by the given names. Names missing
// from the map are a validation error.
func CostsFromMap(order []string, costs map[string]float64) (CostVector, error) {
	values := make([]float64, len(order))
	for i, n := range order {
		v, ok := costs[n]
		if !ok {
			return CostVector{}, invalid("costs", "no cost for strategy %q", n)
		}
		values[i] = v
	}
	return NewCostVector(order, values)
}

func (c CostVector) Len() int { return len(c.names) }

func (c CostVector) Name(i int) string   { return c.names[i] }
func (c CostVector) Value(i int) float64 { return c.values[i] }

func (c CostVector) Get(name string) (float64, bool) {
	i, ok := c.index[name]
	if !ok {
		return 0, false
	}
	return c.values[i], true
}

func (c CostVector) Names() []string   { return clone(c.names) }
func (c CostVector) Values() []float64 { return clone(c.values) }

// Align reorders the vector to match the matrix rows. Every row needs a cost;
// cost entries without a row are dropped and reported as extras.
func (c CostVector) Align(m *Matrix) (CostVector, []string, error) {
	values := make([]float64, m.Rows())
	for i, name := range m.strategies {
		v, ok := c.Get(name)
		if !ok {
			return CostVector{}, nil, invalid("costs", "no cost for strategy %q", name)
		}
		values[i] = v
	}
	var extras []string
	for _, name := range c.names {
		if _, ok := m.strategyIdx[name]; !ok {
			extras = append(extras, name)
		}
	}
	return CostVector{names: clone(m.strategies), values: values, index: m.strategyIdx}, extras, nil
}

// without returns a copy with the entry at position i removed.
func (c CostVector) without(i int) CostVector {
	names := make([]string, 0, len(c.names)-1)
	values := make([]float64, 0, len(c.values)-1)
	names = append(append(names, c.names[:i]...), c.names[i+1:]...)
	values = append(append(values, c.values[:i]...), c.values[i+1:]...)
	idx, _ := indexNames("costs", names)
	return CostVector{names: names, values: values, index: idx}
}

// with returns a copy with one entry appended.
func (c CostVector) with(name string, value float64) CostVector {
	names := append(clone(c.names), name)
	values := append(clone(c.values), value)
	idx := make(map[string]int, len(names))
	for k, v := range c.index {
		idx[k] = v
	}
	idx[name] = len(names) - 1
	return CostVector{names: names, values: values, index: idx}
}

// set returns a copy with the value of an existing entry replaced.
func (c CostVector) set(i int, value float64) CostVector {
	values := clone(c.values)
	values[i] = value
	return CostVector{names: c.names, values: values, index: c.index}
}
