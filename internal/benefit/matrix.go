package benefit

import (
	"fmt"
	"math"
)

// Matrix is an immutable strategies × species table of benefit scores.
// Every transformation in this package returns a new Matrix.
type Matrix struct {
	strategies []string
	species    []string
	values     []float64 // row-major, len(strategies)*len(species)

	strategyIdx map[string]int
	speciesIdx  map[string]int

	warnings []string
}

// NewMatrix builds a matrix from labels and row values. A nil label slice is
// tolerated: placeholder labels are generated and a warning is recorded,
// because results built on unlabeled data cannot be interpreted.
func NewMatrix(strategies, species []string, values [][]float64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, invalid("values", "matrix has no strategy rows")
	}
	cols := len(values[0])
	if cols == 0 {
		return nil, invalid("values", "matrix has no species columns")
	}

	var warnings []string
	if strategies == nil {
		strategies = placeholders("strategy", len(values))
		warnings = append(warnings, "strategy labels missing; generated placeholders, results are not meaningful")
	}
	if species == nil {
		species = placeholders("species", cols)
		warnings = append(warnings, "species labels missing; generated placeholders, results are not meaningful")
	}
	if len(strategies) != len(values) {
		return nil, invalid("strategies", "%d labels for %d rows", len(strategies), len(values))
	}
	if len(species) != cols {
		return nil, invalid("species", "%d labels for %d columns", len(species), cols)
	}

	data := make([]float64, 0, len(values)*cols)
	for i, row := range values {
		if len(row) != cols {
			return nil, invalid("values", "row %d has %d columns, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalid("values", "non-finite value at (%s, %s)", strategies[i], species[j])
			}
		}
		data = append(data, row...)
	}

	m, err := newMatrix(clone(strategies), clone(species), data)
	if err != nil {
		return nil, err
	}
	m.warnings = warnings
	return m, nil
}

// newMatrix takes ownership of its arguments and builds the name indexes.
func newMatrix(strategies, species []string, values []float64) (*Matrix, error) {
	sIdx, err := indexNames("strategies", strategies)
	if err != nil {
		return nil, err
	}
	cIdx, err := indexNames("species", species)
	if err != nil {
		return nil, err
	}
	return &Matrix{
		strategies:  strategies,
		species:     species,
		values:      values,
		strategyIdx: sIdx,
		speciesIdx:  cIdx,
	}, nil
}

func indexNames(field string, names []string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, invalid(field, "empty label at position %d", i)
		}
		if _, dup := idx[n]; dup {
			return nil, invalid(field, "duplicate label %q", n)
		}
		idx[n] = i
	}
	return idx, nil
}

func placeholders(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s_%d", prefix, i+1)
	}
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func (m *Matrix) Rows() int { return len(m.strategies) }
func (m *Matrix) Cols() int { return len(m.species) }

// At returns the value for strategy row i and species column j.
func (m *Matrix) At(i, j int) float64 { return m.values[i*len(m.species)+j] }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	c := len(m.species)
	return clone(m.values[i*c : (i+1)*c])
}

func (m *Matrix) Strategies() []string { return clone(m.strategies) }
func (m *Matrix) Species() []string    { return clone(m.species) }

func (m *Matrix) Strategy(i int) string    { return m.strategies[i] }
func (m *Matrix) SpeciesName(j int) string { return m.species[j] }

func (m *Matrix) StrategyIndex(name string) (int, bool) {
	i, ok := m.strategyIdx[name]
	return i, ok
}

func (m *Matrix) SpeciesIndex(name string) (int, bool) {
	j, ok := m.speciesIdx[name]
	return j, ok
}

// Warnings lists non-fatal problems found while building or preparing the
// matrix. Callers are expected to log them.
func (m *Matrix) Warnings() []string { return clone(m.warnings) }

// mapValues returns a new matrix with the same labels and f applied to every
// cell. Warnings carry over.
func (m *Matrix) mapValues(f func(float64) float64) *Matrix {
	data := make([]float64, len(m.values))
	for k, v := range m.values {
		data[k] = f(v)
	}
	return &Matrix{
		strategies:  m.strategies,
		species:     m.species,
		values:      data,
		strategyIdx: m.strategyIdx,
		speciesIdx:  m.speciesIdx,
		warnings:    m.warnings,
	}
}
