package benefit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomicPortfolio(t *testing.T) (*Matrix, CostVector) {
	t.Helper()
	names := []string{"S3", "S6", "S7", "S9", "S10"}
	m, err := NewMatrix(names, []string{"a", "b", "c"}, [][]float64{
		{1, -1, -1},
		{-1, 1, -1},
		{-1, -1, 1},
		{1, -1, -1},
		{-1, 1, -1},
	})
	require.NoError(t, err)
	costs, err := NewCostVector(names, []float64{3, 4, 5, 6, 7})
	require.NoError(t, err)
	return m, costs
}

func TestCombine_SharedAtomsCountedOnce(t *testing.T) {
	m, costs := atomicPortfolio(t)

	m, costs, reg, err := Define(m, costs, nil, "S12", "S3", "S7", "S10")
	require.NoError(t, err)
	m, costs, reg, err = Define(m, costs, reg, "S13", "S6", "S9", "S10")
	require.NoError(t, err)

	s12, _ := costs.Get("S12")
	s13, _ := costs.Get("S13")
	assert.Equal(t, 15.0, s12)
	assert.Equal(t, 17.0, s13)

	m, costs, reg, err = Merge(m, costs, reg, "S12", "S13")
	require.NoError(t, err)

	cost, ok := costs.Get("S12 + S13")
	require.True(t, ok)
	assert.Equal(t, 25.0, cost, "S10 is shared and must be paid once")
	assert.Equal(t, []string{"S10", "S3", "S6", "S7", "S9"}, reg["S12 + S13"])

	i, ok := m.StrategyIndex("S12 + S13")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1, 1}, m.Row(i))
	assert.Equal(t, m.Rows(), costs.Len())
}

func TestCombine_CoverageIsColumnwiseMax(t *testing.T) {
	m, err := NewMatrix([]string{"a", "b"}, []string{"x", "y", "z"}, [][]float64{
		{0.2, 0.9, -1},
		{0.5, 0.1, -1},
	})
	require.NoError(t, err)
	costs, err := NewCostVector([]string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)

	out, outCosts, _, err := Merge(m, costs, nil, "a", "b")
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 0.9, -1}, out.Row(2))
	assert.Equal(t, "a + b", out.Strategy(2))
	v, _ := outCosts.Get("a + b")
	assert.Equal(t, 3.0, v)
	assert.Equal(t, 2, m.Rows(), "input matrix must not grow")
	assert.Equal(t, 2, costs.Len(), "input costs must not grow")
}

func TestCombine_UnknownMember(t *testing.T) {
	m, costs := atomicPortfolio(t)

	_, _, _, err := Merge(m, costs, nil, "S3", "S71")
	var re *ReferenceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "S71", re.Strategy)
	assert.Equal(t, "S7", re.Suggestion)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestCombine_ValidatesShape(t *testing.T) {
	m, costs := atomicPortfolio(t)

	_, _, _, err := Merge(m, costs, nil, "S3")
	assert.ErrorIs(t, err, ErrValidation, "merge needs two strategies")

	_, _, _, err = Merge(m, costs, nil, "S3", "S3")
	assert.ErrorIs(t, err, ErrValidation, "duplicates are rejected")

	_, _, _, err = Define(m, costs, nil, "", "S3")
	assert.ErrorIs(t, err, ErrValidation, "define needs a target")

	_, _, _, err = Define(m, costs, nil, "S6", "S6", "S3")
	assert.ErrorIs(t, err, ErrValidation, "a row cannot be composed of itself")

	_, err = NewCombo("X")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCombine_ExistingRowBecomesComposite(t *testing.T) {
	names := []string{"S3", "S6", "S7", "S9", "S10", "S12"}
	m, err := NewMatrix(names, []string{"a", "b", "c"}, [][]float64{
		{1, -1, -1},
		{-1, 1, -1},
		{-1, -1, 1},
		{1, -1, -1},
		{-1, 1, -1},
		{1, 1, -1},
	})
	require.NoError(t, err)
	costs, err := NewCostVector(names, []float64{3, 4, 5, 6, 7, 99})
	require.NoError(t, err)

	out, outCosts, reg, err := Define(m, costs, nil, "S12", "S3", "S7", "S10")
	require.NoError(t, err)
	assert.Equal(t, m.Rows(), out.Rows(), "no row is appended")
	i, ok := out.StrategyIndex("S12")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1, -1}, out.Row(i), "observed scores are kept")
	v, _ := outCosts.Get("S12")
	assert.Equal(t, 15.0, v)
	assert.Equal(t, []string{"S10", "S3", "S7"}, reg["S12"])
	orig, _ := costs.Get("S12")
	assert.Equal(t, 99.0, orig, "the input costs are untouched")

	out, outCosts, reg, err = Define(out, outCosts, reg, "S13", "S6", "S9", "S10")
	require.NoError(t, err)
	_, outCosts, reg, err = Merge(out, outCosts, reg, "S12", "S13")
	require.NoError(t, err)
	v, _ = outCosts.Get("S12 + S13")
	assert.Equal(t, 25.0, v)

	_, _, _, err = Define(out, outCosts, reg, "S12", "S3")
	assert.ErrorIs(t, err, ErrValidation, "a composite is defined once")
}

func TestApplyCombos_InOrder(t *testing.T) {
	m, costs := atomicPortfolio(t)
	combos := []Combo{
		{Target: "S12", Members: []string{"S3", "S7", "S10"}},
		{Target: "S13", Members: []string{"S6", "S9", "S10"}},
		{Members: []string{"S12", "S13"}},
	}

	out, outCosts, reg, err := ApplyCombos(m, costs, combos)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Rows())
	v, _ := outCosts.Get("S12 + S13")
	assert.Equal(t, 25.0, v)
	assert.Len(t, reg, 3)
}
