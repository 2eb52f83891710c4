package benefit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatrix(t *testing.T) (*Matrix, CostVector) {
	t.Helper()
	m, err := NewMatrix(
		[]string{"Baseline", "Fencing", "Burning", "All"},
		[]string{"quoll", "bilby", "numbat", "mallee"},
		[][]float64{
			{0.704, 0.2, 0.1, 0.3},
			{0.8, 0.75, 0.2, 0.1},
			{0.4, 0.3, 0.696, 0.9},
			{0.9, 0.8, 0.7, 0.95},
		},
	)
	require.NoError(t, err)
	costs, err := NewCostVector([]string{"All", "Burning", "Fencing", "Baseline"}, []float64{30, 20, 10, 0})
	require.NoError(t, err)
	return m, costs
}

func TestNewMatrix_RejectsDuplicateLabels(t *testing.T) {
	_, err := NewMatrix([]string{"a", "a"}, []string{"x"}, [][]float64{{1}, {2}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "strategies", ve.Field)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewMatrix_RejectsRaggedRows(t *testing.T) {
	_, err := NewMatrix([]string{"a", "b"}, []string{"x", "y"}, [][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewMatrix_MissingLabelsWarns(t *testing.T) {
	m, err := NewMatrix(nil, nil, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []string{"strategy_1", "strategy_2"}, m.Strategies())
	assert.Equal(t, []string{"species_1", "species_2"}, m.Species())
	assert.Len(t, m.Warnings(), 2)
}

func TestNewCostVector_RejectsNegative(t *testing.T) {
	_, err := NewCostVector([]string{"a"}, []float64{-1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPrepare_RoundsAndAligns(t *testing.T) {
	m, costs := sampleMatrix(t)

	rounded, aligned, err := Prepare(m, costs)
	require.NoError(t, err)

	assert.Equal(t, 0.7, rounded.At(0, 0))
	assert.Equal(t, 0.7, rounded.At(2, 2))
	assert.Equal(t, 0.704, m.At(0, 0), "input must not be modified")
	assert.Equal(t, []string{"Baseline", "Fencing", "Burning", "All"}, aligned.Names())
	assert.Equal(t, []float64{0, 10, 20, 30}, aligned.Values())
	assert.Empty(t, rounded.Warnings())
}

func TestPrepare_MissingCostFails(t *testing.T) {
	m, _ := sampleMatrix(t)
	costs, err := NewCostVector([]string{"Baseline", "Fencing"}, []float64{0, 10})
	require.NoError(t, err)

	_, _, err = Prepare(m, costs)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "Burning")
}

func TestPrepare_ExtraCostsWarn(t *testing.T) {
	m, _ := sampleMatrix(t)
	costs, err := NewCostVector(
		[]string{"Baseline", "Fencing", "Burning", "All", "Baiting"},
		[]float64{0, 10, 20, 30, 5},
	)
	require.NoError(t, err)

	rounded, aligned, err := Prepare(m, costs)
	require.NoError(t, err)
	assert.Equal(t, 4, aligned.Len())
	require.Len(t, rounded.Warnings(), 1)
	assert.Contains(t, rounded.Warnings()[0], "Baiting")
}

func TestThreshold_Binarises(t *testing.T) {
	m, costs := sampleMatrix(t)
	rounded, _, err := Prepare(m, costs)
	require.NoError(t, err)

	bin := Threshold(rounded, 0.7)
	assert.Equal(t, []float64{1, -1, -1, -1}, bin.Row(0))
	assert.Equal(t, []float64{1, 1, -1, -1}, bin.Row(1))
	assert.Equal(t, []float64{-1, -1, 1, 1}, bin.Row(2), "0.696 rounds to 0.7 and must pass")
	assert.Equal(t, 0.7, rounded.At(0, 0), "thresholding must not mutate its input")
}

func TestThreshold_DeterministicAndIdempotent(t *testing.T) {
	m, _ := sampleMatrix(t)
	for _, th := range []float64{0.1, 0.5, 0.75, 1} {
		once := Threshold(m, th)
		again := Threshold(m, th)
		twice := Threshold(once, th)
		for i := 0; i < m.Rows(); i++ {
			assert.Equal(t, once.Row(i), again.Row(i))
			assert.Equal(t, once.Row(i), twice.Row(i))
		}
	}
}

func TestExtractBaseline(t *testing.T) {
	m, costs := sampleMatrix(t)
	rounded, aligned, err := Prepare(m, costs)
	require.NoError(t, err)
	bin := Threshold(rounded, 0.7)

	reduced, reducedCosts, all, base, err := ExtractBaseline(bin, aligned, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, "Baseline", base.Strategy)
	assert.Equal(t, []string{"quoll"}, base.Species)
	assert.Zero(t, base.TotalCost)
	assert.Equal(t, []string{"Fencing", "Burning", "All"}, reduced.Strategies())
	assert.Equal(t, []string{"bilby", "numbat", "mallee"}, reduced.Species())
	assert.Equal(t, []float64{10, 20, 30}, reducedCosts.Values())
	assert.Equal(t, 2, all)
	assert.Equal(t, 4, bin.Rows(), "input matrix keeps the baseline row")
}

func TestExtractBaseline_EmptyCoverageStillRemovesRow(t *testing.T) {
	m, err := NewMatrix([]string{"none", "a"}, []string{"x", "y"}, [][]float64{{-1, -1}, {1, -1}})
	require.NoError(t, err)
	costs, err := NewCostVector([]string{"none", "a"}, []float64{0, 4})
	require.NoError(t, err)

	reduced, reducedCosts, all, base, err := ExtractBaseline(m, costs, 0, NoSentinel)
	require.NoError(t, err)
	assert.Empty(t, base.Species)
	assert.NotNil(t, base.Species)
	assert.Equal(t, []string{"a"}, reduced.Strategies())
	assert.Equal(t, 2, reduced.Cols())
	assert.Equal(t, 1, reducedCosts.Len())
	assert.Equal(t, NoSentinel, all)
}

func TestExtractBaseline_RejectsBadIndexes(t *testing.T) {
	m, costs := sampleMatrix(t)
	_, aligned, err := Prepare(m, costs)
	require.NoError(t, err)

	_, _, _, _, err = ExtractBaseline(m, aligned, 4, NoSentinel)
	assert.ErrorIs(t, err, ErrValidation)
	_, _, _, _, err = ExtractBaseline(m, aligned, 0, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, _, _, _, err = ExtractBaseline(m, aligned, 0, 9)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWeights_Validate(t *testing.T) {
	m, _ := sampleMatrix(t)
	assert.NoError(t, Weights(nil).Validate(m))
	assert.ErrorIs(t, Weights{"quoll": 1}.Validate(m), ErrValidation)
	assert.ErrorIs(t, Weights{"quoll": 1, "bilby": -2, "numbat": 1, "mallee": 1}.Validate(m), ErrValidation)
	assert.Equal(t, 1.0, Weights(nil).Of("quoll"))
	assert.Equal(t, 2.5, Weights{"quoll": 2.5}.Of("quoll"))
}
