package benefit

import (
	"fmt"
	"math"
	"strings"
)

// Round2 rounds to two decimal places. Benefit scores are rounded before any
// threshold comparison so float noise cannot flip coverage.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Prepare rounds every benefit value and aligns the cost vector to the matrix
// rows. It fails when a row has no cost; unused cost entries become warnings
// on the returned matrix.
func Prepare(m *Matrix, costs CostVector) (*Matrix, CostVector, error) {
	aligned, extras, err := costs.Align(m)
	if err != nil {
		return nil, CostVector{}, err
	}
	rounded := m.mapValues(Round2)
	if len(extras) > 0 {
		rounded.warnings = append(clone(rounded.warnings),
			fmt.Sprintf("costs given for strategies not in the matrix: %s", strings.Join(extras, ", ")))
	}
	return rounded, aligned, nil
}
