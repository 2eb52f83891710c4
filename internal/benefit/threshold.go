package benefit

// Threshold binarises the matrix against the survival cutoff t: cells at or
// above t become 1, everything else -1. The input is left untouched.
func Threshold(m *Matrix, t float64) *Matrix {
	return m.mapValues(func(v float64) float64 {
		if v >= t {
			return 1
		}
		return -1
	})
}
