package formulas

import "gonum.org/v1/gonum/floats"

// CloseScale is the upper bound of the normalized close range
const CloseScale = 200

// Rescale maps values linearly onto [0, span] using their own min and max.
// It returns the rescaled values together with the original min and max.
// Flat input (max == min) produces a zero-filled slice of the same length.
func Rescale(values []float64, span float64) ([]float64, float64, float64) {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, 0, 0
	}

	lo := floats.Min(values)
	hi := floats.Max(values)
	if hi == lo {
		return out, lo, hi
	}

	for i, v := range values {
		out[i] = span * (v - lo) / (hi - lo)
	}
	return out, lo, hi
}

// NormalizeClose rescales raw closes onto [0, 200] and returns the raw min and max
func NormalizeClose(closes []float64) ([]float64, float64, float64) {
	return Rescale(closes, CloseScale)
}
