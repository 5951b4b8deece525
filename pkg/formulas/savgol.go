package formulas

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultSmoothWindow is the smoothing window used when none is configured
	DefaultSmoothWindow = 11
	// DefaultSmoothOrder is the smoothing polynomial order used when none is configured
	DefaultSmoothOrder = 3
)

// ErrInvalidWindow is returned when a smoothing window cannot be applied
var ErrInvalidWindow = errors.New("invalid smoothing window")

// AdjustWindow applies the window policy for a series of length n:
// a window longer than the series shrinks to the series length (minus one when
// that length is even), and an even window grows by one.
func AdjustWindow(n, window int) int {
	if n < window {
		if n%2 != 0 {
			return n
		}
		return n - 1
	}
	if window%2 == 0 {
		return window + 1
	}
	return window
}

// Smooth adjusts the window for len(values) and applies a Savitzky-Golay filter.
func Smooth(values []float64, window, order int) ([]float64, error) {
	return SavGol(values, AdjustWindow(len(values), window), order)
}

// SavGol applies a Savitzky-Golay filter with an odd window and the given polynomial order.
//
// Interior points take the value of a local polynomial fitted over the window centred
// on them. The first and last window/2 points are evaluated on the polynomial fitted
// to the first and last full window respectively, so the output has the same length
// as the input and edges are not truncated.
func SavGol(values []float64, window, order int) ([]float64, error) {
	n := len(values)
	switch {
	case window <= 0:
		return nil, fmt.Errorf("%w: window length %d must be positive", ErrInvalidWindow, window)
	case window%2 == 0:
		return nil, fmt.Errorf("%w: window length %d must be odd", ErrInvalidWindow, window)
	case order < 0:
		return nil, fmt.Errorf("%w: polynomial order %d must be non-negative", ErrInvalidWindow, order)
	case window <= order:
		return nil, fmt.Errorf("%w: window length %d must exceed polynomial order %d", ErrInvalidWindow, window, order)
	case window > n:
		return nil, fmt.Errorf("%w: window length %d exceeds series length %d", ErrInvalidWindow, window, n)
	}

	hat, err := savgolProjection(window, order)
	if err != nil {
		return nil, err
	}

	half := window / 2
	out := make([]float64, n)
	for i := range values {
		start := i - half
		if start < 0 {
			start = 0
		}
		if start > n-window {
			start = n - window
		}
		out[i] = floats.Dot(hat.RawRowView(i-start), values[start:start+window])
	}
	return out, nil
}

// savgolProjection returns the window x window least-squares projection matrix
// A·pinv(A) for a polynomial basis over the window. Row k evaluates the fitted
// polynomial at window position k.
func savgolProjection(window, order int) (*mat.Dense, error) {
	half := window / 2
	scale := float64(half)
	if scale == 0 {
		scale = 1
	}

	cols := order + 1
	a := mat.NewDense(window, cols, nil)
	for k := 0; k < window; k++ {
		t := float64(k-half) / scale
		p := 1.0
		for j := 0; j < cols; j++ {
			a.Set(k, j, p)
			p *= t
		}
	}

	ones := make([]float64, window)
	for i := range ones {
		ones[i] = 1
	}
	identity := mat.NewDiagDense(window, ones)

	var pinv mat.Dense
	if err := pinv.Solve(a, identity); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("savgol coefficients: %w", err)
		}
	}

	var hat mat.Dense
	hat.Mul(a, &pinv)
	return &hat, nil
}
