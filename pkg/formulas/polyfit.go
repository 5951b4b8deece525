package formulas

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DetrendDegree is the degree of the polynomial trend removed by Detrend
const DetrendDegree = 3

// residualTolerance is the relative size below which a residual is fitting noise
const residualTolerance = 1e-9

// PolyTrend fits a polynomial of the given degree to (index, value) pairs by least
// squares and returns the fitted value at every index.
//
// The degree is lowered to len(values)-1 when there are not enough points for the
// requested fit, which makes short series interpolate exactly. Indices are mapped onto
// [-1, 1] before fitting; the fitted values do not depend on that scaling but the
// normal equations stay well conditioned for multi-decade daily series.
func PolyTrend(values []float64, degree int) ([]float64, error) {
	n := len(values)
	if n == 0 {
		return []float64{}, nil
	}
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must be non-negative, got %d", degree)
	}
	if degree > n-1 {
		degree = n - 1
	}

	cols := degree + 1
	a := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		t := scaledIndex(i, n)
		p := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, p)
			p *= t
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), values...))

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		// A Condition error still carries a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares fit failed: %w", err)
		}
	}

	var fitted mat.VecDense
	fitted.MulVec(a, &coef)

	out := make([]float64, n)
	for i := range out {
		out[i] = fitted.AtVec(i)
	}
	return out, nil
}

// Detrend removes a cubic least-squares trend from values and returns the residuals.
// Series of three points or fewer are fitted exactly and come back as zeros.
// Residuals smaller than the fitting noise of the series are snapped to 0.
func Detrend(values []float64) ([]float64, error) {
	trend, err := PolyTrend(values, DetrendDegree)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, len(values))
	if len(values) == 0 {
		return residuals, nil
	}
	tol := residualTolerance * math.Max(floats.Norm(values, math.Inf(1)), 1)
	for i, v := range values {
		r := v - trend[i]
		if math.Abs(r) > tol {
			residuals[i] = r
		}
	}
	return residuals, nil
}

// DetrendNormalized detrends values and rescales the residuals onto [0, 100].
// A flat residual series yields zeros.
func DetrendNormalized(values []float64) ([]float64, error) {
	residuals, err := Detrend(values)
	if err != nil {
		return nil, err
	}
	scaled, _, _ := Rescale(residuals, 100)
	return scaled, nil
}

func scaledIndex(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return 2*float64(i)/float64(n-1) - 1
}
