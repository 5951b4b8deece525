package formulas

import (
	"math"
	"strconv"
)

// Round rounds x to the given number of decimal places.
// The exact binary value of x is rounded, with exact ties going to the even digit,
// so 2.675 (stored as 2.67499...) gives 2.67 and 0.125 gives 0.12.
// NaN and infinities are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}

// RoundOrNil rounds x to 2 decimals, or returns nil when x is not a finite number.
// Used at output boundaries where a missing value must serialize as null.
func RoundOrNil(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	v := Round(x, 2)
	return &v
}
