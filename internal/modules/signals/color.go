package signals

import "github.com/aristath/etfscope/pkg/formulas"

// colorSpan is the half-width of the color scale: scores run from -colorSpan to +colorSpan
const colorSpan = 10

// Color maps a close onto [-10, 10] by its position between the series min and max.
// A zero close has no color and yields nil. A flat series yields 0.
func Color(value, max, min float64) *float64 {
	if value == 0 {
		return nil
	}
	score := 0.0
	if max != min {
		score = formulas.Round((value-min)/(max-min)*2*colorSpan-colorSpan, 2)
	}
	return &score
}
