package formulas

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClose(t *testing.T) {
	tests := []struct {
		name        string
		closes      []float64
		expected    []float64
		expectedMin float64
		expectedMax float64
	}{
		{
			name:        "empty",
			closes:      []float64{},
			expected:    []float64{},
			expectedMin: 0,
			expectedMax: 0,
		},
		{
			name:        "flat series",
			closes:      []float64{5, 5, 5, 5},
			expected:    []float64{0, 0, 0, 0},
			expectedMin: 5,
			expectedMax: 5,
		},
		{
			name:        "three points",
			closes:      []float64{10, 20, 15},
			expected:    []float64{0, 200, 100},
			expectedMin: 10,
			expectedMax: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled, lo, hi := NormalizeClose(tt.closes)
			assert.InDeltaSlice(t, tt.expected, scaled, 1e-9)
			assert.Equal(t, tt.expectedMin, lo)
			assert.Equal(t, tt.expectedMax, hi)
		})
	}
}

func TestRescale_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _, _ = Rescale(values, 100)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 10.0, Round(10.004, 2))
	assert.Equal(t, -8.33, Round(-8.333333, 2))
	assert.Equal(t, 12.35, Round(12.346, 2))
	assert.Equal(t, 1.235, Round(1.23456, 3))

	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestRound_TiesFollowBinaryValue(t *testing.T) {
	tests := []struct {
		value    float64
		places   int
		expected float64
	}{
		{2.675, 2, 2.67},   // stored just below the tie
		{0.015, 2, 0.01},   // stored just below the tie
		{10.125, 2, 10.12}, // exact tie goes to the even digit
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{9.9996, 3, 10},
		{12.3456, 3, 12.346},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.value, 'f', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(tt.value, tt.places))
		})
	}
}

func TestRoundOrNil(t *testing.T) {
	assert.Nil(t, RoundOrNil(nan()))
	if v := RoundOrNil(3.14159); assert.NotNil(t, v) {
		assert.Equal(t, 3.14, *v)
	}
}
