package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single origin", "http://localhost:3000", []string{"http://localhost:3000"}},
		{"wildcard", "*", []string{"*"}},
		{
			name:     "varied spacing",
			input:    "https://a.example,  https://b.example , http://localhost:3000",
			expected: []string{"https://a.example", "https://b.example", "http://localhost:3000"},
		},
		{"trailing comma", "https://a.example,", []string{"https://a.example"}},
		{"only spaces", "   ", nil},
		{"commas only", ",,,", nil},
		{"internal spaces preserved", "Large Blend, Equity Energy", []string{"Large Blend", "Equity Energy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}
