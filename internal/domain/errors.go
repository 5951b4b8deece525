package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aristath/etfscope/pkg/formulas"
)

var (
	// ErrNotFound is returned when a symbol has no stored data
	ErrNotFound = errors.New("not found")

	// ErrMissingData is returned when a symbol has no usable rows after filtering
	ErrMissingData = errors.New("missing data")

	// ErrFetch is returned when the market data source fails
	ErrFetch = errors.New("fetch failed")

	// ErrInvalidSymbol is returned for symbols that cannot name a stored series
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidWindow is returned when a smoothing window is invalid after adjustment
	ErrInvalidWindow = formulas.ErrInvalidWindow
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=-]{1,20}$`)

// NormalizeSymbol trims and upper-cases a ticker and checks it is safe to use as a
// file name. Returns ErrInvalidSymbol otherwise.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) || strings.Trim(s, ".") == "" || strings.Contains(s, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s, nil
}
