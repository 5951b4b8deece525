// Package domain provides core domain models and types.
package domain

import (
	"math"
	"time"
)

// DateLayout is the day-precision key used by the daily-detail view
const DateLayout = "2006-01-02"

// MonthLayout is the month-precision key used by the monthly-chart view
const MonthLayout = "2006-01"

// PriceRow is one row of a stored series as loaded, before invalid closes are dropped.
// Close is nil when the stored value was missing or not a number.
type PriceRow struct {
	Date  time.Time
	Close *float64
}

// PricePoint is a single (date, close) observation with a valid close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// RawSeries is a symbol's stored history, ordered by date ascending
type RawSeries struct {
	Symbol string
	Rows   []PriceRow
}

// Bounds returns the min and max over every valid close in the series.
// ok is false when the series has no valid close.
func (s *RawSeries) Bounds() (lo, hi float64, ok bool) {
	for _, row := range s.Rows {
		if row.Close == nil || math.IsNaN(*row.Close) || math.IsInf(*row.Close, 0) {
			continue
		}
		v := *row.Close
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}

// Valid drops rows without a usable close and returns the remaining points in order
func (s *RawSeries) Valid() []PricePoint {
	points := make([]PricePoint, 0, len(s.Rows))
	for _, row := range s.Rows {
		if row.Close == nil || math.IsNaN(*row.Close) || math.IsInf(*row.Close, 0) {
			continue
		}
		points = append(points, PricePoint{Date: row.Date, Close: *row.Close})
	}
	return points
}

// Closes extracts the close values of points in order
func Closes(points []PricePoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	return closes
}

// DerivedRecord is the daily-detail output for one (date, symbol).
// Field names on the wire match what the heatmap front end reads.
type DerivedRecord struct {
	Close           float64 `json:"Close" msgpack:"Close"`
	Color           float64 `json:"Color" msgpack:"Color"`
	DetrendedClose  float64 `json:"DC" msgpack:"DC"`
	GainLossPercent float64 `json:"GLP" msgpack:"GLP"`
}

// Positions inside a ChartRecord
const (
	ChartNormalizedClose = iota
	ChartDetrended
	ChartClose
	ChartNormalizedDetrended
	ChartSmoothed201
	ChartSmoothed401
	ChartSmoothed601
	chartFields
)

// ChartRecord is the monthly-chart output for one (month, symbol): an ordered tuple
// of normalized close, detrended, close, normalized detrended and the three smoothed
// curves. A nil element is a value that could not be computed for the row and
// serializes as null.
type ChartRecord [chartFields]*float64

// Close returns the rounded raw close, or nil
func (r ChartRecord) Close() *float64 { return r[ChartClose] }

// NormalizedDetrended returns the normalized detrended value, or nil
func (r ChartRecord) NormalizedDetrended() *float64 { return r[ChartNormalizedDetrended] }

// MinMax holds the raw close range of one symbol
type MinMax struct {
	Min float64 `json:"min" msgpack:"min"`
	Max float64 `json:"max" msgpack:"max"`
}

// DateIndexed maps a date key to symbol to record
type DateIndexed[T any] map[string]map[string]T

// Put stores rec under (date, symbol), replacing any previous record for that pair
func (m DateIndexed[T]) Put(date, symbol string, rec T) {
	bySymbol, ok := m[date]
	if !ok {
		bySymbol = make(map[string]T)
		m[date] = bySymbol
	}
	bySymbol[symbol] = rec
}

// Merge copies every record of other into m
func (m DateIndexed[T]) Merge(other DateIndexed[T]) {
	for date, bySymbol := range other {
		for symbol, rec := range bySymbol {
			m.Put(date, symbol, rec)
		}
	}
}

// ChartResult is the monthly-chart response body
type ChartResult struct {
	Data   DateIndexed[ChartRecord] `json:"data" msgpack:"data"`
	MinMax map[string]MinMax        `json:"min_max" msgpack:"min_max"`
}

// Profile is descriptive data about a fund returned by the market data source
type Profile struct {
	Symbol    string
	Name      string
	Sector    string
	QuoteType string
}

// ETFInfo is the stored metadata for a tracked fund
type ETFInfo struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Sector     string    `json:"sector"`
	SectorSize string    `json:"sectorSize"`
	QuoteType  string    `json:"quoteType"`
	Rows       int       `json:"rows"`
	FirstDate  string    `json:"firstDate"`
	LastDate   string    `json:"lastDate"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
