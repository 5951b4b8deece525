package testing

import (
	"time"

	"github.com/aristath/etfscope/internal/domain"
)

// FixtureStart is the first trading day of every fixture series
var FixtureStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// NewPricePoints returns one point per close on consecutive days from FixtureStart
func NewPricePoints(closes ...float64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: FixtureStart.AddDate(0, 0, i), Close: c}
	}
	return points
}

// NewSeries returns a stored series with one row per close on consecutive days
// from FixtureStart
func NewSeries(symbol string, closes ...float64) *domain.RawSeries {
	rows := make([]domain.PriceRow, len(closes))
	for i := range closes {
		c := closes[i]
		rows[i] = domain.PriceRow{Date: FixtureStart.AddDate(0, 0, i), Close: &c}
	}
	return &domain.RawSeries{Symbol: symbol, Rows: rows}
}

// NewETFInfoFixtures returns metadata for a small set of ETFs
func NewETFInfoFixtures() []domain.ETFInfo {
	updated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.ETFInfo{
		{
			Symbol:     "SPY",
			Name:       "SPDR S&P 500 ETF Trust",
			Sector:     "Large Blend",
			SectorSize: "N/A",
			QuoteType:  "ETF",
			Rows:       7900,
			FirstDate:  "1993-01-29",
			LastDate:   "2024-05-31",
			UpdatedAt:  updated,
		},
		{
			Symbol:     "XLE",
			Name:       "Energy Select Sector SPDR Fund",
			Sector:     "Equity Energy",
			SectorSize: "N/A",
			QuoteType:  "ETF",
			Rows:       6400,
			FirstDate:  "1998-12-22",
			LastDate:   "2024-05-31",
			UpdatedAt:  updated,
		},
	}
}
