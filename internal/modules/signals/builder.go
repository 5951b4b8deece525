// Package signals derives heatmap and chart signals from stored ETF price histories.
package signals

import (
	"fmt"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/aristath/etfscope/pkg/formulas"
)

// Smoothing passes of the monthly chart, in ChartRecord order
var chartWindows = [...]int{201, 401, 601}

// chartSmoothOrder is the polynomial order of every chart smoothing pass
const chartSmoothOrder = 1

// SymbolChart is the monthly-chart output of one symbol
type SymbolChart struct {
	Records domain.DateIndexed[domain.ChartRecord]
	MinMax  domain.MinMax
}

// BuildDailyDetail computes the daily-detail records of one symbol, keyed by YYYY-MM-DD.
//
// Color is scaled against the min and max of the whole loaded series. Gain/loss is
// the percent change from the previous rounded close and is 0 on the first row.
// A close of zero has no color; it is reported as 0 here.
func BuildDailyDetail(series *domain.RawSeries) (domain.DateIndexed[domain.DerivedRecord], error) {
	lo, hi, ok := series.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no valid closes", domain.ErrMissingData, series.Symbol)
	}

	points := series.Valid()
	detrended, err := formulas.DetrendNormalized(domain.Closes(points))
	if err != nil {
		return nil, fmt.Errorf("detrend %s: %w", series.Symbol, err)
	}

	out := make(domain.DateIndexed[domain.DerivedRecord], len(points))
	previous := 0.0
	for i, p := range points {
		closeValue := formulas.Round(p.Close, 2)

		color := 0.0
		if c := Color(closeValue, hi, lo); c != nil {
			color = *c
		}

		gainLoss := 0.0
		if previous != 0 {
			gainLoss = formulas.Round((closeValue-previous)/previous*100, 2)
		}

		out.Put(p.Date.Format(domain.DateLayout), series.Symbol, domain.DerivedRecord{
			Close:           closeValue,
			Color:           color,
			DetrendedClose:  formulas.Round(detrended[i], 2),
			GainLossPercent: gainLoss,
		})
		previous = closeValue
	}

	return out, nil
}

// BuildMonthlyChart computes the monthly-chart records of one symbol, keyed by YYYY-MM.
//
// Every transform runs over the full filtered daily series; the record kept for a
// month is the one of its last trading day. Fails with ErrInvalidWindow when the
// series is too short for the smoothing passes.
func BuildMonthlyChart(series *domain.RawSeries) (*SymbolChart, error) {
	points := series.Valid()
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s has no valid closes", domain.ErrMissingData, series.Symbol)
	}
	closes := domain.Closes(points)

	detrended, err := formulas.Detrend(closes)
	if err != nil {
		return nil, fmt.Errorf("detrend %s: %w", series.Symbol, err)
	}
	normalizedClose, lo, hi := formulas.NormalizeClose(closes)
	normalizedDetrended, err := formulas.DetrendNormalized(closes)
	if err != nil {
		return nil, fmt.Errorf("detrend %s: %w", series.Symbol, err)
	}

	var smoothed [len(chartWindows)][]float64
	for i, window := range chartWindows {
		smoothed[i], err = formulas.Smooth(normalizedDetrended, window, chartSmoothOrder)
		if err != nil {
			return nil, fmt.Errorf("smooth %s with window %d: %w", series.Symbol, window, err)
		}
	}

	records := make(domain.DateIndexed[domain.ChartRecord])
	for i, p := range points {
		var rec domain.ChartRecord
		rec[domain.ChartNormalizedClose] = formulas.RoundOrNil(normalizedClose[i])
		rec[domain.ChartDetrended] = formulas.RoundOrNil(detrended[i])
		rec[domain.ChartClose] = formulas.RoundOrNil(p.Close)
		rec[domain.ChartNormalizedDetrended] = formulas.RoundOrNil(normalizedDetrended[i])
		rec[domain.ChartSmoothed201] = formulas.RoundOrNil(smoothed[0][i])
		rec[domain.ChartSmoothed401] = formulas.RoundOrNil(smoothed[1][i])
		rec[domain.ChartSmoothed601] = formulas.RoundOrNil(smoothed[2][i])

		records.Put(p.Date.Format(domain.MonthLayout), series.Symbol, rec)
	}

	return &SymbolChart{
		Records: records,
		MinMax:  domain.MinMax{Min: lo, Max: hi},
	}, nil
}
