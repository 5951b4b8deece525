package signals

import (
	"testing"
	"time"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// dailySeries builds a series of consecutive calendar days starting at first
func dailySeries(symbol, first string, closes ...float64) *domain.RawSeries {
	start := day(first)
	rows := make([]domain.PriceRow, len(closes))
	for i, c := range closes {
		rows[i] = domain.PriceRow{Date: start.AddDate(0, 0, i), Close: ptr(c)}
	}
	return &domain.RawSeries{Symbol: symbol, Rows: rows}
}

func TestBuildDailyDetail(t *testing.T) {
	series := dailySeries("X", "2020-01-01", 10, 12, 11)

	out, err := BuildDailyDetail(series)
	require.NoError(t, err)
	require.Len(t, out, 3)

	expected := map[string]domain.DerivedRecord{
		"2020-01-01": {Close: 10, Color: -10, DetrendedClose: 0, GainLossPercent: 0},
		"2020-01-02": {Close: 12, Color: 10, DetrendedClose: 0, GainLossPercent: 20},
		"2020-01-03": {Close: 11, Color: 0, DetrendedClose: 0, GainLossPercent: -8.33},
	}
	for date, want := range expected {
		got, ok := out[date]["X"]
		require.True(t, ok, "missing %s", date)
		assert.InDelta(t, want.Close, got.Close, 1e-9, date)
		assert.InDelta(t, want.Color, got.Color, 1e-9, date)
		assert.InDelta(t, want.DetrendedClose, got.DetrendedClose, 1e-9, date)
		assert.InDelta(t, want.GainLossPercent, got.GainLossPercent, 1e-9, date)
	}
}

func TestBuildDailyDetail_ConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 50
	}

	out, err := BuildDailyDetail(dailySeries("FLAT", "2021-06-01", closes...))
	require.NoError(t, err)
	require.Len(t, out, 30)

	for date, bySymbol := range out {
		rec := bySymbol["FLAT"]
		assert.Equal(t, 50.0, rec.Close, date)
		assert.Equal(t, 0.0, rec.Color, date)
		assert.Equal(t, 0.0, rec.DetrendedClose, date)
		assert.Equal(t, 0.0, rec.GainLossPercent, date)
	}
}

func TestBuildDailyDetail_SkipsInvalidRows(t *testing.T) {
	series := &domain.RawSeries{
		Symbol: "GAP",
		Rows: []domain.PriceRow{
			{Date: day("2020-01-01"), Close: ptr(10)},
			{Date: day("2020-01-02"), Close: nil},
			{Date: day("2020-01-03"), Close: ptr(20)},
		},
	}

	out, err := BuildDailyDetail(series)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotContains(t, out, "2020-01-02")
	assert.InDelta(t, 100, out["2020-01-03"]["GAP"].GainLossPercent, 1e-9)
}

func TestBuildDailyDetail_ZeroCloseHasZeroColorAndNoGainBase(t *testing.T) {
	out, err := BuildDailyDetail(dailySeries("Z", "2020-01-01", 0, 5, 10))
	require.NoError(t, err)

	assert.Equal(t, 0.0, out["2020-01-01"]["Z"].Color)
	// Previous close of 0 has no defined percent change.
	assert.Equal(t, 0.0, out["2020-01-02"]["Z"].GainLossPercent)
	assert.InDelta(t, 100, out["2020-01-03"]["Z"].GainLossPercent, 1e-9)
}

func TestBuildDailyDetail_MissingData(t *testing.T) {
	series := &domain.RawSeries{
		Symbol: "EMPTY",
		Rows:   []domain.PriceRow{{Date: day("2020-01-01"), Close: nil}},
	}

	_, err := BuildDailyDetail(series)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestBuildMonthlyChart(t *testing.T) {
	// 2021-01-01 .. 2021-02-14: 31 January days then 14 February days
	closes := make([]float64, 45)
	for i := range closes {
		closes[i] = 100 + float64(i%7) + float64(i)/2
	}
	series := dailySeries("M", "2021-01-01", closes...)

	chart, err := BuildMonthlyChart(series)
	require.NoError(t, err)
	require.Len(t, chart.Records, 2)

	jan := chart.Records["2021-01"]["M"]
	feb := chart.Records["2021-02"]["M"]

	// The last trading day of each month wins
	require.NotNil(t, jan.Close())
	require.NotNil(t, feb.Close())
	assert.InDelta(t, closes[30], *jan.Close(), 1e-9)
	assert.InDelta(t, closes[44], *feb.Close(), 1e-9)

	for _, rec := range []domain.ChartRecord{jan, feb} {
		for i, v := range rec {
			require.NotNil(t, v, "element %d", i)
		}
		assert.GreaterOrEqual(t, *rec[domain.ChartNormalizedClose], 0.0)
		assert.LessOrEqual(t, *rec[domain.ChartNormalizedClose], 200.0)
		assert.GreaterOrEqual(t, *rec.NormalizedDetrended(), 0.0)
		assert.LessOrEqual(t, *rec.NormalizedDetrended(), 100.0)
	}

	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	assert.Equal(t, domain.MinMax{Min: lo, Max: hi}, chart.MinMax)
}

func TestBuildMonthlyChart_MaxCloseNormalizesTo200(t *testing.T) {
	chart, err := BuildMonthlyChart(dailySeries("UP", "2022-03-01", 1, 2, 3, 4, 5))
	require.NoError(t, err)

	rec := chart.Records["2022-03"]["UP"]
	require.NotNil(t, rec[domain.ChartNormalizedClose])
	assert.InDelta(t, 200, *rec[domain.ChartNormalizedClose], 1e-9)
	assert.Equal(t, domain.MinMax{Min: 1, Max: 5}, chart.MinMax)
}

func TestBuildMonthlyChart_TooShortForSmoothing(t *testing.T) {
	_, err := BuildMonthlyChart(dailySeries("TINY", "2022-01-01", 1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestBuildMonthlyChart_MissingData(t *testing.T) {
	_, err := BuildMonthlyChart(&domain.RawSeries{Symbol: "NONE"})
	assert.ErrorIs(t, err, domain.ErrMissingData)
}
