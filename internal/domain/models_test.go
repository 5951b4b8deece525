package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRawSeries_BoundsAndValid(t *testing.T) {
	series := &RawSeries{
		Symbol: "SPY",
		Rows: []PriceRow{
			{Date: day("2020-01-01"), Close: ptr(10)},
			{Date: day("2020-01-02"), Close: nil},
			{Date: day("2020-01-03"), Close: ptr(math.NaN())},
			{Date: day("2020-01-06"), Close: ptr(14)},
			{Date: day("2020-01-07"), Close: ptr(8)},
		},
	}

	lo, hi, ok := series.Bounds()
	require.True(t, ok)
	assert.Equal(t, 8.0, lo)
	assert.Equal(t, 14.0, hi)

	valid := series.Valid()
	require.Len(t, valid, 3)
	assert.Equal(t, []float64{10, 14, 8}, Closes(valid))
	assert.Equal(t, day("2020-01-06"), valid[1].Date)
}

func TestRawSeries_BoundsEmpty(t *testing.T) {
	series := &RawSeries{Symbol: "X", Rows: []PriceRow{{Date: day("2020-01-01")}}}

	_, _, ok := series.Bounds()
	assert.False(t, ok)
	assert.Empty(t, series.Valid())
}

func TestDateIndexed_PutAndMerge(t *testing.T) {
	m := DateIndexed[DerivedRecord]{}
	m.Put("2020-01-01", "X", DerivedRecord{Close: 1})
	m.Put("2020-01-01", "Y", DerivedRecord{Close: 2})
	m.Put("2020-01-01", "X", DerivedRecord{Close: 3})

	require.Len(t, m["2020-01-01"], 2)
	assert.Equal(t, 3.0, m["2020-01-01"]["X"].Close)

	other := DateIndexed[DerivedRecord]{}
	other.Put("2020-01-02", "Z", DerivedRecord{Close: 4})
	m.Merge(other)

	assert.Len(t, m, 2)
	assert.Equal(t, 4.0, m["2020-01-02"]["Z"].Close)
}

func TestChartRecord_MarshalsAsArrayWithNulls(t *testing.T) {
	rec := ChartRecord{ptr(200), ptr(-1.5), ptr(12), ptr(100), nil, nil, ptr(50)}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `[200,-1.5,12,100,null,null,50]`, string(data))

	assert.Equal(t, 12.0, *rec.Close())
	assert.Equal(t, 100.0, *rec.NormalizedDetrended())
}

func TestDerivedRecord_WireNames(t *testing.T) {
	data, err := json.Marshal(DerivedRecord{Close: 10, Color: -10, DetrendedClose: 50, GainLossPercent: 20})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Close":10,"Color":-10,"DC":50,"GLP":20}`, string(data))
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"spy", "SPY", false},
		{"  qqq ", "QQQ", false},
		{"BRK-B", "BRK-B", false},
		{"^GSPC", "^GSPC", false},
		{"VWCE.DE", "VWCE.DE", false},
		{"", "", true},
		{"../etc/passwd", "", true},
		{"..", "", true},
		{"A/B", "", true},
		{"WAYTOOLONGSYMBOLNAME123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeSymbol(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
