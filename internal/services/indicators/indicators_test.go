package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/testutil"
)

func TestEMASeedsWithSimpleMean(t *testing.T) {
	candles := testutil.FromCloses([]float64{10, 11, 12, 13, 14}, 100, 0.5)

	ema := EMA(candles, 5)
	require.Len(t, ema, 5)

	defined := 0
	for i, v := range ema {
		if !math.IsNaN(v) {
			defined++
			assert.Equal(t, 4, i)
		}
	}
	assert.Equal(t, 1, defined)
	assert.InDelta(t, 12.0, ema[4], 1e-9)
}

func TestEMARecurrence(t *testing.T) {
	candles := testutil.FromCloses([]float64{10, 11, 12, 13, 14, 20, 8}, 100, 0.5)
	ema := EMA(candles, 3)

	k := 2.0 / 4.0
	assert.InDelta(t, 11.0, ema[2], 1e-9)
	for i := 3; i < len(candles); i++ {
		want := (candles[i].Close-ema[i-1])*k + ema[i-1]
		assert.InDelta(t, want, ema[i], 1e-9, "index %d", i)
	}
}

func TestEMAInsufficientData(t *testing.T) {
	ema := EMA(testutil.Flat(3, 10, 1), 5)
	require.Len(t, ema, 3)
	for _, v := range ema {
		assert.True(t, math.IsNaN(v))
	}
	assert.Empty(t, EMA(nil, 5))
}

func TestSMA(t *testing.T) {
	candles := testutil.FromCloses([]float64{1, 2, 3, 4, 5}, 1, 0.5)
	sma := SMA(candles, 2)
	assert.True(t, math.IsNaN(sma[0]))
	assert.InDelta(t, 1.5, sma[1], 1e-9)
	assert.InDelta(t, 4.5, sma[4], 1e-9)
}

func TestTrueRangeUsesPreviousClose(t *testing.T) {
	candles := []models.Candle{
		{Open: 10, High: 11, Low: 9, Close: 10},
		{Open: 14, High: 15, Low: 13, Close: 14}, // gap up
		{Open: 14, High: 14.5, Low: 13.5, Close: 14},
	}
	tr := TrueRange(candles)
	require.Len(t, tr, 2)
	assert.InDelta(t, 5.0, tr[0], 1e-9)
	assert.InDelta(t, 1.0, tr[1], 1e-9)
}

func TestWilderRecurrence(t *testing.T) {
	tr := []float64{2, 4, 6, 8, 1, 3, 5, 7}
	period := 3
	atr := WilderSmooth(tr, period)
	require.Len(t, atr, len(tr)+1)

	for i := 0; i < period; i++ {
		assert.True(t, math.IsNaN(atr[i]))
	}
	assert.InDelta(t, 4.0, atr[period], 1e-12)
	for i := period; i < len(tr); i++ {
		want := (atr[i]*float64(period-1) + tr[i]) / float64(period)
		assert.InDelta(t, want, atr[i+1], 1e-12)
	}
}

func TestATRAlignsWithCandles(t *testing.T) {
	candles := testutil.Linear(40, 100, 1, 1000)
	atr := ATR(candles, 14)
	require.Len(t, atr, len(candles))
	assert.True(t, math.IsNaN(atr[13]))
	assert.False(t, math.IsNaN(atr[14]))
	assert.False(t, math.IsNaN(LatestValue(atr)))
	assert.Len(t, ATR(candles[:1], 14), 1)
}

func TestVWAP(t *testing.T) {
	candles := []models.Candle{
		{High: 12, Low: 6, Close: 9, Volume: 0},
		{High: 12, Low: 6, Close: 9, Volume: 10},
		{High: 24, Low: 18, Close: 21, Volume: 10},
	}
	vwap := VWAP(candles)
	assert.InDelta(t, 9.0, vwap[0], 1e-9)
	assert.InDelta(t, 9.0, vwap[1], 1e-9)
	assert.InDelta(t, 15.0, vwap[2], 1e-9)
}

func TestAverageVolume(t *testing.T) {
	candles := []models.Candle{{Volume: 1}, {Volume: 2}, {Volume: 3}, {Volume: 6}}
	assert.InDelta(t, 4.5, AverageVolume(candles, 2), 1e-9)
	assert.InDelta(t, 3.0, AverageVolume(candles, 20), 1e-9)
	assert.Zero(t, AverageVolume(nil, 20))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 50.0, Percentile(3, nil))
	assert.Equal(t, 50.0, Percentile(3, []float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, Percentile(1, []float64{1, 1, 1}))
	assert.Equal(t, 100.0, Percentile(9, []float64{1, 2, 3}))
	assert.Equal(t, 33.0, Percentile(2, []float64{1, 2, 3}))
}

func TestClampAndLatest(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3, 0, 1))
	assert.Equal(t, 0.0, Clamp(-3, 0, 1))
	assert.Equal(t, 0.4, Clamp(0.4, 0, 1))

	assert.Equal(t, 2.0, LatestValue([]float64{1, 2, math.NaN()}))
	assert.True(t, math.IsNaN(LatestValue([]float64{math.NaN()})))
	assert.Equal(t, []float64{1, 3}, Defined([]float64{math.NaN(), 1, math.NaN(), 3}))
	assert.Equal(t, []float64{3, 4}, Tail([]float64{1, 2, 3, 4}, 2))
}

func TestEMASeedMatchesSMA(t *testing.T) {
	candles := testutil.Linear(12, 50, 1.5, 100)
	ema := EMA(candles, 4)
	sma := SMA(candles, 4)
	assert.InDelta(t, sma[3], ema[3], 1e-9)
	assert.True(t, math.IsNaN(ema[2]))
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(130, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}
