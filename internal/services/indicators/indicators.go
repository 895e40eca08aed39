// Package indicators holds pure numeric primitives over candle series.
//
// Every function is stateless and safe for concurrent use. Insufficient input
// never panics: series outputs are NaN-padded to len(candles) and scalar
// outputs fall back to a documented neutral value.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"ZenithCore/internal/domain/models"
)

// Closes extracts close prices.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// EMA is seeded at index period-1 with the simple mean of the first period
// closes and smoothed with k = 2/(period+1) afterwards.
func EMA(candles []models.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) < period {
		return out
	}
	out[period-1] = SMA(candles[:period], period)[period-1]
	k := 2 / float64(period+1)
	for i := period; i < len(candles); i++ {
		out[i] = (candles[i].Close-out[i-1])*k + out[i-1]
	}
	return out
}

// SMA is the sliding-window mean of closes.
func SMA(candles []models.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) < period {
		return out
	}
	raw := talib.Sma(Closes(candles), period)
	copy(out[period-1:], raw[period-1:])
	return out
}

// TrueRange returns TR for candles 1..n-1 against the previous close.
// The result has len(candles)-1 entries.
func TrueRange(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		out = append(out, math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc))))
	}
	return out
}

// WilderSmooth applies Wilder smoothing to a true-range series.
// The output has len(tr)+1 entries so that it lines up with candle indices:
// out[period] = mean(tr[0:period]) and out[i+1] = (out[i]*(period-1)+tr[i])/period.
func WilderSmooth(tr []float64, period int) []float64 {
	out := nanSeries(len(tr) + 1)
	if period <= 0 || len(tr) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	p := float64(period)
	out[period] = sum / p
	for i := period; i < len(tr); i++ {
		out[i+1] = (out[i]*(p-1) + tr[i]) / p
	}
	return out
}

// ATR is the Wilder-smoothed average true range aligned to candle indices.
func ATR(candles []models.Candle, period int) []float64 {
	if len(candles) < 2 {
		return nanSeries(len(candles))
	}
	return WilderSmooth(TrueRange(candles), period)
}

// VWAP is the cumulative volume-weighted typical price from the series start.
// While cumulative volume is zero the typical price itself is used.
func VWAP(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	var pv, vol float64
	for i, c := range candles {
		tp := (c.High + c.Low + c.Close) / 3
		pv += tp * c.Volume
		vol += c.Volume
		if vol > 0 {
			out[i] = pv / vol
		} else {
			out[i] = tp
		}
	}
	return out
}

// AverageVolume is the mean of the last period volumes, or of all volumes
// when fewer are available. Empty input yields 0.
func AverageVolume(candles []models.Candle, period int) float64 {
	if len(candles) == 0 || period <= 0 {
		return 0
	}
	start := len(candles) - period
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, c := range candles[start:] {
		sum += c.Volume
	}
	return sum / float64(len(candles)-start)
}

// Percentile is the share of history strictly below value, rounded to a
// whole percent. Empty history yields 50.
func Percentile(value float64, history []float64) float64 {
	if len(history) == 0 {
		return 50
	}
	below := 0
	for _, h := range history {
		if h < value {
			below++
		}
	}
	return math.Round(float64(below) / float64(len(history)) * 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// LatestValue returns the last non-NaN entry, or NaN when there is none.
func LatestValue(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return math.NaN()
}

// Defined drops NaN entries.
func Defined(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Tail returns the last n entries of xs.
func Tail(xs []float64, n int) []float64 {
	if n < 0 || len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// OrDefault returns v unless it is NaN.
func OrDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
