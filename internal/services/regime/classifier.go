// Package regime labels a candle series with one of five market regimes.
package regime

import (
	"math"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/indicators"
)

const (
	// MinCandles is the shortest series that yields metrics (EMA200 warm-up).
	MinCandles = 200

	atrPeriod        = 14
	percentileWindow = 252
	volumeWindow     = 20

	breakoutPercentile  = 85.0
	breakoutVolumeRatio = 1.5
	rangePercentile     = 35.0
	minTrendStrength    = 0.01
	maxRangeMomentum    = 0.01
)

var display = map[models.RegimeType]struct{ label, description string }{
	models.RegimeTrend:     {"Trending", "Strong directional momentum with aligned structure"},
	models.RegimeRange:     {"Ranging", "Consolidation phase with low volatility"},
	models.RegimeBreakout:  {"Breakout", "Volatility expansion with volume confirmation"},
	models.RegimeBreakdown: {"Breakdown", "Bearish structure with sustained selling pressure"},
	models.RegimeChaos:     {"Uncertain", "No clear market structure detected"},
}

// Label returns the display label and description of a regime.
func Label(r models.RegimeType) (string, string) {
	d, ok := display[r]
	if !ok {
		d = display[models.RegimeChaos]
	}
	return d.label, d.description
}

// ComputeMetrics derives classifier inputs from an ascending series.
// It returns nil when fewer than MinCandles candles are supplied.
func ComputeMetrics(candles []models.Candle) *models.RegimeMetrics {
	if len(candles) < MinCandles {
		return nil
	}
	latest := candles[len(candles)-1]
	price := latest.Close

	atr := indicators.ATR(candles, atrPeriod)
	atr14 := indicators.OrDefault(indicators.LatestValue(atr), 0)
	history := indicators.Tail(indicators.Defined(atr), percentileWindow)

	volumeRatio := 1.0
	if avg := indicators.AverageVolume(candles, volumeWindow); avg > 0 {
		volumeRatio = latest.Volume / avg
	}

	m := &models.RegimeMetrics{
		EMA20:         indicators.OrDefault(indicators.LatestValue(indicators.EMA(candles, 20)), price),
		EMA50:         indicators.OrDefault(indicators.LatestValue(indicators.EMA(candles, 50)), price),
		EMA200:        indicators.OrDefault(indicators.LatestValue(indicators.EMA(candles, 200)), price),
		ATR14:         atr14,
		ATRPercentile: indicators.Percentile(atr14, history),
		VolumeRatio:   volumeRatio,
		Price:         price,
	}
	if price != 0 {
		m.TrendStrength = math.Abs(m.EMA20-m.EMA50) / price
	}
	if m.EMA50 != 0 {
		m.Momentum = (price - m.EMA50) / m.EMA50
	}
	return m
}

// Classify applies the rules in priority order; the first match wins.
func Classify(m *models.RegimeMetrics) models.RegimeType {
	if m == nil {
		return models.RegimeChaos
	}
	switch {
	case m.ATRPercentile > breakoutPercentile && m.VolumeRatio > breakoutVolumeRatio:
		return models.RegimeBreakout
	case m.EMA20 > m.EMA50 && m.EMA50 > m.EMA200 && m.TrendStrength > minTrendStrength:
		return models.RegimeTrend
	case m.ATRPercentile < rangePercentile && math.Abs(m.Momentum) < maxRangeMomentum:
		return models.RegimeRange
	case m.EMA20 < m.EMA50 && m.EMA50 < m.EMA200 && m.TrendStrength > minTrendStrength:
		return models.RegimeBreakdown
	default:
		return models.RegimeChaos
	}
}

// Detect computes metrics and classifies them.
func Detect(symbol string, candles []models.Candle) models.Regime {
	m := ComputeMetrics(candles)
	t := Classify(m)
	label, desc := Label(t)
	return models.Regime{
		Symbol:      symbol,
		Type:        t,
		Label:       label,
		Description: desc,
		Metrics:     m,
	}
}
