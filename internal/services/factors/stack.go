// Package factors decomposes a candle series into four explanatory factors.
// The stack is descriptive: it never feeds the zenith score.
package factors

import (
	"fmt"
	"math"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/indicators"
)

const (
	momentumMinCandles   = 50
	volatilityMinCandles = 14
	liquidityMinCandles  = 20
	trendMinCandles      = 200

	percentileWindow = 252
)

var regimeWeights = map[models.RegimeType]models.FactorWeights{
	models.RegimeTrend:     {Momentum: 0.35, Volatility: 0.15, Liquidity: 0.25, Trend: 0.25},
	models.RegimeRange:     {Momentum: 0.15, Volatility: 0.40, Liquidity: 0.25, Trend: 0.20},
	models.RegimeBreakout:  {Momentum: 0.40, Volatility: 0.30, Liquidity: 0.20, Trend: 0.10},
	models.RegimeBreakdown: {Momentum: 0.25, Volatility: 0.25, Liquidity: 0.25, Trend: 0.25},
	models.RegimeChaos:     {Momentum: 0.25, Volatility: 0.25, Liquidity: 0.25, Trend: 0.25},
}

// RegimeWeights returns presentation weights for a regime. Unknown regimes
// get the equal chaos weighting.
func RegimeWeights(r models.RegimeType) models.FactorWeights {
	if w, ok := regimeWeights[r]; ok {
		return w
	}
	return regimeWeights[models.RegimeChaos]
}

// Compute evaluates all four factors on an ascending series.
func Compute(candles []models.Candle) models.FactorStack {
	return models.FactorStack{
		Momentum:   Momentum(candles),
		Volatility: Volatility(candles),
		Liquidity:  Liquidity(candles),
		Trend:      Trend(candles),
	}
}

// Scores maps the stack onto 0..100 readouts.
func Scores(s models.FactorStack) models.FactorScores {
	return models.FactorScores{
		VolatilityScore: s.Volatility.Percentile,
		LiquidityScore:  toPercent(s.Liquidity.Value),
	}
}

// Momentum measures the distance of price from its 50 EMA; ±5% spans 0..1.
func Momentum(candles []models.Candle) models.FactorValue {
	if len(candles) < momentumMinCandles {
		return momentumValue(0.5)
	}
	price := candles[len(candles)-1].Close
	ema50 := indicators.OrDefault(indicators.LatestValue(indicators.EMA(candles, 50)), price)
	raw := 0.0
	if ema50 != 0 {
		raw = (price - ema50) / ema50
	}
	return momentumValue(indicators.Clamp((raw+0.05)/0.10, 0, 1))
}

func momentumValue(v float64) models.FactorValue {
	pct := toPercent(v)
	return models.FactorValue{Value: v, Percentile: pct, Interpretation: momentumText(v, pct)}
}

// Volatility rewards an ATR sitting near the middle of its trailing range.
func Volatility(candles []models.Candle) models.FactorValue {
	pct := 50.0
	if len(candles) >= volatilityMinCandles {
		atr := indicators.ATR(candles, 14)
		latest := indicators.OrDefault(indicators.LatestValue(atr), 0)
		pct = indicators.Percentile(latest, indicators.Tail(indicators.Defined(atr), percentileWindow))
	}
	p := int(pct)
	return models.FactorValue{Value: 1 - math.Abs(pct-50)/50, Percentile: p, Interpretation: volatilityText(p)}
}

// Liquidity compares the latest volume with its 20-period average; 2x saturates.
func Liquidity(candles []models.Candle) models.FactorValue {
	ratio := 1.0
	if len(candles) >= liquidityMinCandles {
		if avg := indicators.AverageVolume(candles, 20); avg > 0 {
			ratio = candles[len(candles)-1].Volume / avg
		}
	}
	v := indicators.Clamp(ratio, 0, 2) / 2
	return models.FactorValue{Value: v, Percentile: toPercent(v), Interpretation: liquidityText(v)}
}

// Trend scores EMA 20/50/200 alignment.
func Trend(candles []models.Candle) models.FactorValue {
	v := trendAlignment(candles)
	return models.FactorValue{Value: v, Percentile: toPercent(v), Interpretation: trendText(v)}
}

// trendAlignment is 1.0 bullish, 0.8 bearish, 0.4 mixed and 0.5 when the
// EMAs cannot be computed.
func trendAlignment(candles []models.Candle) float64 {
	if len(candles) < trendMinCandles {
		return 0.5
	}
	e20 := indicators.LatestValue(indicators.EMA(candles, 20))
	e50 := indicators.LatestValue(indicators.EMA(candles, 50))
	e200 := indicators.LatestValue(indicators.EMA(candles, 200))
	switch {
	case math.IsNaN(e20) || math.IsNaN(e50) || math.IsNaN(e200):
		return 0.5
	case e20 > e50 && e50 > e200:
		return 1.0
	case e20 < e50 && e50 < e200:
		return 0.8
	default:
		return 0.4
	}
}

func toPercent(v float64) int {
	return int(math.Round(v * 100))
}

func strength(pct int) string {
	switch {
	case pct > 75:
		return "strong"
	case pct > 50:
		return "moderate"
	case pct > 25:
		return "weak"
	default:
		return "very weak"
	}
}

func momentumText(v float64, pct int) string {
	switch {
	case v > 0.7:
		return strength(pct) + " bullish momentum, price trading well above moving average"
	case v > 0.5:
		return "Neutral momentum with slight upward bias"
	case v > 0.3:
		return "Neutral momentum with slight downward bias"
	default:
		return strength(pct) + " bearish momentum, price trading below moving average"
	}
}

func volatilityText(pct int) string {
	switch {
	case pct > 75:
		return fmt.Sprintf("High volatility environment (%dth percentile) - elevated risk", pct)
	case pct > 50:
		return fmt.Sprintf("Above-average volatility (%dth percentile)", pct)
	case pct > 25:
		return fmt.Sprintf("Below-average volatility (%dth percentile) - potential compression", pct)
	default:
		return fmt.Sprintf("Low volatility environment (%dth percentile) - breakout potential", pct)
	}
}

func liquidityText(v float64) string {
	switch {
	case v > 0.7:
		return fmt.Sprintf("Strong volume confirmation, %d%% of average", int(math.Round(v*200)))
	case v > 0.5:
		return "Above-average volume activity"
	case v > 0.3:
		return "Below-average volume, watch for conviction"
	default:
		return "Low volume environment, reduced conviction"
	}
}

func trendText(v float64) string {
	switch {
	case v >= 1.0:
		return "Perfect bullish alignment: 20 EMA > 50 EMA > 200 EMA"
	case v >= 0.8:
		return "Bearish alignment: 20 EMA < 50 EMA < 200 EMA"
	default:
		return "Mixed trend signals, EMAs not aligned"
	}
}
