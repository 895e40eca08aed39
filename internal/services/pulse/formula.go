package pulse

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/regime"
)

const (
	formulaMinCandles     = 50
	recentWindow          = 20
	pastWindow            = 20
	maturityWindow        = 30
	compressionThreshold  = 0.6
	maturityThreshold     = 0.8
	volumeSpikeThreshold  = 2.0
	liquidityZoneDistance = 0.15
)

// RegimeFunc labels the series for the regime-lock echo.
type RegimeFunc func(candles []models.Candle) models.RegimeType

// Formula emits deterministic, formula-annotated signals stamped with the
// latest candle time.
type Formula struct {
	regimeOf RegimeFunc
}

// NewFormula builds the formula strategy. A nil RegimeFunc classifies the
// series with the regime package.
func NewFormula(regimeOf RegimeFunc) *Formula {
	if regimeOf == nil {
		regimeOf = func(c []models.Candle) models.RegimeType {
			return regime.Classify(regime.ComputeMetrics(c))
		}
	}
	return &Formula{regimeOf: regimeOf}
}

func (f *Formula) Kind() models.StrategyKind { return models.StrategyFormula }

func (f *Formula) Detect(candles []models.Candle) []models.PulseSignal {
	if len(candles) < formulaMinCandles {
		return nil
	}
	return f.DetectWindow(NewWindow(candles))
}

func (f *Formula) DetectWindow(w Window) []models.PulseSignal {
	if w.Len() < formulaMinCandles {
		return nil
	}
	latest := w.Latest()
	ts := latest.Time * 1000

	recent := w.Range(recentWindow, 0)
	rangeHigh, rangeLow := Bounds(recent)
	rangeWidth := rangeHigh - rangeLow

	var out []models.PulseSignal
	emit := func(id string, cat models.SignalCategory, conf models.Confidence, ttl int, msg string, dbg *models.SignalDebug) {
		out = append(out, models.PulseSignal{
			ID:         fmt.Sprintf("%s-%d", id, latest.Time),
			Timestamp:  ts,
			Category:   cat,
			Message:    msg,
			Confidence: conf,
			TTL:        ttl,
			Strategy:   models.StrategyFormula,
			Debug:      dbg,
		})
	}

	// volatility compression
	past := w.Range(recentWindow+pastWindow, recentWindow)
	if len(past) == pastWindow {
		pastHigh, pastLow := Bounds(past)
		if rangePast := pastHigh - pastLow; rangePast > 0 {
			ratio := rangeWidth / rangePast
			if ratio < compressionThreshold {
				emit("vol-comp", models.CategoryStructure, models.ConfidenceHigh, 300,
					fmt.Sprintf("VOL_COMPRESSION - Range tightening detected (-%d%%)", int(math.Round((1-ratio)*100))),
					&models.SignalDebug{
						Formula:   "range_recent / range_past < 0.6",
						Values:    map[string]float64{"range_recent": rangeWidth, "range_past": rangePast, "ratio": ratio},
						Threshold: compressionThreshold,
					})
			}
		}
	}

	// range maturity
	if window := w.Range(maturityWindow, 0); len(window) == maturityWindow && rangeWidth > 0 {
		inside := 0
		for _, c := range window {
			if c.Close >= rangeLow && c.Close <= rangeHigh {
				inside++
			}
		}
		maturity := float64(inside) / maturityWindow
		if maturity >= maturityThreshold {
			emit("range-mat", models.CategoryMeta, models.ConfidenceMedium, 300,
				fmt.Sprintf("RANGE_MATURITY - Price contained for %d/%d candles", inside, maturityWindow),
				&models.SignalDebug{
					Formula:   "count(range_low <= close <= range_high) / 30 >= 0.8",
					Values:    map[string]float64{"inside": float64(inside), "range_high": rangeHigh, "range_low": rangeLow, "maturity": maturity},
					Threshold: maturityThreshold,
				})
		}
	}

	// false breaks and liquidity zones against the range before the latest candle
	if prev := w.Range(recentWindow+1, 1); len(prev) > 0 {
		prevHigh, prevLow := Bounds(prev)
		if latest.High > prevHigh && latest.Close < prevHigh {
			emit("false-break-up", models.CategoryWeakness, models.ConfidenceMedium, 120,
				fmt.Sprintf("FALSE_BREAK - Upside breakout rejected at %.2f", prevHigh),
				&models.SignalDebug{
					Formula:   "high > prev_range_high && close < prev_range_high",
					Values:    map[string]float64{"high": latest.High, "close": latest.Close, "prev_range_high": prevHigh},
					Threshold: prevHigh,
				})
		}
		if latest.Low < prevLow && latest.Close > prevLow {
			emit("false-break-down", models.CategoryStrength, models.ConfidenceMedium, 120,
				"FALSE_BREAK - Breakdown attempt absorbed at range low",
				&models.SignalDebug{
					Formula:   "low < prev_range_low && close > prev_range_low",
					Values:    map[string]float64{"low": latest.Low, "close": latest.Close, "prev_range_low": prevLow},
					Threshold: prevLow,
				})
		}

		if rangeWidth > 0 {
			distLow := math.Abs(latest.Close-prevLow) / rangeWidth
			distHigh := math.Abs(latest.Close-prevHigh) / rangeWidth
			values := map[string]float64{"close": latest.Close, "dist_low": distLow, "dist_high": distHigh, "range_width": rangeWidth}
			switch {
			case distLow < liquidityZoneDistance:
				emit("liq-low", models.CategoryNeutral, models.ConfidenceLow, 300,
					"LIQUIDITY_ZONE - Activity clustering near range low",
					&models.SignalDebug{Formula: "|close - range_low| / range_width < 0.15", Values: values, Threshold: liquidityZoneDistance})
			case distHigh < liquidityZoneDistance:
				emit("liq-high", models.CategoryNeutral, models.ConfidenceLow, 300,
					"LIQUIDITY_ZONE - Activity clustering near range high",
					&models.SignalDebug{Formula: "|close - range_high| / range_width < 0.15", Values: values, Threshold: liquidityZoneDistance})
			}
		}
	}

	// volume spike
	if avg := meanVolume(recent); avg > 0 {
		ratio := latest.Volume / avg
		if ratio >= volumeSpikeThreshold {
			emit("vol-spike", models.CategoryMeta, models.ConfidenceMedium, 180,
				fmt.Sprintf("VOLUME_SPIKE - Participation surge (%.1fx avg)", ratio),
				&models.SignalDebug{
					Formula:   "volume / mean(volume[-20]) >= 2.0",
					Values:    map[string]float64{"volume": latest.Volume, "avg_volume": avg, "ratio": ratio},
					Threshold: volumeSpikeThreshold,
				})
		}
	}

	r := f.regimeOf(w.asc)
	emit("regime-"+string(r), models.CategoryStructure, models.ConfidenceHigh, 600,
		fmt.Sprintf("REGIME_LOCK - Market remains in %s state", strings.ToUpper(string(r))),
		&models.SignalDebug{Formula: "regime = classify(metrics)", Values: map[string]float64{"candles": float64(w.Len())}})

	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders signals by timestamp descending, keeping ties stable.
func SortNewestFirst(signals []models.PulseSignal) {
	slices.SortStableFunc(signals, func(a, b models.PulseSignal) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
}
