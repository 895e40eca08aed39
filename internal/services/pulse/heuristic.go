package pulse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/indicators"
)

const (
	volumeWindow       = 20
	surgeRatio         = 2.5
	lowParticipation   = 0.4
	rangeMinCandles    = 50
	rangeWindow        = 24
	tightRangePercent  = 2.0
	wickMinCandles     = 5
	minBody            = 0.0001
	compressionCandles = 30
	atrWindow          = 14
	levelWindow        = 20
	levelTolerance     = 0.005
	structureCandles   = 10
	swingPoints        = 5
)

// Heuristic runs the threshold detectors over a newest-first view.
type Heuristic struct {
	now    func() time.Time
	levels []float64
}

// NewHeuristic builds the heuristic strategy. A nil clock means time.Now.
// When levels is empty the recent high and low act as resistance and support.
func NewHeuristic(now func() time.Time, levels ...float64) *Heuristic {
	if now == nil {
		now = time.Now
	}
	return &Heuristic{now: now, levels: levels}
}

func (h *Heuristic) Kind() models.StrategyKind { return models.StrategyHeuristic }

func (h *Heuristic) Detect(candles []models.Candle) []models.PulseSignal {
	if len(candles) == 0 {
		return nil
	}
	return h.DetectWindow(NewWindow(candles))
}

// DetectWindow evaluates every detector once; each contributes at most one
// signal, except level testing which may fire per level.
func (h *Heuristic) DetectWindow(w Window) []models.PulseSignal {
	ts := h.now().UnixMilli()
	var out []models.PulseSignal
	add := func(s *models.PulseSignal) {
		if s == nil {
			return
		}
		s.Timestamp = ts
		s.Strategy = models.StrategyHeuristic
		s.ID = signalID(s.Category, s.ID, ts)
		out = append(out, *s)
	}

	add(VolumeAnomaly(w))
	add(RangeState(w))
	add(WickRejection(w))
	add(VolatilityShift(w))
	for _, level := range h.levelsFor(w) {
		add(LevelTest(w, level))
	}
	add(TrendStructure(w))
	return out
}

func (h *Heuristic) levelsFor(w Window) []float64 {
	if len(h.levels) > 0 {
		return h.levels
	}
	if w.Len() < levelWindow {
		return nil
	}
	recent := w.Newest(levelWindow)
	high, low := Bounds(recent)
	levels := []float64{high, low}
	// VWAP is cumulative, so the last entry covers the whole window regardless of order.
	if vwap := indicators.LatestValue(indicators.VWAP(recent)); vwap != high && vwap != low && vwap > 0 {
		levels = append(levels, vwap)
	}
	return levels
}

// VolumeAnomaly flags a latest volume far above or below the 20-candle mean.
func VolumeAnomaly(w Window) *models.PulseSignal {
	if w.Len() < volumeWindow {
		return nil
	}
	avg := meanVolume(w.Newest(volumeWindow))
	if avg == 0 {
		return nil
	}
	ratio := w.Latest().Volume / avg

	switch {
	case ratio >= surgeRatio:
		conf := models.ConfidenceLow
		if ratio >= 4 {
			conf = models.ConfidenceHigh
		} else if ratio >= 3 {
			conf = models.ConfidenceMedium
		}
		return &models.PulseSignal{
			ID:         "volume-surge",
			Category:   models.CategoryStrength,
			Message:    fmt.Sprintf("Volume surge +%d%%", int(math.Round((ratio-1)*100))),
			Confidence: conf,
			TTL:        1800,
			Data:       map[string]any{"volumeRatio": ratio, "avgVolume": avg},
		}
	case ratio <= lowParticipation:
		return &models.PulseSignal{
			ID:         "volume-compression",
			Category:   models.CategoryNeutral,
			Message:    fmt.Sprintf("Low participation (%d%% of avg)", int(math.Round(ratio*100))),
			Confidence: models.ConfidenceMedium,
			TTL:        3600,
			Data:       map[string]any{"volumeRatio": ratio},
		}
	}
	return nil
}

// RangeState flags a tight 24-candle range.
func RangeState(w Window) *models.PulseSignal {
	if w.Len() < rangeMinCandles {
		return nil
	}
	recent := w.Newest(rangeWindow)
	high, low := Bounds(recent)
	mid := (high + low) / 2
	if mid == 0 {
		return nil
	}
	pct := (high - low) / mid * 100
	if pct >= tightRangePercent {
		return nil
	}
	return &models.PulseSignal{
		ID:         "range-tight",
		Category:   models.CategoryNeutral,
		Message:    fmt.Sprintf("Tight range for %dh (%.1f%%)", len(recent), pct),
		Confidence: models.ConfidenceHigh,
		TTL:        7200,
		Data:       map[string]any{"high": high, "low": low, "rangePercent": pct, "duration": len(recent)},
	}
}

// WickRejection flags a latest candle dominated by one wick.
func WickRejection(w Window) *models.PulseSignal {
	if w.Len() < wickMinCandles {
		return nil
	}
	c := w.Latest()
	body := math.Abs(c.Close - c.Open)
	upper := c.High - math.Max(c.Open, c.Close)
	lower := math.Min(c.Open, c.Close) - c.Low

	floor := body
	if floor == 0 {
		floor = minBody
	}
	ratio := math.Max(upper, lower) / floor
	if ratio <= 3 {
		return nil
	}
	conf := models.ConfidenceMedium
	if ratio > 5 {
		conf = models.ConfidenceHigh
	}

	switch {
	case upper > body*2:
		return &models.PulseSignal{
			ID:         "upper-rejection",
			Category:   models.CategoryWeakness,
			Message:    "Rejection at $" + formatPrice(c.High),
			Confidence: conf,
			TTL:        1800,
			Data:       map[string]any{"level": c.High, "wickRatio": ratio},
		}
	case lower > body*2:
		return &models.PulseSignal{
			ID:         "lower-rejection",
			Category:   models.CategoryStrength,
			Message:    "Bounce off $" + formatPrice(c.Low),
			Confidence: conf,
			TTL:        1800,
			Data:       map[string]any{"level": c.Low, "wickRatio": ratio},
		}
	}
	return nil
}

// VolatilityShift compares the mean true range of the newest 14 candles with
// the 14 before them.
func VolatilityShift(w Window) *models.PulseSignal {
	if w.Len() < compressionCandles {
		return nil
	}
	current := meanTrueRange(w.NewestFrom(0, atrWindow))
	previous := meanTrueRange(w.NewestFrom(atrWindow, atrWindow))
	if current == 0 || previous == 0 {
		return nil
	}
	change := (current - previous) / previous * 100

	switch {
	case change < -20:
		conf := models.ConfidenceMedium
		if math.Abs(change) > 40 {
			conf = models.ConfidenceHigh
		}
		return &models.PulseSignal{
			ID:         "volatility-compression",
			Category:   models.CategoryNeutral,
			Message:    fmt.Sprintf("Volatility compression (%.0f%% decline)", math.Abs(change)),
			Confidence: conf,
			TTL:        7200,
			Data:       map[string]any{"atrChange": change, "currentATR": current, "previousATR": previous},
		}
	case change > 30:
		return &models.PulseSignal{
			ID:         "volatility-expansion",
			Category:   models.CategoryMeta,
			Message:    fmt.Sprintf("Volatility expanding (+%.0f%%)", change),
			Confidence: models.ConfidenceMedium,
			TTL:        3600,
			Data:       map[string]any{"atrChange": change},
		}
	}
	return nil
}

// meanTrueRange averages TR over a newest-first slice. The first entry uses
// its own high-low; later entries reference the neighbouring candle's close.
func meanTrueRange(candles []models.Candle) float64 {
	if len(candles) < atrWindow {
		return 0
	}
	sum := 0.0
	for i, c := range candles[:atrWindow] {
		if i == 0 {
			sum += c.High - c.Low
			continue
		}
		pc := candles[i-1].Close
		sum += math.Max(c.High-c.Low, math.Max(math.Abs(c.High-pc), math.Abs(c.Low-pc)))
	}
	return sum / atrWindow
}

// LevelTest counts candles touching level within 0.5% over the newest 20.
func LevelTest(w Window, level float64) *models.PulseSignal {
	if w.Len() < levelWindow || level <= 0 {
		return nil
	}
	tol := level * levelTolerance
	near := func(v float64) bool { return v >= level-tol && v <= level+tol }

	recent := w.Newest(levelWindow)
	touches := 0
	for _, c := range recent {
		if near(c.High) || near(c.Low) || near(c.Close) {
			touches++
		}
	}
	if touches < 3 {
		return nil
	}

	kind := "support"
	if recent[0].Close < level {
		kind = "resistance"
	}
	conf := models.ConfidenceMedium
	if touches >= 5 {
		conf = models.ConfidenceHigh
	}
	return &models.PulseSignal{
		ID:         "level-testing",
		Category:   models.CategoryStructure,
		Message:    fmt.Sprintf("Testing %s (%dx touch)", kind, touches),
		Confidence: conf,
		TTL:        3600,
		Data:       map[string]any{"level": level, "touches": touches, "type": kind},
	}
}

// TrendStructure looks at the last five candles in time order for strictly
// rising lows or strictly falling highs.
func TrendStructure(w Window) *models.PulseSignal {
	if w.Len() < structureCandles {
		return nil
	}
	swings := w.Range(swingPoints, 0)

	higherLows, lowerHighs := true, true
	for i := 1; i < len(swings); i++ {
		if swings[i].Low <= swings[i-1].Low {
			higherLows = false
		}
		if swings[i].High >= swings[i-1].High {
			lowerHighs = false
		}
	}

	switch {
	case higherLows:
		return &models.PulseSignal{
			ID:         "higher-lows",
			Category:   models.CategoryStrength,
			Message:    "Higher lows forming",
			Confidence: models.ConfidenceMedium,
			TTL:        3600,
			Data:       map[string]any{"pattern": "higher-lows"},
		}
	case lowerHighs:
		return &models.PulseSignal{
			ID:         "lower-highs",
			Category:   models.CategoryWeakness,
			Message:    "Lower highs compressing",
			Confidence: models.ConfidenceMedium,
			TTL:        3600,
			Data:       map[string]any{"pattern": "lower-highs"},
		}
	}
	return nil
}

// signalID renders category-type-unixms-random.
func signalID(category models.SignalCategory, kind string, ts int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%s-%d-%s", category, kind, ts, suffix)
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
