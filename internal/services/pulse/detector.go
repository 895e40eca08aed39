package pulse

import (
	"fmt"
	"time"

	"ZenithCore/internal/domain/models"
	domsvc "ZenithCore/internal/domain/service"
)

// Combined runs both strategies over one shared window.
type Combined struct {
	heuristic *Heuristic
	formula   *Formula
}

func NewCombined(h *Heuristic, f *Formula) *Combined {
	return &Combined{heuristic: h, formula: f}
}

func (c *Combined) Kind() models.StrategyKind { return models.StrategyCombined }

func (c *Combined) Detect(candles []models.Candle) []models.PulseSignal {
	if len(candles) == 0 {
		return nil
	}
	w := NewWindow(candles)
	out := append(c.heuristic.DetectWindow(w), c.formula.DetectWindow(w)...)
	SortNewestFirst(out)
	return out
}

// Options configure the detectors built by New.
type Options struct {
	Now    func() time.Time
	Levels []float64
	Regime RegimeFunc
}

// New returns the detector for a strategy kind.
func New(kind models.StrategyKind, opts Options) (domsvc.SignalDetector, error) {
	switch kind {
	case models.StrategyHeuristic:
		return NewHeuristic(opts.Now, opts.Levels...), nil
	case models.StrategyFormula:
		return NewFormula(opts.Regime), nil
	case models.StrategyCombined, "":
		return NewCombined(NewHeuristic(opts.Now, opts.Levels...), NewFormula(opts.Regime)), nil
	default:
		return nil, fmt.Errorf("unknown pulse strategy %q", kind)
	}
}

// IsExpired reports whether a signal's ttl has elapsed at now.
func IsExpired(s models.PulseSignal, now time.Time) bool {
	return s.IsExpired(now)
}

// FilterActive drops expired signals, preserving order.
func FilterActive(signals []models.PulseSignal, now time.Time) []models.PulseSignal {
	out := make([]models.PulseSignal, 0, len(signals))
	for _, s := range signals {
		if !s.IsExpired(now) {
			out = append(out, s)
		}
	}
	return out
}

var (
	_ domsvc.SignalDetector = (*Heuristic)(nil)
	_ domsvc.SignalDetector = (*Formula)(nil)
	_ domsvc.SignalDetector = (*Combined)(nil)
)
