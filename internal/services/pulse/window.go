// Package pulse detects short-lived market events from raw candle windows.
//
// Two strategies share one Window: the heuristic strategy reads candles
// newest-first and stamps signals with the wall clock, the formula strategy
// reads them ascending, stamps them with the latest candle time and attaches
// a debug block with the formula that fired.
package pulse

import (
	"math"
	"slices"

	"ZenithCore/internal/domain/models"
)

// Window holds one series in both orders so detectors never re-sort.
type Window struct {
	asc  []models.Candle
	desc []models.Candle
}

// NewWindow copies candles and orders them by time.
func NewWindow(candles []models.Candle) Window {
	asc := slices.Clone(candles)
	slices.SortStableFunc(asc, func(a, b models.Candle) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	desc := slices.Clone(asc)
	slices.Reverse(desc)
	return Window{asc: asc, desc: desc}
}

func (w Window) Len() int { return len(w.asc) }

// Latest is the newest candle. It panics on an empty window.
func (w Window) Latest() models.Candle { return w.asc[len(w.asc)-1] }

// Newest returns up to n candles, newest first.
func (w Window) Newest(n int) []models.Candle {
	if n > len(w.desc) {
		n = len(w.desc)
	}
	return w.desc[:n]
}

// NewestFrom returns up to n newest-first candles after skipping the first skip.
func (w Window) NewestFrom(skip, n int) []models.Candle {
	if skip >= len(w.desc) {
		return nil
	}
	end := skip + n
	if end > len(w.desc) {
		end = len(w.desc)
	}
	return w.desc[skip:end]
}

// Range returns the ascending candles in [len-from, len-to), clipped to the series.
// Range(20, 0) is the latest twenty candles.
func (w Window) Range(from, to int) []models.Candle {
	n := len(w.asc)
	start, end := n-from, n-to
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return nil
	}
	return w.asc[start:end]
}

// Bounds returns the highest high and lowest low of candles.
func Bounds(candles []models.Candle) (high, low float64) {
	high, low = math.Inf(-1), math.Inf(1)
	for _, c := range candles {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	return high, low
}

func meanVolume(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candles {
		sum += c.Volume
	}
	return sum / float64(len(candles))
}
