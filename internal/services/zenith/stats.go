package zenith

import (
	"math"
	"slices"
	"time"

	"ZenithCore/internal/domain/models"
)

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365.25
	minDrawdownCandles = 10
)

// ReturnStats summarises close-to-close returns.
type ReturnStats struct {
	TotalReturn      float64
	AnnualizedReturn float64
	Periodic         []float64
	Sharpe           float64
}

// VolatilityStats holds daily and annualized return dispersion.
type VolatilityStats struct {
	Daily      float64
	Annualized float64
	VolOfVol   float64
}

// Recovery is one drawdown that closed at a new high.
type Recovery struct {
	Depth        float64
	Duration     time.Duration
	RecoveryDays float64
}

// DrawdownStats describe peak-to-trough declines. Drawdowns still open at
// the end of the series count as unrecovered.
type DrawdownStats struct {
	MaxDrawdown     float64
	AvgDrawdown     float64
	AvgRecoveryDays float64
	SuccessRate     float64
	Recoveries      []Recovery
}

func sortedByTime(candles []models.Candle) []models.Candle {
	if slices.IsSortedFunc(candles, byTime) {
		return candles
	}
	out := slices.Clone(candles)
	slices.SortStableFunc(out, byTime)
	return out
}

func byTime(a, b models.Candle) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	}
	return 0
}

func periodicReturns(sorted []models.Candle) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	out := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (sorted[i].Close-prev)/prev)
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(std / float64(len(xs)))
}

// Returns computes total, annualized and periodic returns plus a simple
// Sharpe ratio (mean over population std of periodic returns).
func Returns(candles []models.Candle) ReturnStats {
	if len(candles) < 2 {
		return ReturnStats{}
	}
	sorted := sortedByTime(candles)
	rets := periodicReturns(sorted)

	first, last := sorted[0], sorted[len(sorted)-1]
	var total float64
	if first.Close != 0 {
		total = (last.Close - first.Close) / first.Close
	}

	var annualized float64
	years := float64(last.Time-first.Time) / (86400 * daysPerYear)
	if years > 0 && total > -1 {
		annualized = math.Pow(1+total, 1/years) - 1
	}

	avg, std := meanStd(rets)
	var sharpe float64
	if std > 0 {
		sharpe = avg / std
	}
	return ReturnStats{TotalReturn: total, AnnualizedReturn: annualized, Periodic: rets, Sharpe: sharpe}
}

// Volatility computes the population std of daily returns annualized over
// 252 trading days, and the mean absolute change between successive returns.
func Volatility(candles []models.Candle) VolatilityStats {
	if len(candles) < 2 {
		return VolatilityStats{}
	}
	rets := periodicReturns(sortedByTime(candles))
	_, daily := meanStd(rets)

	var volOfVol float64
	if len(rets) > 1 {
		for i := 1; i < len(rets); i++ {
			volOfVol += math.Abs(rets[i] - rets[i-1])
		}
		volOfVol /= float64(len(rets) - 1)
	}
	return VolatilityStats{
		Daily:      daily,
		Annualized: daily * math.Sqrt(tradingDaysPerYear),
		VolOfVol:   volOfVol,
	}
}

type drawdown struct {
	peak, trough, depth float64
	start, end          int64
	closed              bool
}

// Drawdowns tracks peak-to-trough declines on closes. A drawdown opens on the
// first close below the running trough and closes on the next new high.
func Drawdowns(candles []models.Candle) DrawdownStats {
	if len(candles) < minDrawdownCandles {
		return DrawdownStats{}
	}
	sorted := sortedByTime(candles)
	peak, trough := sorted[0].Close, sorted[0].Close

	var (
		stats   DrawdownStats
		all     []drawdown
		current *drawdown
	)
	for _, c := range sorted {
		price := c.Close
		switch {
		case price > peak:
			peak, trough = price, price
			if current != nil {
				current.end = c.Time
				current.closed = true
				all = append(all, *current)
				current = nil
			}
		case price < trough:
			trough = price
			depth := 0.0
			if peak != 0 {
				depth = (peak - trough) / peak
			}
			if current == nil {
				current = &drawdown{peak: peak, start: c.Time}
			}
			current.trough, current.depth = trough, depth
			stats.MaxDrawdown = math.Max(stats.MaxDrawdown, depth)
		}
	}
	if current != nil {
		all = append(all, *current)
	}
	if len(all) == 0 {
		return stats
	}

	var depthSum, daySum float64
	for _, d := range all {
		depthSum += d.depth
		if !d.closed {
			continue
		}
		dur := time.Duration(d.end-d.start) * time.Second
		days := dur.Hours() / 24
		stats.Recoveries = append(stats.Recoveries, Recovery{Depth: d.depth, Duration: dur, RecoveryDays: days})
		daySum += days
	}
	stats.AvgDrawdown = depthSum / float64(len(all))
	if n := len(stats.Recoveries); n > 0 {
		stats.AvgRecoveryDays = daySum / float64(n)
	}
	stats.SuccessRate = float64(len(stats.Recoveries)) / float64(len(all))
	return stats
}
