package zenith

import (
	"math"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/indicators"
)

// NormalizeReturn maps a total return onto 0..100. Losses scale from 0 at
// -100% to 50 when flat; gains add 6 points per 100% and saturate at +500%.
func NormalizeReturn(r float64) float64 {
	switch {
	case r <= -1:
		return 0
	case r >= 5:
		return 100
	case r < 0:
		return 50 + r*50
	default:
		return 50 + r*6
	}
}

// NormalizeVolatility maps annualized volatility onto 0..100, lower is better.
func NormalizeVolatility(v float64) float64 {
	switch {
	case v <= 0:
		return 100
	case v >= 2:
		return 0
	default:
		return 100 - v*25
	}
}

// Consistency blends the share of positive periods (70) with low dispersion (30).
func Consistency(periodic []float64) float64 {
	if len(periodic) < 2 {
		return 50
	}
	positive := 0
	for _, r := range periodic {
		if r > 0 {
			positive++
		}
	}
	_, std := meanStd(periodic)
	ratio := float64(positive) / float64(len(periodic))
	return ratio*70 + (1-math.Min(1, std/0.5))*30
}

// RecoveryAbility blends recovery success rate (60) with speed (40).
func RecoveryAbility(d DrawdownStats) float64 {
	if len(d.Recoveries) == 0 {
		return 50
	}
	days := math.Min(1, d.AvgRecoveryDays/365)
	return d.SuccessRate*60 + (1-days)*40
}

// VolumeStats rates how steady and how rising traded volume is.
type VolumeStats struct {
	Score       float64
	Consistency float64
	Trend       float64
}

// AnalyzeVolume scores volume steadiness (coefficient of variation, 70%)
// and the change between the first and second half averages (30%).
func AnalyzeVolume(candles []models.Candle) VolumeStats {
	if len(candles) < 2 {
		return VolumeStats{Score: 50, Consistency: 0.5}
	}
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	avg, std := meanStd(vols)
	if avg == 0 {
		return VolumeStats{Score: 50, Consistency: 0.5}
	}
	cv := std / avg
	consistencyScore := math.Max(0, 100-cv*100)

	half := len(vols) / 2
	firstHalf := indicators.Mean(vols[:half])
	secondHalf := indicators.Mean(vols[half:])
	var trend float64
	if firstHalf > 0 {
		trend = (secondHalf - firstHalf) / firstHalf * 100
	}
	trendScore := indicators.Clamp(50+trend/2, 0, 100)

	return VolumeStats{
		Score:       consistencyScore*0.7 + trendScore*0.3,
		Consistency: 1 - cv,
		Trend:       trend,
	}
}
