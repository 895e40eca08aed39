package zenith

import "ZenithCore/internal/domain/models"

// scoreBands is ordered by descending floor; the first floor the score
// reaches wins.
var scoreBands = []struct {
	floor  float64
	interp models.ScoreInterpretation
}{
	{90, models.ScoreInterpretation{
		Label:          "Exceptional",
		Color:          "#10B981",
		Description:    "Outstanding lifetime performance with excellent risk-adjusted returns",
		Recommendation: "Strong long-term holding candidate",
	}},
	{80, models.ScoreInterpretation{
		Label:          "Excellent",
		Color:          "#3B82F6",
		Description:    "Very strong historical performance with good consistency",
		Recommendation: "High-conviction investment opportunity",
	}},
	{70, models.ScoreInterpretation{
		Label:          "Good",
		Color:          "#8B5CF6",
		Description:    "Solid performance with acceptable risk characteristics",
		Recommendation: "Consider for portfolio allocation",
	}},
	{60, models.ScoreInterpretation{
		Label:          "Fair",
		Color:          "#F59E0B",
		Description:    "Average performance with some volatility concerns",
		Recommendation: "Monitor for improvement before investing",
	}},
	{50, models.ScoreInterpretation{
		Label:          "Neutral",
		Color:          "#6B7280",
		Description:    "Mixed historical performance with significant volatility",
		Recommendation: "Requires careful analysis before consideration",
	}},
	{40, models.ScoreInterpretation{
		Label:          "Poor",
		Color:          "#EF4444",
		Description:    "Below-average performance with high risk",
		Recommendation: "Avoid unless specific catalyst identified",
	}},
}

var veryPoor = models.ScoreInterpretation{
	Label:          "Very Poor",
	Color:          "#DC2626",
	Description:    "Consistently poor performance with excessive risk",
	Recommendation: "Avoid completely",
}

// Interpret maps a 0..100 score to its band. Scores below 40, including
// NaN, read as Very Poor.
func Interpret(score float64) models.ScoreInterpretation {
	for _, b := range scoreBands {
		if score >= b.floor {
			return b.interp
		}
	}
	return veryPoor
}
