package models

import "time"

// ZenithWeights distributes the final score across five horizons.
type ZenithWeights struct {
	Lifetime  float64 `json:"lifetime" yaml:"lifetime"`
	Yearly    float64 `json:"yearly" yaml:"yearly"`
	Quarterly float64 `json:"quarterly" yaml:"quarterly"`
	Monthly   float64 `json:"monthly" yaml:"monthly"`
	Weekly    float64 `json:"weekly" yaml:"weekly"`
}

// Sum returns the total weight; valid configs sum to 1.
func (w ZenithWeights) Sum() float64 {
	return w.Lifetime + w.Yearly + w.Quarterly + w.Monthly + w.Weekly
}

// ZenithScoreConfig holds the weights and tuning constants of the calculator.
type ZenithScoreConfig struct {
	Weights            ZenithWeights `json:"weights" yaml:"weights"`
	MinDataPoints      int           `json:"min_data_points" yaml:"min_data_points"`
	VolatilityPenalty  float64       `json:"volatility_penalty" yaml:"volatility_penalty"`
	ConsistencyBonus   float64       `json:"consistency_bonus" yaml:"consistency_bonus"`
	RecoveryMultiplier float64       `json:"recovery_multiplier" yaml:"recovery_multiplier"`
}

// ZenithBreakdown holds per-horizon sub-scores on a 0..100 scale.
type ZenithBreakdown struct {
	Lifetime  float64 `json:"lifetime"`
	Yearly    float64 `json:"yearly"`
	Quarterly float64 `json:"quarterly"`
	Monthly   float64 `json:"monthly"`
	Weekly    float64 `json:"weekly"`
}

// ZenithScoreResult is the composite score returned to callers.
type ZenithScoreResult struct {
	Symbol      string          `json:"symbol"`
	Score       float64         `json:"score"`
	Breakdown   ZenithBreakdown `json:"breakdown"`
	Confidence  float64         `json:"confidence"`
	LastUpdated time.Time       `json:"last_updated"`
}

// LifetimeMetrics are the long-run statistics behind the lifetime sub-score.
// HasData is false when the history was below the minimum data points.
type LifetimeMetrics struct {
	HasData              bool    `json:"has_data"`
	TotalReturn          float64 `json:"total_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	AvgRecoveryDays      float64 `json:"avg_recovery_days"`
	VolumeConsistency    float64 `json:"volume_consistency"`
	ConsistencyScore     float64 `json:"consistency_score"`
	RecoveryScore        float64 `json:"recovery_score"`
	VolumeScore          float64 `json:"volume_score"`
}

// ScoreRecord is the persisted row for a symbol, overwritten on every recompute.
type ScoreRecord struct {
	Symbol           string          `db:"symbol" json:"symbol"`
	AssetType        AssetType       `db:"asset_type" json:"asset_type"`
	BaseScore        float64         `db:"base_score" json:"base_score"`
	CurrentScore     float64         `db:"current_score" json:"current_score"`
	TrendScore       float64         `db:"trend_score" json:"trend_score"`
	Confidence       float64         `db:"confidence" json:"confidence"`
	LifetimeReturn   float64         `db:"lifetime_return" json:"lifetime_return"`
	VolatilityScore  float64         `db:"volatility_score" json:"volatility_score"`
	ConsistencyScore float64         `db:"consistency_score" json:"consistency_score"`
	RecoveryScore    float64         `db:"recovery_score" json:"recovery_score"`
	VolumeScore      float64         `db:"volume_score" json:"volume_score"`
	Weights          ZenithWeights   `db:"-" json:"weights"`
	Breakdown        ZenithBreakdown `db:"-" json:"breakdown"`
	LaunchDate       time.Time       `db:"launch_date" json:"launch_date"`
	LastCalculated   time.Time       `db:"last_calculated" json:"last_calculated"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Result converts a stored record into the caller-facing result.
func (r ScoreRecord) Result() ZenithScoreResult {
	return ZenithScoreResult{
		Symbol:      r.Symbol,
		Score:       r.CurrentScore,
		Breakdown:   r.Breakdown,
		Confidence:  r.Confidence,
		LastUpdated: r.LastCalculated,
	}
}

// ScoreInterpretation is the human-facing reading of a zenith score band.
type ScoreInterpretation struct {
	Label          string `json:"label"`
	Color          string `json:"color"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}
