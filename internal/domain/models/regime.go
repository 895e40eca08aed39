package models

// RegimeType is a discrete market-structure label derived from OHLCV.
type RegimeType string

const (
	RegimeTrend     RegimeType = "trend"
	RegimeRange     RegimeType = "range"
	RegimeBreakout  RegimeType = "breakout"
	RegimeBreakdown RegimeType = "breakdown"
	RegimeChaos     RegimeType = "chaos"
)

// AllRegimes lists regimes in classification priority order (chaos last).
var AllRegimes = []RegimeType{RegimeBreakout, RegimeTrend, RegimeRange, RegimeBreakdown, RegimeChaos}

// RegimeMetrics are the indicator readings the classifier works on.
type RegimeMetrics struct {
	EMA20         float64 `json:"ema20"`
	EMA50         float64 `json:"ema50"`
	EMA200        float64 `json:"ema200"`
	ATR14         float64 `json:"atr14"`
	ATRPercentile float64 `json:"atr_percentile"`
	VolumeRatio   float64 `json:"volume_ratio"`
	TrendStrength float64 `json:"trend_strength"`
	Momentum      float64 `json:"momentum"`
	Price         float64 `json:"price"`
}

// Regime is a classification result. Metrics is nil when the series was too short.
type Regime struct {
	Symbol      string         `json:"symbol,omitempty"`
	Type        RegimeType     `json:"regime"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Metrics     *RegimeMetrics `json:"metrics,omitempty"`
}
