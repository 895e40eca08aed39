package models

// FactorValue is one explanatory factor on a 0..1 scale.
type FactorValue struct {
	Value          float64 `json:"value"`
	Percentile     int     `json:"percentile"`
	Interpretation string  `json:"interpretation"`
}

// FactorStack decomposes market state into four factors.
// It is explanatory only and never feeds the zenith score.
type FactorStack struct {
	Momentum   FactorValue `json:"momentum"`
	Volatility FactorValue `json:"volatility"`
	Liquidity  FactorValue `json:"liquidity"`
	Trend      FactorValue `json:"trend"`
}

// FactorWeights are presentation weights for a regime.
type FactorWeights struct {
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	Liquidity  float64 `json:"liquidity"`
	Trend      float64 `json:"trend"`
}

// FactorScores are the 0..100 volatility and liquidity readouts.
type FactorScores struct {
	VolatilityScore int `json:"volatility_score"`
	LiquidityScore  int `json:"liquidity_score"`
}
