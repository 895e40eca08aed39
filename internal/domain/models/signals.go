package models

import "time"

// MarketAnalysis is the consolidated analytic view for one symbol.
type MarketAnalysis struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Candles   int               `json:"candles"`
	Timestamp time.Time         `json:"timestamp"`
	Regime    *Regime           `json:"regime,omitempty"`
	Factors   *FactorStack      `json:"factors,omitempty"`
	Weights   *FactorWeights    `json:"weights,omitempty"`
	Scores    *FactorScores     `json:"scores,omitempty"`
	Signals   []PulseSignal     `json:"signals"`
	Errors    map[string]string `json:"errors,omitempty"`
}
