package models

import "time"

// SignalCategory groups pulse signals by market meaning.
type SignalCategory string

const (
	CategoryStrength  SignalCategory = "strength"
	CategoryWeakness  SignalCategory = "weakness"
	CategoryNeutral   SignalCategory = "neutral"
	CategoryStructure SignalCategory = "structure"
	CategoryMeta      SignalCategory = "meta"
)

// Confidence is a coarse certainty bucket.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// StrategyKind selects a pulse detection strategy.
type StrategyKind string

const (
	StrategyHeuristic StrategyKind = "heuristic"
	StrategyFormula   StrategyKind = "formula"
	StrategyCombined  StrategyKind = "combined"
)

// SignalDebug is the audit trail attached by formula signals.
type SignalDebug struct {
	Formula   string             `json:"formula"`
	Values    map[string]float64 `json:"values"`
	Threshold float64            `json:"threshold"`
}

// PulseSignal is a short-lived market event. Timestamp is unix milliseconds
// and TTL is in seconds.
type PulseSignal struct {
	ID         string         `json:"id"`
	Timestamp  int64          `json:"timestamp"`
	Category   SignalCategory `json:"category"`
	Message    string         `json:"message"`
	Confidence Confidence     `json:"confidence"`
	TTL        int            `json:"ttl"`
	Strategy   StrategyKind   `json:"strategy"`
	Debug      *SignalDebug   `json:"debug,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// ExpiresAt returns the instant after which consumers drop the signal.
func (s PulseSignal) ExpiresAt() time.Time {
	return time.UnixMilli(s.Timestamp + int64(s.TTL)*1000)
}

// IsExpired reports whether now is past ExpiresAt, compared at millisecond
// precision like Timestamp.
func (s PulseSignal) IsExpired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt().UnixMilli()
}
