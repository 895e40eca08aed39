package service

import (
	"context"

	"ZenithCore/internal/domain/models"
)

// SignalDetector turns a candle series into pulse signals using one strategy.
// Candles are passed ascending by time; strategies that need another order
// derive it themselves.
type SignalDetector interface {
	Kind() models.StrategyKind
	Detect(candles []models.Candle) []models.PulseSignal
}

// ScoreCalculator produces a zenith score for a symbol.
type ScoreCalculator interface {
	CalculateFinalScore(ctx context.Context) (models.ZenithScoreResult, error)
}
