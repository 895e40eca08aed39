package repository

import (
	"context"
	"errors"

	"ZenithCore/internal/domain/models"
)

// ErrScoreNotFound is returned when no score has been stored for a symbol.
var ErrScoreNotFound = errors.New("score not found")

// ScoreRepository persists zenith scores keyed by symbol.
type ScoreRepository interface {
	Upsert(ctx context.Context, rec *models.ScoreRecord) error
	Get(ctx context.Context, symbol string) (*models.ScoreRecord, error)
}

// EventPublisher ships analytic outputs to downstream consumers.
type EventPublisher interface {
	PublishSignals(ctx context.Context, symbol string, signals []models.PulseSignal) error
	PublishScore(ctx context.Context, res models.ZenithScoreResult) error
	Close() error
}

type Metrics interface {
	RecordRegime(regime models.RegimeType)
	RecordSignals(strategy models.StrategyKind, signals []models.PulseSignal)
	RecordScore(symbol string, score float64)
	RecordHistoryFetch(source, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	ReplaySessionOpened()
	ReplaySessionClosed()
}
