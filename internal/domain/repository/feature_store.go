package repository

import (
	"context"
	"time"

	"ZenithCore/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
	TF1h Timeframe = "1h"
	TF1d Timeframe = "1d"
)

// CandleSource provides read-only access to stored candles, ascending by time.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// HistoryProvider performs one-shot daily history fetches.
// Failures are reported as an empty slice, never as an error.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, asset models.AssetType, r models.HistoryRange) []models.Candle
}

// CandleSink stores candles, replacing rows with the same symbol and time.
type CandleSink interface {
	InsertCandles(ctx context.Context, symbol string, tf Timeframe, candles []models.Candle) error
}
