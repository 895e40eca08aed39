package main

import (
	"context"
	"sync"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
)

// historySource serves daily provider history as a candle source so the
// analysis runs without a ClickHouse store. The fetch happens once.
type historySource struct {
	history domrepo.HistoryProvider
	asset   models.AssetType
	rng     models.HistoryRange

	once    sync.Once
	candles []models.Candle
}

func newHistorySource(h domrepo.HistoryProvider, asset models.AssetType, r models.HistoryRange) *historySource {
	return &historySource{history: h, asset: asset, rng: r}
}

func (s *historySource) load(ctx context.Context, symbol string) []models.Candle {
	s.once.Do(func() {
		s.candles = s.history.FetchHistory(ctx, symbol, s.asset, s.rng)
	})
	return s.candles
}

// GetCandles ignores tf: provider history is daily.
func (s *historySource) GetCandles(ctx context.Context, symbol string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	var out []models.Candle
	for _, c := range s.load(ctx, symbol) {
		if t := c.Timestamp(); !t.Before(from) && !t.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *historySource) GetLatestNCandles(ctx context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	all := s.load(ctx, symbol)
	if n > 0 && n < len(all) {
		return all[len(all)-n:], nil
	}
	return all, nil
}
