package history

import (
	"context"
	"errors"
	"time"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/domain/repository"
	"ZenithCore/pkg/cache"
	"ZenithCore/pkg/logger"
)

const keyPrefix = "history"

// CachedProvider serves repeated fetches of the same symbol and range from
// cache. Empty results are never cached so a rate-limited call is retried
// on the next request.
type CachedProvider struct {
	next    repository.HistoryProvider
	cache   cache.Service
	ttl     time.Duration
	log     *logger.Logger
	metrics repository.Metrics
}

func NewCachedProvider(next repository.HistoryProvider, c cache.Service, ttl time.Duration, log *logger.Logger, metrics repository.Metrics) *CachedProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, log: log.With("history_cache"), metrics: metrics}
}

func (p *CachedProvider) FetchHistory(ctx context.Context, symbol string, asset models.AssetType, r models.HistoryRange) []models.Candle {
	key := cache.Key(keyPrefix, symbol, asset, r)

	var candles []models.Candle
	err := p.cache.Get(ctx, key, &candles)
	switch {
	case err == nil && len(candles) > 0:
		p.record("hit")
		return candles
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		p.log.Warn("history cache read failed", logger.String("key", key), logger.Error(err))
	}
	p.record("miss")

	candles = p.next.FetchHistory(ctx, symbol, asset, r)
	if len(candles) == 0 {
		return candles
	}
	if err := p.cache.Set(ctx, key, candles, p.ttl); err != nil {
		p.log.Warn("history cache write failed", logger.String("key", key), logger.Error(err))
	}
	return candles
}

func (p *CachedProvider) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordHistoryFetch("cache", result)
	}
}
