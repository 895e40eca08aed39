package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/services/zenith"
	"ZenithCore/pkg/cache"
	"ZenithCore/pkg/logger"
)

// ErrRecomputeInProgress is returned when another worker holds the symbol lock.
var ErrRecomputeInProgress = errors.New("zenith recompute already in progress")

const lockPrefix = "zenith:lock"

// ZenithScoreUseCase serves stored scores and recomputes them under a
// per-symbol lock.
type ZenithScoreUseCase struct {
	cfg       models.ZenithScoreConfig
	history   domrepo.HistoryProvider
	scores    domrepo.ScoreRepository
	locks     cache.Service
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	freshFor  time.Duration
	lockTTL   time.Duration
	now       func() time.Time
}

func NewZenithScoreUseCase(
	cfg models.ZenithScoreConfig,
	history domrepo.HistoryProvider,
	scores domrepo.ScoreRepository,
	locks cache.Service,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *logger.Logger,
	opts ...ZenithOption,
) *ZenithScoreUseCase {
	uc := &ZenithScoreUseCase{
		cfg:       cfg,
		history:   history,
		scores:    scores,
		locks:     locks,
		publisher: publisher,
		metrics:   metrics,
		log:       l.With("zenith_usecase"),
		freshFor:  24 * time.Hour,
		lockTTL:   2 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ZenithOption tunes ZenithScoreUseCase.
type ZenithOption func(*ZenithScoreUseCase)

// WithFreshFor sets how long a stored score is served without recomputing.
func WithFreshFor(d time.Duration) ZenithOption {
	return func(uc *ZenithScoreUseCase) {
		if d > 0 {
			uc.freshFor = d
		}
	}
}

// WithLockTTL bounds how long a crashed recompute can hold a symbol.
func WithLockTTL(d time.Duration) ZenithOption {
	return func(uc *ZenithScoreUseCase) {
		if d > 0 {
			uc.lockTTL = d
		}
	}
}

// Get returns the stored score while it is younger than a day and
// recomputes it otherwise. cached reports which path served it.
func (uc *ZenithScoreUseCase) Get(ctx context.Context, symbol string, asset models.AssetType) (res models.ZenithScoreResult, cached bool, err error) {
	rec, err := uc.scores.Get(ctx, symbol)
	switch {
	case err == nil && uc.now().Sub(rec.LastCalculated) < uc.freshFor:
		return rec.Result(), true, nil
	case err != nil && !errors.Is(err, domrepo.ErrScoreNotFound):
		uc.log.Warn("read stored score failed, recomputing", logger.String("symbol", symbol), logger.Error(err))
	}
	res, err = uc.Recompute(ctx, symbol, asset)
	return res, false, err
}

// Recompute always fetches history and overwrites the stored score.
func (uc *ZenithScoreUseCase) Recompute(ctx context.Context, symbol string, asset models.AssetType) (models.ZenithScoreResult, error) {
	if symbol == "" {
		return models.ZenithScoreResult{}, fmt.Errorf("symbol required")
	}
	if asset == "" {
		asset = models.AssetStock
	}

	key := cache.Key(lockPrefix, symbol)
	if uc.locks != nil {
		ok, err := uc.locks.TryLock(ctx, key, uc.lockTTL)
		if err != nil {
			return models.ZenithScoreResult{}, fmt.Errorf("lock %s: %w", symbol, err)
		}
		if !ok {
			return models.ZenithScoreResult{}, ErrRecomputeInProgress
		}
		defer func() {
			if err := uc.locks.Unlock(context.WithoutCancel(ctx), key); err != nil {
				uc.log.Warn("unlock failed", logger.String("key", key), logger.Error(err))
			}
		}()
	}

	calc, err := zenith.NewCalculator(symbol, asset, uc.cfg, uc.history, uc.scores,
		zenith.WithLogger(uc.log), zenith.WithClock(uc.now))
	if err != nil {
		return models.ZenithScoreResult{}, err
	}

	start := time.Now()
	res, err := calc.CalculateFinalScore(ctx)
	uc.metrics.RecordLatency("zenith_compute", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError("zenith_compute")
		return res, err
	}
	uc.metrics.RecordScore(symbol, res.Score)

	if uc.publisher != nil {
		if err := uc.publisher.PublishScore(ctx, res); err != nil {
			uc.metrics.RecordError("publish_score")
			uc.log.Warn("publish score failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	return res, nil
}

// Process adapts Recompute to the recompute pipeline. A held lock means the
// work is already happening, so it counts as done.
func (uc *ZenithScoreUseCase) Process(ctx context.Context, req models.RecomputeRequest) error {
	_, err := uc.Recompute(ctx, req.Symbol, req.AssetType)
	if errors.Is(err, ErrRecomputeInProgress) {
		return nil
	}
	return err
}
