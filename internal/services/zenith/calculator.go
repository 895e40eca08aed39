package zenith

import (
	"context"
	"fmt"
	"time"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/domain/repository"
	domsvc "ZenithCore/internal/domain/service"
	"ZenithCore/internal/services/indicators"
	"ZenithCore/pkg/logger"
)

const (
	minPeriodPoints = 10
	staleAfter      = 24 * time.Hour
	launchLookback  = 5
)

// Lifetime is the lifetime sub-score with the metrics that produced it.
type Lifetime struct {
	Score   float64
	Metrics models.LifetimeMetrics
}

// Calculator scores one symbol. It is cheap to build per request.
type Calculator struct {
	symbol  string
	asset   models.AssetType
	cfg     models.ZenithScoreConfig
	history repository.HistoryProvider
	store   repository.ScoreRepository
	log     *logger.Logger
	now     func() time.Time
}

type Option func(*Calculator)

func WithLogger(l *logger.Logger) Option {
	return func(c *Calculator) { c.log = l.With("zenith") }
}

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator validates cfg. store may be nil, in which case results are
// computed but not persisted.
func NewCalculator(symbol string, asset models.AssetType, cfg models.ZenithScoreConfig,
	history repository.HistoryProvider, store repository.ScoreRepository, opts ...Option) (*Calculator, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if history == nil {
		return nil, fmt.Errorf("zenith: history provider is required")
	}
	c := &Calculator{
		symbol:  symbol,
		asset:   asset,
		cfg:     cfg,
		history: history,
		store:   store,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CalculateFinalScore fetches history, scores every horizon, combines them
// and upserts the result.
func (c *Calculator) CalculateFinalScore(ctx context.Context) (models.ZenithScoreResult, error) {
	now := c.now()
	c.checkStaleness(ctx, now)

	data := c.history.FetchHistory(ctx, c.symbol, c.asset, models.Range5Y)
	if err := ctx.Err(); err != nil {
		return models.ZenithScoreResult{}, err
	}
	data = sortedByTime(data)

	lifetime := c.LifetimeScore(data)
	breakdown := models.ZenithBreakdown{
		Lifetime:  lifetime.Score,
		Yearly:    PeriodScore(since(data, now.AddDate(-1, 0, 0))),
		Quarterly: PeriodScore(since(data, now.AddDate(0, -3, 0))),
		Monthly:   PeriodScore(since(data, now.AddDate(0, -1, 0))),
		Weekly:    PeriodScore(since(data, now.Add(-7*24*time.Hour))),
	}

	w := c.cfg.Weights
	total := breakdown.Lifetime*w.Lifetime +
		breakdown.Yearly*w.Yearly +
		breakdown.Quarterly*w.Quarterly +
		breakdown.Monthly*w.Monthly +
		breakdown.Weekly*w.Weekly

	res := models.ZenithScoreResult{
		Symbol:      c.symbol,
		Score:       indicators.Clamp(total, 0, 100),
		Breakdown:   breakdown,
		Confidence:  Confidence(lifetime.Metrics),
		LastUpdated: now,
	}

	c.log.Info("zenith score computed",
		logger.String("symbol", c.symbol),
		logger.Int("candles", len(data)),
		logger.Float64("score", res.Score),
		logger.Float64("confidence", res.Confidence),
	)

	if c.store != nil {
		if err := c.store.Upsert(ctx, c.record(res, lifetime, now)); err != nil {
			return res, fmt.Errorf("store zenith score %s: %w", c.symbol, err)
		}
	}
	return res, nil
}

// checkStaleness only records whether the stored score is older than a day;
// history is always re-fetched.
func (c *Calculator) checkStaleness(ctx context.Context, now time.Time) {
	if c.store == nil {
		return
	}
	rec, err := c.store.Get(ctx, c.symbol)
	if err != nil || rec == nil {
		return
	}
	if now.Sub(rec.LastCalculated) < staleAfter {
		c.log.Debug("stored zenith score is fresh, recomputing anyway",
			logger.String("symbol", c.symbol),
			logger.Any("last_calculated", rec.LastCalculated))
	}
}

// LifetimeScore scores the full history. Below MinDataPoints it is neutral
// and Metrics.HasData is false.
func (c *Calculator) LifetimeScore(data []models.Candle) Lifetime {
	if len(data) < c.cfg.MinDataPoints {
		return Lifetime{Score: 50}
	}
	rets := Returns(data)
	vol := Volatility(data)
	dd := Drawdowns(data)
	volume := AnalyzeVolume(data)

	returnScore := NormalizeReturn(rets.TotalReturn)
	volatilityScore := NormalizeVolatility(vol.Annualized)
	consistency := Consistency(rets.Periodic)
	recovery := RecoveryAbility(dd)

	score := returnScore*0.35 +
		volatilityScore*0.25 +
		consistency*0.20 +
		recovery*0.15 +
		volume.Score*0.05

	return Lifetime{
		Score: indicators.Clamp(score, 0, 100),
		Metrics: models.LifetimeMetrics{
			HasData:              true,
			TotalReturn:          rets.TotalReturn,
			AnnualizedVolatility: vol.Annualized,
			MaxDrawdown:          dd.MaxDrawdown,
			AvgRecoveryDays:      dd.AvgRecoveryDays,
			VolumeConsistency:    volume.Consistency,
			ConsistencyScore:     consistency,
			RecoveryScore:        recovery,
			VolumeScore:          volume.Score,
		},
	}
}

// PeriodScore is the light horizon score: 70% return, 30% volatility.
func PeriodScore(data []models.Candle) float64 {
	if len(data) < minPeriodPoints {
		return 50
	}
	return NormalizeReturn(Returns(data).TotalReturn)*0.7 +
		NormalizeVolatility(Volatility(data).Annualized)*0.3
}

// Confidence starts at 100, loses 20 above 100% volatility and 30 without
// lifetime data, and gains 10 when drawdowns recover within 90 days.
func Confidence(m models.LifetimeMetrics) float64 {
	conf := 100.0
	if m.AnnualizedVolatility > 1 {
		conf -= 20
	}
	if !m.HasData {
		conf -= 30
	}
	if m.HasData && m.AvgRecoveryDays < 90 {
		conf += 10
	}
	return indicators.Clamp(conf, 0, 100)
}

func since(data []models.Candle, from time.Time) []models.Candle {
	cutoff := from.UnixMilli()
	for i, c := range data {
		if c.Time*1000 >= cutoff {
			return data[i:]
		}
	}
	return nil
}

func (c *Calculator) record(res models.ZenithScoreResult, lt Lifetime, now time.Time) *models.ScoreRecord {
	m := lt.Metrics
	rec := &models.ScoreRecord{
		Symbol:           c.symbol,
		AssetType:        c.asset,
		BaseScore:        res.Score,
		CurrentScore:     res.Score,
		Confidence:       res.Confidence,
		LifetimeReturn:   m.TotalReturn,
		VolatilityScore:  50,
		ConsistencyScore: orNeutral(m.ConsistencyScore),
		RecoveryScore:    orNeutral(m.RecoveryScore),
		// stored from volume consistency (0..1) as the scoreboard reads it
		VolumeScore:    orNeutral(m.VolumeConsistency),
		Weights:        c.cfg.Weights,
		Breakdown:      res.Breakdown,
		LaunchDate:     now.AddDate(-launchLookback, 0, 0),
		LastCalculated: now,
		UpdatedAt:      now,
	}
	if m.HasData {
		rec.VolatilityScore = NormalizeVolatility(m.AnnualizedVolatility)
	}
	return rec
}

func orNeutral(v float64) float64 {
	if v == 0 {
		return 50
	}
	return v
}

var _ domsvc.ScoreCalculator = (*Calculator)(nil)
