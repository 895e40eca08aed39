package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/services/factors"
	"ZenithCore/internal/services/pulse"
	"ZenithCore/internal/services/regime"
	"ZenithCore/pkg/logger"
)

// AnalysisUseCase computes regime, factors and pulse signals over stored candles.
type AnalysisUseCase struct {
	store     domrepo.CandleSource
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewAnalysisUseCase(store domrepo.CandleSource, publisher domrepo.EventPublisher, metrics domrepo.Metrics, l *logger.Logger, opts ...AnalysisOption) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		log:       l.With("analysis"),
		timeout:   10 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type AnalysisOption func(*AnalysisUseCase)

// WithAnalysisTimeout caps one analysis request including the candle load.
func WithAnalysisTimeout(d time.Duration) AnalysisOption {
	return func(uc *AnalysisUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

type AnalysisParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	Strategy  models.StrategyKind
}

// FactorsView is the factor stack with its regime-dependent display weights.
type FactorsView struct {
	Symbol  string               `json:"symbol"`
	Regime  models.RegimeType    `json:"regime"`
	Factors models.FactorStack   `json:"factors"`
	Weights models.FactorWeights `json:"weights"`
	Scores  models.FactorScores  `json:"scores"`
}

// PulseView holds the active signals of one strategy.
type PulseView struct {
	Symbol   string               `json:"symbol"`
	Strategy models.StrategyKind  `json:"strategy"`
	Signals  []models.PulseSignal `json:"signals"`
}

// Analyze fans regime, factors and pulse out in parallel over one candle read.
// A failing part lands in Errors; the rest is still returned.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, p AnalysisParams) (*models.MarketAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	candles, err := uc.load(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, err
	}

	res := &models.MarketAnalysis{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Candles:   len(candles),
		Timestamp: uc.now().UTC(),
		Signals:   []models.PulseSignal{},
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"regime", uc.regime(p.Symbol, candles), nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"factors", factors.Compute(candles), nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.detect(p.Strategy, candles)
		ch <- item{"pulse", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "regime":
			v := it.val.(models.Regime)
			res.Regime = &v
		case "factors":
			v := it.val.(models.FactorStack)
			res.Factors = &v
		case "pulse":
			res.Signals = it.val.([]models.PulseSignal)
		}
	}

	if res.Regime != nil && res.Factors != nil {
		w := factors.RegimeWeights(res.Regime.Type)
		s := factors.Scores(*res.Factors)
		res.Weights, res.Scores = &w, &s
	}
	if _, failed := res.Errors["pulse"]; !failed {
		uc.publish(ctx, p.Symbol, res.Signals)
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// Regime classifies the latest n candles.
func (uc *AnalysisUseCase) Regime(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Regime, error) {
	candles, err := uc.load(ctx, symbol, n, tf)
	if err != nil {
		return models.Regime{}, err
	}
	return uc.regime(symbol, candles), nil
}

// Factors computes the factor stack and weights it by the current regime.
func (uc *AnalysisUseCase) Factors(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*FactorsView, error) {
	candles, err := uc.load(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	stack := factors.Compute(candles)
	rt := uc.regime(symbol, candles).Type
	return &FactorsView{
		Symbol:  symbol,
		Regime:  rt,
		Factors: stack,
		Weights: factors.RegimeWeights(rt),
		Scores:  factors.Scores(stack),
	}, nil
}

// Pulse returns the active signals of one strategy and publishes them.
func (uc *AnalysisUseCase) Pulse(ctx context.Context, symbol string, n int, tf domrepo.Timeframe, strategy models.StrategyKind) (*PulseView, error) {
	candles, err := uc.load(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	signals, err := uc.detect(strategy, candles)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, symbol, signals)
	if strategy == "" {
		strategy = models.StrategyCombined
	}
	return &PulseView{Symbol: symbol, Strategy: strategy, Signals: signals}, nil
}

func (uc *AnalysisUseCase) load(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("candle_read")
		return nil, fmt.Errorf("load candles %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}

func (uc *AnalysisUseCase) regime(symbol string, candles []models.Candle) models.Regime {
	r := regime.Detect(symbol, candles)
	uc.metrics.RecordRegime(r.Type)
	return r
}

func (uc *AnalysisUseCase) detect(strategy models.StrategyKind, candles []models.Candle) ([]models.PulseSignal, error) {
	det, err := pulse.New(strategy, pulse.Options{Now: uc.now})
	if err != nil {
		return nil, err
	}
	signals := pulse.FilterActive(det.Detect(candles), uc.now())
	uc.metrics.RecordSignals(det.Kind(), signals)
	return signals, nil
}

func (uc *AnalysisUseCase) publish(ctx context.Context, symbol string, signals []models.PulseSignal) {
	if uc.publisher == nil || len(signals) == 0 {
		return
	}
	if err := uc.publisher.PublishSignals(ctx, symbol, signals); err != nil {
		uc.metrics.RecordError("publish_signals")
		uc.log.Warn("publish signals failed", logger.String("symbol", symbol), logger.Error(err))
	}
}
