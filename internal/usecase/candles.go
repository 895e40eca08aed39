package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/pkg/logger"
	"ZenithCore/pkg/util"
)

// ErrNoCandles is returned when the store holds nothing for a symbol.
var ErrNoCandles = errors.New("no candles for symbol")

// CandlesUseCase reads stored candles and backfills daily history.
type CandlesUseCase struct {
	store   domrepo.CandleSource
	sink    domrepo.CandleSink
	history domrepo.HistoryProvider
	log     *logger.Logger
}

func NewCandlesUseCase(store domrepo.CandleSource, sink domrepo.CandleSink, history domrepo.HistoryProvider, l *logger.Logger) *CandlesUseCase {
	return &CandlesUseCase{store: store, sink: sink, history: history, log: l.With("candles")}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
}

// Latest returns the newest n candles ascending.
func (uc *CandlesUseCase) Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*GetCandlesResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return &GetCandlesResult{Symbol: symbol, Timeframe: string(tf), Count: len(candles), Candles: candles}, nil
}

// Range returns candles between From and To, truncated to Limit.
func (uc *CandlesUseCase) Range(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 5000
	}
	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[len(candles)-p.Limit:]
	}
	return &GetCandlesResult{Symbol: p.Symbol, Timeframe: string(p.Timeframe), Count: len(candles), Candles: candles}, nil
}

// Backfill fetches daily history and writes it to the 1d table. It returns
// the number of candles written; an empty fetch writes nothing.
func (uc *CandlesUseCase) Backfill(ctx context.Context, symbol string, asset models.AssetType, r models.HistoryRange) (int, error) {
	if uc.sink == nil {
		return 0, fmt.Errorf("backfill: no candle sink configured")
	}
	candles := uc.history.FetchHistory(ctx, symbol, asset, r)
	if len(candles) == 0 {
		uc.log.Warn("backfill fetched no candles", logger.String("symbol", symbol), logger.String("range", string(r)))
		return 0, nil
	}
	if err := uc.sink.InsertCandles(ctx, symbol, domrepo.TF1d, candles); err != nil {
		return 0, fmt.Errorf("backfill %s: %w", symbol, err)
	}
	uc.log.Info("backfill done",
		logger.String("symbol", symbol),
		logger.String("range", string(r)),
		logger.Int("candles", len(candles)),
	)
	return len(candles), nil
}
