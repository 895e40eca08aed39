package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	pkgch "ZenithCore/pkg/clickhouse"
	"ZenithCore/pkg/logger"
)

const insertChunkSize = 2000

// CandleSchema creates one ReplacingMergeTree table per timeframe, so
// re-inserting a bucket overwrites it on merge.
var CandleSchema = func() []string {
	stmts := []string{`CREATE DATABASE IF NOT EXISTS zenith`}
	for _, tf := range []domrepo.Timeframe{domrepo.TF1m, domrepo.TF5m, domrepo.TF1h, domrepo.TF1d} {
		table, _ := tableForTF(tf)
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			bucket DateTime,
			symbol LowCardinality(String),
			open   Float64,
			high   Float64,
			low    Float64,
			close  Float64,
			vol    Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, bucket)`, table))
	}
	return stmts
}()

// CHCandleStore reads and writes OHLCV candles in ClickHouse.
type CHCandleStore struct {
	db *sql.DB
	l  *logger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, l *logger.Logger) *CHCandleStore {
	return newCHCandleStore(ch.DB(), l)
}

func newCHCandleStore(db *sql.DB, l *logger.Logger) *CHCandleStore {
	if l == nil {
		l = logger.Nop()
	}
	return &CHCandleStore{db: db, l: l.With("clickhouse")}
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `, table)
	out, err := s.query(ctx, q, symbol, from, to)
	if err != nil {
		s.l.Error("clickhouse get_candles failed",
			logger.String("table", table),
			logger.String("symbol", symbol),
			logger.Error(err),
		)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	s.l.Debug("clickhouse get_candles ok",
		logger.String("table", table),
		logger.String("symbol", symbol),
		logger.Int("rows", len(out)),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// GetLatestNCandles returns the newest n candles in ascending order.
func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `, table)
	out, err := s.query(ctx, q, symbol, n)
	if err != nil {
		s.l.Error("clickhouse latest_candles failed",
			logger.String("table", table),
			logger.String("symbol", symbol),
			logger.Int("limit", n),
			logger.Error(err),
		)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	s.l.Debug("clickhouse latest_candles ok",
		logger.String("table", table),
		logger.String("symbol", symbol),
		logger.Int("rows", len(out)),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// InsertCandles writes candles with multi-row VALUES inserts in chunks.
func (s *CHCandleStore) InsertCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, candles []models.Candle) error {
	table, err := tableForTF(tf)
	if err != nil {
		return err
	}
	for start := 0; start < len(candles); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range candles[start:end] {
			if c.Time <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.Timestamp(), symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s", table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert candles %s: %w", symbol, err)
		}
	}
	s.l.Info("clickhouse candles inserted",
		logger.String("table", table),
		logger.String("symbol", symbol),
		logger.Int("rows", len(candles)),
	)
	return nil
}

func (s *CHCandleStore) query(ctx context.Context, q string, args ...interface{}) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		var bucket time.Time
		if err := rows.Scan(&bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Time = bucket.Unix()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1m:
		return "zenith.candles_1m", nil
	case domrepo.TF5m:
		return "zenith.candles_5m", nil
	case domrepo.TF1h:
		return "zenith.candles_1h", nil
	case domrepo.TF1d:
		return "zenith.candles_1d", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

var _ domrepo.CandleSource = (*CHCandleStore)(nil)
