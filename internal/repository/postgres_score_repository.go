package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
)

const upsertScoreQuery = `
	INSERT INTO zenith_scores
		(symbol, asset_type, base_score, current_score, trend_score, confidence,
		 lifetime_return, volatility_score, consistency_score, recovery_score, volume_score,
		 weights, breakdown, launch_date, last_calculated, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (symbol) DO UPDATE SET
		asset_type = EXCLUDED.asset_type,
		base_score = EXCLUDED.base_score,
		current_score = EXCLUDED.current_score,
		trend_score = EXCLUDED.trend_score,
		confidence = EXCLUDED.confidence,
		lifetime_return = EXCLUDED.lifetime_return,
		volatility_score = EXCLUDED.volatility_score,
		consistency_score = EXCLUDED.consistency_score,
		recovery_score = EXCLUDED.recovery_score,
		volume_score = EXCLUDED.volume_score,
		weights = EXCLUDED.weights,
		breakdown = EXCLUDED.breakdown,
		launch_date = EXCLUDED.launch_date,
		last_calculated = EXCLUDED.last_calculated,
		updated_at = EXCLUDED.updated_at`

const selectScoreQuery = `
	SELECT symbol, asset_type, base_score, current_score, trend_score, confidence,
	       lifetime_return, volatility_score, consistency_score, recovery_score, volume_score,
	       weights, breakdown, launch_date, last_calculated, updated_at
	FROM zenith_scores
	WHERE symbol = $1`

// scoreRow mirrors zenith_scores; JSON columns are decoded after scanning.
type scoreRow struct {
	models.ScoreRecord
	WeightsJSON   []byte `db:"weights"`
	BreakdownJSON []byte `db:"breakdown"`
}

// PostgresScoreRepository stores one zenith score row per symbol.
type PostgresScoreRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgresScoreRepository(db *sqlx.DB, timeout time.Duration) *PostgresScoreRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresScoreRepository{db: db, timeout: timeout}
}

// Upsert overwrites the row for rec.Symbol. Concurrent writers race and the
// last one wins.
func (r *PostgresScoreRepository) Upsert(ctx context.Context, rec *models.ScoreRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	weights, err := json.Marshal(rec.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	_, err = r.db.ExecContext(ctx, upsertScoreQuery,
		rec.Symbol, string(rec.AssetType), rec.BaseScore, rec.CurrentScore, rec.TrendScore, rec.Confidence,
		rec.LifetimeReturn, rec.VolatilityScore, rec.ConsistencyScore, rec.RecoveryScore, rec.VolumeScore,
		weights, breakdown, rec.LaunchDate, rec.LastCalculated, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert zenith score %s: %w", rec.Symbol, err)
	}
	return nil
}

// Get returns domrepo.ErrScoreNotFound when the symbol was never scored.
func (r *PostgresScoreRepository) Get(ctx context.Context, symbol string) (*models.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row scoreRow
	if err := r.db.QueryRowxContext(ctx, selectScoreQuery, symbol).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrScoreNotFound
		}
		return nil, fmt.Errorf("get zenith score %s: %w", symbol, err)
	}

	rec := row.ScoreRecord
	if err := json.Unmarshal(row.WeightsJSON, &rec.Weights); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	if err := json.Unmarshal(row.BreakdownJSON, &rec.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return &rec, nil
}

var _ domrepo.ScoreRepository = (*PostgresScoreRepository)(nil)
