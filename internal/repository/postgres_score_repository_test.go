package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
)

var scoreColumns = []string{
	"symbol", "asset_type", "base_score", "current_score", "trend_score", "confidence",
	"lifetime_return", "volatility_score", "consistency_score", "recovery_score", "volume_score",
	"weights", "breakdown", "launch_date", "last_calculated", "updated_at",
}

func newScoreRepo(t *testing.T) (*PostgresScoreRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresScoreRepository(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func sampleRecord(now time.Time) *models.ScoreRecord {
	return &models.ScoreRecord{
		Symbol:           "AAPL",
		AssetType:        models.AssetStock,
		BaseScore:        71.2,
		CurrentScore:     71.2,
		Confidence:       100,
		LifetimeReturn:   1.4,
		VolatilityScore:  82,
		ConsistencyScore: 64,
		RecoveryScore:    77,
		VolumeScore:      0.8,
		Weights:          models.ZenithWeights{Lifetime: .4, Yearly: .2, Quarterly: .15, Monthly: .15, Weekly: .1},
		Breakdown:        models.ZenithBreakdown{Lifetime: 70, Yearly: 72, Quarterly: 69, Monthly: 75, Weekly: 74},
		LaunchDate:       now.AddDate(-5, 0, 0),
		LastCalculated:   now,
		UpdatedAt:        now,
	}
}

func TestScoreUpsert(t *testing.T) {
	repo, mock := newScoreRepo(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord(now)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO zenith_scores")).
		WithArgs("AAPL", "stock", 71.2, 71.2, 0.0, 100.0, 1.4, 82.0, 64.0, 77.0, 0.8,
			sqlmock.AnyArg(), sqlmock.AnyArg(), rec.LaunchDate, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreUpsertWrapsErrors(t *testing.T) {
	repo, mock := newScoreRepo(t)
	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO zenith_scores").WillReturnError(boom)

	err := repo.Upsert(context.Background(), sampleRecord(time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestScoreGet(t *testing.T) {
	repo, mock := newScoreRepo(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := sampleRecord(now)

	rows := sqlmock.NewRows(scoreColumns).AddRow(
		"AAPL", "stock", 71.2, 71.2, 0.0, 100.0, 1.4, 82.0, 64.0, 77.0, 0.8,
		[]byte(`{"lifetime":0.4,"yearly":0.2,"quarterly":0.15,"monthly":0.15,"weekly":0.1}`),
		[]byte(`{"lifetime":70,"yearly":72,"quarterly":69,"monthly":75,"weekly":74}`),
		want.LaunchDate, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM zenith_scores")).WithArgs("AAPL").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 71.2, got.Result().Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreGetNotFound(t *testing.T) {
	repo, mock := newScoreRepo(t)
	mock.ExpectQuery("FROM zenith_scores").WithArgs("NOPE").WillReturnRows(sqlmock.NewRows(scoreColumns))

	_, err := repo.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domrepo.ErrScoreNotFound)
}
