package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
)

var candleColumns = []string{"bucket", "open", "high", "low", "close", "vol"}

func TestLatestCandlesAreAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := newCHCandleStore(db, nil)

	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 0, 1)
	rows := sqlmock.NewRows(candleColumns).
		AddRow(t2, 11.0, 12.0, 10.5, 11.5, 900.0).
		AddRow(t1, 10.0, 11.0, 9.5, 10.5, 1000.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM zenith.candles_1d FINAL")).WithArgs("AAPL", 2).WillReturnRows(rows)

	got, err := store.GetLatestNCandles(context.Background(), "AAPL", 2, domrepo.TF1d)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, t1.Unix(), got[0].Time)
	assert.Equal(t, t2.Unix(), got[1].Time)
	assert.Equal(t, 1000.0, got[0].Volume)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCandlesRejectsUnknownTimeframe(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = newCHCandleStore(db, nil).GetCandles(context.Background(), "AAPL", time.Time{}, time.Now(), "3d")
	assert.Error(t, err)
}

func TestInsertCandlesBuildsOneStatementPerChunk(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := newCHCandleStore(db, nil)

	candles := []models.Candle{
		{Time: 1_700_000_000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: 0},
		{Time: 1_700_086_400, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 12},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO zenith.candles_1d (bucket, symbol, open, high, low, close, vol) VALUES (?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.InsertCandles(context.Background(), "AAPL", domrepo.TF1d, candles))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCandleSchemaCoversEveryTimeframe(t *testing.T) {
	assert.Len(t, CandleSchema, 5)
	assert.Contains(t, CandleSchema[4], "zenith.candles_1d")
}
