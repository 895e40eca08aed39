package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchemaRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS zenith_scores")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, c.InitSchema(context.Background(), Schema))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchemaWrapsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(sqlx.NewDb(db, "sqlmock"))

	boom := errors.New("permission denied")
	mock.ExpectExec("CREATE TABLE").WillReturnError(boom)

	err = c.InitSchema(context.Background(), Schema)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "init schema")
}

func TestNewClientRequiresDSN(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
