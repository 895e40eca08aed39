package http

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleQuery struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" default:"1d" validate:"oneof=1m 5m 1h 1d"`
}

func TestValidateStructAppliesDefaults(t *testing.T) {
	q := sampleQuery{Symbol: "AAPL"}
	require.Empty(t, ValidateStruct(context.Background(), &q))
	assert.Equal(t, 300, q.N)
	assert.Equal(t, "1d", q.TF)
}

func TestValidateStructReportsQueryNames(t *testing.T) {
	q := sampleQuery{N: 9000, TF: "2w"}
	errs := ValidateStruct(context.Background(), &q)
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_REQUIRED", byField["symbol"].Code)
	assert.Equal(t, "symbol is required", byField["symbol"].Message)
	assert.Equal(t, "n must be at most 5000", byField["n"].Message)
	assert.Equal(t, "5000", byField["n"].Params["max"])
	assert.Equal(t, "tf must be one of: 1m, 5m, 1h, 1d", byField["tf"].Message)
	assert.Equal(t, []string{"1m", "5m", "1h", "1d"}, byField["tf"].Params["options"])
}

func TestPlainErrorsBecomeUnknown(t *testing.T) {
	errs := toValidationErrors(errors.New("bad json"))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
	assert.Equal(t, "bad json", errs[0].Message)
}
