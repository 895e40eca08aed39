package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/services/zenith"
	"ZenithCore/internal/testutil"
)

type countingHistory struct {
	candles []models.Candle
	calls   int
}

func (h *countingHistory) FetchHistory(context.Context, string, models.AssetType, models.HistoryRange) []models.Candle {
	h.calls++
	return h.candles
}

func TestHistorySourceFetchesOnce(t *testing.T) {
	h := &countingHistory{candles: testutil.Linear(30, 100, 1, 10)}
	src := newHistorySource(h, models.AssetStock, models.Range1M)

	latest, err := src.GetLatestNCandles(context.Background(), "AAPL", 5, domrepo.TF1d)
	require.NoError(t, err)
	require.Len(t, latest, 5)
	assert.Equal(t, h.candles[25], latest[0])

	all, err := src.GetLatestNCandles(context.Background(), "AAPL", 0, domrepo.TF1d)
	require.NoError(t, err)
	assert.Len(t, all, 30)
	assert.Equal(t, 1, h.calls)
}

func TestHistorySourceRange(t *testing.T) {
	h := &countingHistory{candles: testutil.Linear(30, 100, 1, 10)}
	src := newHistorySource(h, models.AssetStock, models.Range1M)

	from := h.candles[10].Timestamp()
	to := h.candles[14].Timestamp()
	got, err := src.GetCandles(context.Background(), "AAPL", from, to, domrepo.TF1d)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = src.GetCandles(context.Background(), "AAPL", to.Add(time.Hour*24*365), to.Add(time.Hour*24*400), domrepo.TF1d)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"analyze", "score", "replay", "backfill"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	analyze, _, _ := root.Find([]string{"analyze"})
	assert.Equal(t, "history", analyze.Flags().Lookup("source").DefValue)
}

func TestRootCommandRejectsMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"score", "--symbol", "AAPL", "--config", "/nonexistent/config.yaml"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestScoreOutputCarriesInterpretation(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	res := models.ZenithScoreResult{Symbol: "AAPL", Score: 82.5, Confidence: 90}
	require.NoError(t, printJSON(cmd, scoreOutput{ZenithScoreResult: res, Interpretation: zenith.Interpret(res.Score)}))

	var out struct {
		Symbol         string                     `json:"symbol"`
		Score          float64                    `json:"score"`
		Interpretation models.ScoreInterpretation `json:"interpretation"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "AAPL", out.Symbol)
	assert.Equal(t, 82.5, out.Score)
	assert.Equal(t, "Excellent", out.Interpretation.Label)
}
