package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/service/ratelimit"
	"ZenithCore/internal/services/zenith"
	"ZenithCore/internal/testutil"
	"ZenithCore/internal/usecase"
	xhttp "ZenithCore/pkg/http"
	"ZenithCore/pkg/logger"
	"ZenithCore/pkg/metrics"
)

type stubStore struct{ candles []models.Candle }

func (s stubStore) GetCandles(context.Context, string, time.Time, time.Time, domrepo.Timeframe) ([]models.Candle, error) {
	return s.candles, nil
}

func (s stubStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if n < len(s.candles) {
		return s.candles[len(s.candles)-n:], nil
	}
	return s.candles, nil
}

type stubHistory struct{ candles []models.Candle }

func (h stubHistory) FetchHistory(context.Context, string, models.AssetType, models.HistoryRange) []models.Candle {
	return h.candles
}

type stubScores struct{ rec *models.ScoreRecord }

func (s *stubScores) Upsert(_ context.Context, rec *models.ScoreRecord) error {
	s.rec = rec
	return nil
}

func (s *stubScores) Get(context.Context, string) (*models.ScoreRecord, error) {
	if s.rec == nil {
		return nil, domrepo.ErrScoreNotFound
	}
	return s.rec, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestEcho(handlers ...xhttp.Handler) *echo.Echo {
	e := echo.New()
	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	return e
}

func doGet(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func analysisHandler(candles []models.Candle) *AnalysisHandler {
	store := stubStore{candles: candles}
	log := logger.Nop()
	return NewAnalysisHandler(log,
		usecase.NewAnalysisUseCase(store, nil, metrics.Nop{}, log),
		usecase.NewCandlesUseCase(store, nil, stubHistory{}, log),
	)
}

func TestCandlesEndpoint(t *testing.T) {
	e := newTestEcho(analysisHandler(testutil.Linear(50, 10, 1, 100)))

	rec, env := doGet(t, e, "/api/candles?symbol=aapl&n=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var res usecase.GetCandlesResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, "1d", res.Timeframe)
	assert.Equal(t, 5, res.Count)
}

func TestCandlesEndpointValidation(t *testing.T) {
	e := newTestEcho(analysisHandler(nil))

	rec, env := doGet(t, e, "/api/candles?n=5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "symbol")

	rec, _ = doGet(t, e, "/api/candles?symbol=AAPL&tf=2w")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisEndpointUnknownSymbol(t *testing.T) {
	e := newTestEcho(analysisHandler(nil))

	rec, env := doGet(t, e, "/api/analysis?symbol=NONE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_NOT_FOUND")
}

func TestAnalysisEndpoint(t *testing.T) {
	e := newTestEcho(analysisHandler(testutil.Linear(260, 100, 1, 1000)))

	rec, env := doGet(t, e, "/api/analysis?symbol=AAPL&strategy=heuristic")
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.MarketAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Regime)
	assert.Equal(t, models.RegimeTrend, res.Regime.Type)
	require.NotNil(t, res.Factors)
	assert.Equal(t, 260, res.Candles)
}

func TestRegimeAndFactorsEndpoints(t *testing.T) {
	e := newTestEcho(analysisHandler(testutil.Flat(40, 10, 100)))

	rec, env := doGet(t, e, "/api/regime?symbol=EURUSD")
	require.Equal(t, http.StatusOK, rec.Code)
	var r models.Regime
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, models.RegimeChaos, r.Type)
	assert.Nil(t, r.Metrics)

	rec, env = doGet(t, e, "/api/factors?symbol=EURUSD")
	require.Equal(t, http.StatusOK, rec.Code)
	var f usecase.FactorsView
	require.NoError(t, json.Unmarshal(env.Data, &f))
	assert.Equal(t, 0.25, f.Weights.Momentum)

	rec, _ = doGet(t, e, "/api/pulse?symbol=EURUSD&strategy=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func zenithHandler(scores *stubScores, limiter *ratelimit.Limiter) *ZenithHandler {
	log := logger.Nop()
	uc := usecase.NewZenithScoreUseCase(zenith.DefaultConfig(),
		stubHistory{candles: testutil.Geometric(300, 100, 0.001, 1000)},
		scores, nil, nil, metrics.Nop{}, log)
	return NewZenithHandler(log, uc, limiter)
}

func TestZenithGetServesStoredScore(t *testing.T) {
	scores := &stubScores{rec: &models.ScoreRecord{Symbol: "AAPL", CurrentScore: 64, LastCalculated: time.Now()}}
	e := newTestEcho(zenithHandler(scores, ratelimit.New(60, 5, time.Minute)))

	rec, env := doGet(t, e, "/api/zenith/aapl")
	require.Equal(t, http.StatusOK, rec.Code)
	var res zenithResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Cached)
	assert.Equal(t, 64.0, res.Score)
	assert.Equal(t, "Fair", res.Interpretation.Label)
	assert.Equal(t, "#F59E0B", res.Interpretation.Color)

	rec, _ = doGet(t, e, "/api/zenith/AAPL?asset=bond")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestZenithRecomputeIsRateLimited(t *testing.T) {
	scores := &stubScores{}
	e := newTestEcho(zenithHandler(scores, ratelimit.New(1, 1, time.Minute)))

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/zenith/msft/recompute?asset=stock", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		return rec
	}

	first := post()
	require.Equal(t, http.StatusOK, first.Code)
	require.NotNil(t, scores.rec)
	assert.Equal(t, "MSFT", scores.rec.Symbol)

	var env envelope
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &env))
	var res zenithResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Cached)
	assert.Equal(t, zenith.Interpret(res.Score), res.Interpretation)
	assert.NotEmpty(t, res.Interpretation.Label)

	second := post()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func replayServer(t *testing.T, candles []models.Candle) *httptest.Server {
	t.Helper()
	uc := usecase.NewReplayUseCase(stubHistory{candles: candles}, metrics.Nop{}, logger.Nop())
	srv := httptest.NewServer(newTestEcho(NewReplayHandler(logger.Nop(), uc)))
	t.Cleanup(srv.Close)
	return srv
}

func readFrame(t *testing.T, conn *websocket.Conn, typ string) replayFrame {
	t.Helper()
	for i := 0; i < 20; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var f replayFrame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == typ {
			return f
		}
	}
	t.Fatalf("no %s frame received", typ)
	return replayFrame{}
}

func TestReplayWebsocketCommands(t *testing.T) {
	srv := replayServer(t, testutil.Linear(10, 100, 1, 10))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/replay/ws?symbol=AAPL&range=1M"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn, "status")
	require.NotNil(t, first.Status)
	assert.Equal(t, 10, first.Status.Total)
	assert.False(t, first.Status.IsPlaying)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"seek","index":3}`)))
	tick := readFrame(t, conn, "tick")
	require.NotNil(t, tick.Tick)
	assert.Equal(t, 103.0, tick.Tick.Price)
	st := readFrame(t, conn, "status")
	assert.Equal(t, 3, st.Status.CurrentIndex)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"fly"}`)))
	bad := readFrame(t, conn, "error")
	assert.NotNil(t, bad.Errors)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"speed","speed":3}`)))
	bad = readFrame(t, conn, "error")
	assert.NotNil(t, bad.Errors)
}

func TestReplayWebsocketUnknownSymbol(t *testing.T) {
	srv := replayServer(t, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/replay/ws?symbol=NONE"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
