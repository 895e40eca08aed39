package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/pkg/breaker"
)

type pingResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestSendAndParseDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":189.5}`))
	}))
	defer srv.Close()

	c := NewClient()
	var out pingResponse
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"symbol": {"AAPL"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, pingResponse{Symbol: "AAPL", Price: 189.5}, out)
}

func TestSendRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetry(time.Millisecond, 2*time.Second))
	resp, err := c.SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithRetry(time.Millisecond, 2*time.Second))
	_, err := c.SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "nope", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendRequestStopsWhenBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := breaker.New("test", breaker.Config{ConsecutiveFailures: 2}, nil)
	c := NewClient(WithBreaker(b), WithRetry(time.Millisecond, 2*time.Second))
	_, err := c.SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})

	require.Error(t, err)
	assert.True(t, breaker.IsOpen(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSendRequestBodyIsResentOnRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body pingResponse
		require.NoError(t, decodeBody(r, &body))
		assert.Equal(t, "EURUSD", body.Symbol)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(WithRetry(time.Millisecond, 2*time.Second))
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   pingResponse{Symbol: "EURUSD"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(WithRateLimit(0.001, 1))
	resp, err := c.SendRequest(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.SendRequest(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL})
	assert.Error(t, err)
}

func decodeBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
