package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Unix(1_700_000_000, 0)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheRoundTripsTypedValues(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	in := []quote{{"AAPL", 189.5}, {"MSFT", 402.1}}
	require.NoError(t, mc.Set(ctx, "q", in, time.Minute))

	var out []quote
	require.NoError(t, mc.Get(ctx, "q", &out))
	assert.Equal(t, in, out)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	*now = now.Add(61 * time.Second)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	*now = now.Add(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t)

	ok, err := mc.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "lock:AAPL", time.Minute)
	assert.False(t, ok)

	*now = now.Add(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "lock:AAPL", time.Minute)
	assert.True(t, ok, "expired lock can be retaken")

	require.NoError(t, mc.Unlock(ctx, "lock:AAPL"))
	ok, _ = mc.TryLock(ctx, "lock:AAPL", time.Minute)
	assert.True(t, ok)
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, "zenith")

	in := quote{"AAPL", 189.5}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	mock.ExpectSet("zenith:q:AAPL", data, 10*time.Minute).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "q:AAPL", in, 10*time.Minute))

	mock.ExpectGet("zenith:q:AAPL").SetVal(string(data))
	var out quote
	require.NoError(t, rc.Get(ctx, "q:AAPL", &out))
	assert.Equal(t, in, out)

	mock.ExpectGet("zenith:q:MSFT").RedisNil()
	assert.ErrorIs(t, rc.Get(ctx, "q:MSFT", &out), ErrCacheMiss)

	boom := errors.New("conn reset")
	mock.ExpectGet("zenith:q:IBM").SetErr(boom)
	assert.ErrorIs(t, rc.Get(ctx, "q:IBM", &out), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheLock(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, "zenith")
	rc.newToken = func() string { return "tok-1" }

	mock.ExpectSetNX("zenith:lock:AAPL", "tok-1", time.Minute).SetVal(true)
	mock.ExpectSetNX("zenith:lock:AAPL", "tok-1", time.Minute).SetVal(false)
	mock.ExpectEvalSha(unlockScript.Hash(), []string{"zenith:lock:AAPL"}, "tok-1").SetVal(int64(1))

	ok, err := rc.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = rc.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, rc.Unlock(ctx, "lock:AAPL"))

	// Nothing to release: no command is sent.
	require.NoError(t, rc.Unlock(ctx, "lock:MSFT"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCachePromotesRedisHits(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCacheFromClient(db, "zenith"), 10, time.Minute)
	t.Cleanup(func() { _ = lc.memCache.Close() })

	data, err := json.Marshal(quote{"EURUSD", 1.08})
	require.NoError(t, err)
	mock.ExpectGet("zenith:fx").SetVal(string(data))

	var first, second quote
	require.NoError(t, lc.Get(ctx, "fx", &first))
	require.NoError(t, lc.Get(ctx, "fx", &second), "second read is served from memory")
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "history", Key("history"))
	assert.Equal(t, "history:AAPL:STOCK:1Y", Key("history", "aapl", "stock", "1Y"))
}

func TestRedisOptionsFillGaps(t *testing.T) {
	o := RedisConfig{DB: 2, Prefix: "x"}.options()
	assert.Equal(t, "localhost:6379", o.Addr)
	assert.Equal(t, 10, o.PoolSize)
	assert.Equal(t, 2, o.DB)
}
