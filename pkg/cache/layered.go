package cache

import (
	"context"
	"time"
)

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
// Locks always go to Redis so they hold across instances.
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache *RedisCache
	memTTL     time.Duration
}

// NewLayeredCache puts a memory cache of memSize entries in front of
// redisCache. Values promoted from Redis live at most memTTL in memory.
func NewLayeredCache(redisCache *RedisCache, memSize int, memTTL time.Duration) *LayeredCache {
	if memTTL <= 0 {
		memTTL = time.Minute
	}
	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(memSize)),
		redisCache: redisCache,
		memTTL:     memTTL,
	}
}

// Set writes Redis first; memory only sees values Redis accepted.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, lc.l1TTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.memCache.Get(ctx, key, dest) == nil {
		return nil
	}
	err := lc.redisCache.Get(ctx, key, dest)
	if err == nil {
		_ = lc.memCache.Set(ctx, key, dest, lc.memTTL)
	}
	return err
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.redisCache.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.redisCache.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.redisCache.Unlock(ctx, key)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.redisCache.Close()
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.memTTL {
		return expiration
	}
	return lc.memTTL
}
