package cache

import "time"

// RedisConfig is the yaml redis section.
type RedisConfig struct {
	Addr         string        `yaml:"addr" default:"localhost:6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size" default:"10"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
	Prefix       string        `yaml:"prefix" default:"zenith"`
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize bounds the entry count; the least recently read entry
// is evicted past it. Non-positive sizes keep the default.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(mc *MemoryCache) {
		if size > 0 {
			mc.maxSize = size
		}
	}
}

// WithMemoryCleanup sets how often expired entries are swept.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(mc *MemoryCache) {
		if interval > 0 {
			mc.sweepEvery = interval
		}
	}
}
