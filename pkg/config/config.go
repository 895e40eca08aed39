package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/service/history"
	"ZenithCore/internal/services/zenith"
	"ZenithCore/pkg/breaker"
	"ZenithCore/pkg/cache"
	"ZenithCore/pkg/clickhouse"
	"ZenithCore/pkg/kafka"
	"ZenithCore/pkg/logger"
	"ZenithCore/pkg/postgres"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log      logger.Config `yaml:"log"`
	Analysis struct {
		Timeout time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"analysis"`
	Zenith struct {
		Score       models.ZenithScoreConfig `yaml:"score"`
		FreshFor    time.Duration            `yaml:"fresh_for" default:"24h"`
		LockTTL     time.Duration            `yaml:"lock_ttl" default:"2m"`
		MinInterval time.Duration            `yaml:"min_interval" default:"1m"`
		BufferSize  int                      `yaml:"buffer_size" default:"256"`
	} `yaml:"zenith"`
	Replay struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"replay"`
	History struct {
		history.Config `yaml:",inline"`
		Breaker        breaker.Config `yaml:"breaker"`
	} `yaml:"history"`
	Redis cache.RedisConfig `yaml:"redis"`
	Cache struct {
		Enabled    bool          `yaml:"enabled" default:"true"`
		MemorySize int           `yaml:"memory_size" default:"1000"`
		MemoryTTL  time.Duration `yaml:"memory_ttl" default:"1m"`
	} `yaml:"cache"`
	Postgres   postgres.Config   `yaml:"postgres"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
	Kafka      kafka.Config      `yaml:"kafka"`
	RateLimit  struct {
		PerMinute float64       `yaml:"per_minute" default:"6"`
		Burst     int           `yaml:"burst" default:"2"`
		IdleTTL   time.Duration `yaml:"idle_ttl" default:"10m"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file. Missing keys take their
// default tag values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env if present, then the YAML file, then applies
// environment overrides before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillZenith()
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.History.APIKey = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// fillZenith applies calculator defaults. Weights are taken as a set: a
// section without any weight gets the production split.
func (c *Config) fillZenith() {
	s := &c.Zenith.Score
	d := zenith.DefaultConfig()
	if s.Weights.Sum() == 0 {
		s.Weights = d.Weights
	}
	if s.MinDataPoints == 0 {
		s.MinDataPoints = d.MinDataPoints
	}
	if s.VolatilityPenalty == 0 {
		s.VolatilityPenalty = d.VolatilityPenalty
	}
	if s.ConsistencyBonus == 0 {
		s.ConsistencyBonus = d.ConsistencyBonus
	}
	if s.RecoveryMultiplier == 0 {
		s.RecoveryMultiplier = d.RecoveryMultiplier
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topics.Recompute == "" || c.Kafka.Topics.Signals == "" || c.Kafka.Topics.Scores == "" {
			return fmt.Errorf("kafka.topics must name recompute, signals and scores")
		}
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when cache is enabled")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("ratelimit.per_minute must be positive")
	}
	if err := zenith.Validate(c.Zenith.Score); err != nil {
		return fmt.Errorf("zenith.score: %w", err)
	}
	return nil
}
