package clickhouse

import "time"

// ClientOption configures Client.
type ClientOption func(*Config)

// Config holds ClickHouse connection settings. It doubles as the yaml
// section of the service config.
type Config struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"zenith"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" default:"5m"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

// WithConfig replaces every setting with cfg. Zero pool sizes and timeouts
// keep the client defaults.
func WithConfig(cfg Config) ClientOption {
	return func(c *Config) {
		def := *c
		*c = cfg
		if c.MaxOpenConns <= 0 {
			c.MaxOpenConns = def.MaxOpenConns
		}
		if c.MaxIdleConns <= 0 {
			c.MaxIdleConns = def.MaxIdleConns
		}
		if c.ConnMaxLifetime <= 0 {
			c.ConnMaxLifetime = def.ConnMaxLifetime
		}
		if c.DialTimeout <= 0 {
			c.DialTimeout = def.DialTimeout
		}
		if c.ReadTimeout <= 0 {
			c.ReadTimeout = def.ReadTimeout
		}
		if c.Port == 0 {
			c.Port = def.Port
		}
	}
}

// WithDatabase sets database name.
func WithDatabase(database string) ClientOption {
	return func(c *Config) {
		c.Database = database
	}
}
