// Package postgres manages the sqlx connection pool for the score store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" default:"5m"`
	QueryTimeout    time.Duration `yaml:"query_timeout" default:"10s"`
	InitSchema      bool          `yaml:"init_schema" default:"true"`
}

// Client manages a PostgreSQL connection pool.
type Client struct {
	db *sqlx.DB
}

// NewClient opens the pool, pings it and optionally creates the schema.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	c := &Client{db: db}
	if cfg.InitSchema {
		if err := c.InitSchema(ctx, Schema); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return c, nil
}

// NewClientFromDB wraps an existing handle.
func NewClientFromDB(db *sqlx.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
