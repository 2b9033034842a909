// Package postgres opens sqlx connection pools backed by the pgx driver and
// applies schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type poolConfig struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
	pingTimeout     time.Duration
}

var defaultPoolConfig = poolConfig{
	connMaxIdleTime: 5 * time.Minute,
	connMaxLifetime: 30 * time.Minute,
	maxIdleConns:    5,
	maxOpenConns:    25,
	pingTimeout:     5 * time.Second,
}

// Option tunes the connection pool.
type Option func(*poolConfig)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(c *poolConfig) {
		c.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(c *poolConfig) {
		c.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(c *poolConfig) {
		c.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(c *poolConfig) {
		c.maxOpenConns = n
	}
}

// WithPingTimeout bounds the initial connectivity check.
func WithPingTimeout(d time.Duration) Option {
	return func(c *poolConfig) {
		c.pingTimeout = d
	}
}

// New opens a pool for dsn, applies opts and verifies the database is reachable.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	cfg := defaultPoolConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	db.SetConnMaxIdleTime(cfg.connMaxIdleTime)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetMaxOpenConns(cfg.maxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	return db, nil
}
