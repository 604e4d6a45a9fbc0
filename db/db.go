// Package db opens the Postgres connection pool and applies the schema.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

const (
	maxOpenConns    = 25
	connMaxLifetime = 5 * time.Minute
)

// Connect opens a pool and waits until the database answers. The database
// often starts alongside the server, so pings are retried until timeout.
func Connect(dsn string, timeout time.Duration, log *zap.SugaredLogger) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxOpenConns)
	pool.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	attempt := 0
	ping := func() error {
		attempt++
		return pool.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warnw("Database not ready", "attempt", attempt, "retry_in", wait, "error", err)
	}
	interval := backoff.NewExponentialBackOff()
	interval.MaxInterval = time.Second
	policy := backoff.WithContext(interval, ctx)
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		if closeErr := pool.Close(); closeErr != nil {
			log.Warnw("Failed to close database handle after ping error", "error", closeErr)
		}
		return nil, fmt.Errorf("database did not answer within %v: %w", timeout, err)
	}
	log.Infow("Database connection established", "attempts", attempt)
	return pool, nil
}

// Migrate creates the tables the store needs. Every statement is idempotent.
func Migrate(ctx context.Context, pool *sql.DB) error {
	if _, err := pool.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
