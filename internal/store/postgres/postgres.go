// Package postgres implements the rate-limit store on PostgreSQL via
// pgx, for deployments where several bot instances share one limit map.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tikgrab/tikgrab/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rate_limits (
    user_id BIGINT PRIMARY KEY,
    count BIGINT NOT NULL DEFAULT 1,
    first_request BIGINT NOT NULL,
    last_request BIGINT NOT NULL
)`

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	var entry store.Entry
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rate_limits (user_id, count, first_request, last_request)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			count = rate_limits.count + 1,
			last_request = EXCLUDED.last_request
		RETURNING count, first_request, last_request
	`, userID, now.Unix()).Scan(&entry.Count, &entry.FirstRequest, &entry.LastRequest)
	if err != nil {
		return store.Entry{}, fmt.Errorf("incrementing rate limit for user %d: %w", userID, err)
	}
	return entry, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	var entry store.Entry
	err := s.pool.QueryRow(ctx, `
		SELECT count, first_request, last_request FROM rate_limits WHERE user_id = $1
	`, userID).Scan(&entry.Count, &entry.FirstRequest, &entry.LastRequest)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Entry{}, false, nil
	}
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("reading rate limit for user %d: %w", userID, err)
	}
	return entry, true, nil
}

func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM rate_limits WHERE last_request <= $1
	`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging rate limits: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
