// Package sqlite implements the rate-limit store on an embedded SQLite
// database. The upsert runs as a single statement, so increments are
// atomic even across processes sharing the database file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tikgrab/tikgrab/internal/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, dbPath string) (*Store, error) {
	dbPath = strings.TrimPrefix(dbPath, "sqlite://")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}

	// WAL keeps concurrent readers from blocking the writer.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	var entry store.Entry
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rate_limits (user_id, count, first_request, last_request)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			count = count + 1,
			last_request = excluded.last_request
		RETURNING count, first_request, last_request
	`, userID, now.Unix(), now.Unix()).Scan(&entry.Count, &entry.FirstRequest, &entry.LastRequest)
	if err != nil {
		return store.Entry{}, fmt.Errorf("incrementing rate limit for user %d: %w", userID, err)
	}
	return entry, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	var entry store.Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT count, first_request, last_request FROM rate_limits WHERE user_id = ?
	`, userID).Scan(&entry.Count, &entry.FirstRequest, &entry.LastRequest)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entry{}, false, nil
	}
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("reading rate limit for user %d: %w", userID, err)
	}
	return entry, true, nil
}

func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM rate_limits WHERE last_request <= ?
	`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging rate limits: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
