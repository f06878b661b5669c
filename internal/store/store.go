package store

import (
	"context"
	"time"
)

// Entry is the per-user rate-limit record. Timestamps are unix seconds;
// the JSON field names match the on-disk format of the file backend.
type Entry struct {
	Count        int64 `json:"count"`
	FirstRequest int64 `json:"first_request"`
	LastRequest  int64 `json:"last_request"`
}

// Store persists rate-limit entries keyed by Telegram user id.
//
// Increment must create a missing entry with count=1 and both timestamps
// set to now, or bump count and refresh last_request on an existing one,
// and return the resulting entry. Backends that can do this atomically
// (sqlite, postgres, redis, memory) close the read-modify-write race that
// the file backend tolerates across processes.
type Store interface {
	Increment(ctx context.Context, userID int64, now time.Time) (Entry, error)
	Get(ctx context.Context, userID int64) (Entry, bool, error)
	// Purge removes entries whose last_request is at or before cutoff and
	// reports how many were removed. Backends with native TTL expiry may
	// treat this as a no-op.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
