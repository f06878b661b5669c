// Package redis implements the rate-limit store on Redis hashes, one
// per user, with a TTL matching the hour window. Increments run in a
// pipeline, so concurrent requests are serialized by the server and the
// count can never be double-read. Expiry is handled by the TTL; Purge is
// a no-op.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tikgrab/tikgrab/internal/store"
)

const defaultTTL = time.Hour

type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

func New(ctx context.Context, redisURL string, opts ...Option) (*Store, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	rdb := redis.NewClient(parsed)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	s := &Store{rdb: rdb, prefix: "ratelimit:user", ttl: defaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) key(userID int64) string {
	return fmt.Sprintf("%s:%d", s.prefix, userID)
}

func (s *Store) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	key := s.key(userID)

	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, "first_request", now.Unix())
	count := pipe.HIncrBy(ctx, key, "count", 1)
	pipe.HSet(ctx, key, "last_request", now.Unix())
	pipe.Expire(ctx, key, s.ttl)
	first := pipe.HGet(ctx, key, "first_request")

	if _, err := pipe.Exec(ctx); err != nil {
		return store.Entry{}, fmt.Errorf("incrementing rate limit for user %d: %w", userID, err)
	}

	firstRequest, err := first.Int64()
	if err != nil {
		return store.Entry{}, fmt.Errorf("reading first_request for user %d: %w", userID, err)
	}

	return store.Entry{
		Count:        count.Val(),
		FirstRequest: firstRequest,
		LastRequest:  now.Unix(),
	}, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("reading rate limit for user %d: %w", userID, err)
	}
	if len(fields) == 0 {
		return store.Entry{}, false, nil
	}

	var entry store.Entry
	if _, err := fmt.Sscan(fields["count"], &entry.Count); err != nil {
		return store.Entry{}, false, fmt.Errorf("parsing count for user %d: %w", userID, err)
	}
	fmt.Sscan(fields["first_request"], &entry.FirstRequest)
	fmt.Sscan(fields["last_request"], &entry.LastRequest)
	return entry, true, nil
}

// Purge relies on per-key TTLs; Redis expires stale users on its own.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
