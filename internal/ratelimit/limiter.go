// Package ratelimit gates inbound chat events per user. The policy is
// 15 requests inside the first minute of a session and 60 per hour after
// that, where "session" starts at the user's first recorded request.
// The thresholds are keyed off the session start on purpose; this is not
// a trailing sliding window.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/tikgrab/tikgrab/internal/store"
)

const (
	entryTTL     = time.Hour
	minuteWindow = 60 * time.Second
	minuteLimit  = 15
	hourLimit    = 60
)

type Limiter struct {
	log   *slog.Logger
	store store.Store
	now   func() time.Time
}

func New(log *slog.Logger, s store.Store) *Limiter {
	return &Limiter{log: log, store: s, now: time.Now}
}

// CheckAndRecord records one request for the user and reports whether it
// is allowed. Storage failures fail open: a broken limit store must
// never lock users out.
func (l *Limiter) CheckAndRecord(ctx context.Context, userID int64) bool {
	now := l.now()

	if _, err := l.store.Purge(ctx, now.Add(-entryTTL)); err != nil {
		l.log.Warn("purging stale rate-limit entries", "error", err)
	}

	entry, err := l.store.Increment(ctx, userID, now)
	if err != nil {
		l.log.Error("recording rate-limit request, allowing", "user_id", userID, "error", err)
		return true
	}

	threshold := int64(hourLimit)
	if now.Unix()-entry.FirstRequest <= int64(minuteWindow.Seconds()) {
		threshold = minuteLimit
	}
	return entry.Count <= threshold
}

// UsageInfo reports requests used and remaining out of the hourly limit.
// It never records a request and never gates anything.
func (l *Limiter) UsageInfo(ctx context.Context, userID int64) (used, remaining int64) {
	entry, ok, err := l.store.Get(ctx, userID)
	if err != nil {
		l.log.Warn("reading rate-limit usage", "user_id", userID, "error", err)
		return 0, hourLimit
	}
	if !ok {
		return 0, hourLimit
	}
	return entry.Count, max(0, hourLimit-entry.Count)
}
