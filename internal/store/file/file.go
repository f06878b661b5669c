// Package file implements the rate-limit store as a single JSON object
// on disk, mapping stringified user ids to entries. A missing or corrupt
// file is treated as an empty map, and a failed write is logged and
// swallowed so that durability problems never block a decision.
package file

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tikgrab/tikgrab/internal/store"
)

type Store struct {
	log  *slog.Logger
	path string
	mu   sync.Mutex
}

func New(log *slog.Logger, path string) *Store {
	return &Store{log: log, path: path}
}

func (s *Store) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limits := s.load()
	key := strconv.FormatInt(userID, 10)

	entry, ok := limits[key]
	if !ok {
		entry = store.Entry{Count: 1, FirstRequest: now.Unix(), LastRequest: now.Unix()}
	} else {
		entry.Count++
		entry.LastRequest = now.Unix()
	}
	limits[key] = entry

	s.save(limits)
	return entry, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.load()[strconv.FormatInt(userID, 10)]
	return entry, ok, nil
}

func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limits := s.load()
	var removed int64
	for key, entry := range limits {
		if entry.LastRequest <= cutoff.Unix() {
			delete(limits, key)
			removed++
		}
	}
	if removed > 0 {
		s.save(limits)
	}
	return removed, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) load() map[string]store.Entry {
	limits := make(map[string]store.Entry)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return limits
	}
	if err := json.Unmarshal(data, &limits); err != nil {
		s.log.Warn("rate limit file is corrupt, starting empty", "path", s.path, "error", err)
		return make(map[string]store.Entry)
	}
	return limits
}

func (s *Store) save(limits map[string]store.Entry) {
	data, err := json.MarshalIndent(limits, "", "  ")
	if err != nil {
		s.log.Error("marshaling rate limits", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Warn("writing rate limit file (ignoring)", "path", s.path, "error", err)
	}
}
