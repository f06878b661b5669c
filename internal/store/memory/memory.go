// Package memory implements the rate-limit store as a mutex-guarded map.
// Increments are atomic, so two simultaneous requests from the same user
// can never both observe the pre-increment count. State does not survive
// a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tikgrab/tikgrab/internal/store"
)

type Store struct {
	mu      sync.Mutex
	entries map[int64]store.Entry
}

func New() *Store {
	return &Store{entries: make(map[int64]store.Entry)}
}

func (s *Store) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		entry = store.Entry{Count: 1, FirstRequest: now.Unix(), LastRequest: now.Unix()}
	} else {
		entry.Count++
		entry.LastRequest = now.Unix()
	}
	s.entries[userID] = entry
	return entry, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	return entry, ok, nil
}

func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, entry := range s.entries {
		if entry.LastRequest <= cutoff.Unix() {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Close() error { return nil }
