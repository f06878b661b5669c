package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tikgrab/tikgrab/internal/tiktok"
)

// Callback payloads look like "tt_dl:<kind>:<base64(url)>" and must
// round-trip the URL byte-for-byte. Telegram caps callback data at 64
// bytes, so URLs that would overflow are parked server-side under a
// short token instead: "tt_dl:<kind>:#<id>".
const (
	payloadPrefix    = "tt_dl"
	maxCallbackBytes = 64
	refMarker        = "#"
	registryTTL      = time.Hour
)

var (
	ErrMalformedPayload = errors.New("malformed callback payload")
	ErrMenuExpired      = errors.New("callback reference expired")
)

type registryEntry struct {
	url      string
	storedAt time.Time
}

// payloadRegistry holds URLs too long to ride inline in callback data.
// Entries expire with the menu they belong to.
type payloadRegistry struct {
	mu   sync.Mutex
	urls map[string]registryEntry
}

func newPayloadRegistry() *payloadRegistry {
	return &payloadRegistry{urls: make(map[string]registryEntry)}
}

func (r *payloadRegistry) encode(kind tiktok.MediaKind, url string) string {
	inline := payloadPrefix + ":" + string(kind) + ":" + base64.StdEncoding.EncodeToString([]byte(url))
	if len(inline) <= maxCallbackBytes {
		return inline
	}
	return payloadPrefix + ":" + string(kind) + ":" + refMarker + r.put(url)
}

func (r *payloadRegistry) decode(data string) (tiktok.MediaKind, string, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != payloadPrefix {
		return "", "", ErrMalformedPayload
	}

	kind, err := tiktok.ParseMediaKind(parts[1])
	if err != nil {
		return "", "", ErrMalformedPayload
	}

	if ref, ok := strings.CutPrefix(parts[2], refMarker); ok {
		url, found := r.get(ref)
		if !found {
			return "", "", ErrMenuExpired
		}
		return kind, url, nil
	}

	raw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", ErrMalformedPayload
	}
	return kind, string(raw), nil
}

func (r *payloadRegistry) put(url string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]

	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[id] = registryEntry{url: url, storedAt: time.Now()}
	return id
}

func (r *payloadRegistry) get(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.urls[id]
	if !ok || time.Since(entry.storedAt) > registryTTL {
		return "", false
	}
	return entry.url, true
}

func (r *payloadRegistry) sweep() {
	cutoff := time.Now().Add(-registryTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.urls {
		if entry.storedAt.Before(cutoff) {
			delete(r.urls, id)
		}
	}
}

// startJanitor sweeps expired registry entries until the context ends.
func (r *payloadRegistry) startJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.sweep()
			}
		}
	}()
}
