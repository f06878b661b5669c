package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tikgrab/tikgrab/internal/store"
	"github.com/tikgrab/tikgrab/internal/store/memory"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Increment(ctx context.Context, userID int64, now time.Time) (store.Entry, error) {
	ret := m.Called(ctx, userID, now)
	return ret.Get(0).(store.Entry), ret.Error(1)
}

func (m *MockStore) Get(ctx context.Context, userID int64) (store.Entry, bool, error) {
	ret := m.Called(ctx, userID)
	return ret.Get(0).(store.Entry), ret.Bool(1), ret.Error(2)
}

func (m *MockStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := m.Called(ctx, cutoff)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *MockStore) Close() error {
	ret := m.Called()
	return ret.Error(0)
}

func newTestLimiter(s store.Store) (*Limiter, *time.Time) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), s)
	clock := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestCheckAndRecordFirstMinute(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(memory.New())

	for i := range minuteLimit {
		require.True(t, l.CheckAndRecord(ctx, 1), "request %d should be allowed", i+1)
	}
	assert.False(t, l.CheckAndRecord(ctx, 1), "request beyond the first-minute limit should be denied")
}

func TestCheckAndRecordHourlyAfterFirstMinute(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(memory.New())

	for range 10 {
		require.True(t, l.CheckAndRecord(ctx, 1))
	}

	// Once the session is older than a minute the hourly threshold applies.
	*clock = clock.Add(2 * time.Minute)
	for i := 10; i < hourLimit; i++ {
		require.True(t, l.CheckAndRecord(ctx, 1), "request %d should be allowed", i+1)
	}
	assert.False(t, l.CheckAndRecord(ctx, 1), "request beyond the hourly limit should be denied")
}

func TestCheckAndRecordSessionKeyedNotSliding(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(memory.New())

	require.True(t, l.CheckAndRecord(ctx, 1))

	// 61 seconds after the *first* request the minute threshold is gone,
	// even though the previous request was only a second ago.
	*clock = clock.Add(61 * time.Second)
	for i := 1; i < hourLimit; i++ {
		require.True(t, l.CheckAndRecord(ctx, 1))
	}
	assert.False(t, l.CheckAndRecord(ctx, 1))
}

func TestCheckAndRecordPurgesStaleSessions(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	l, clock := newTestLimiter(st)

	for range minuteLimit + 1 {
		l.CheckAndRecord(ctx, 1)
	}
	assert.False(t, l.CheckAndRecord(ctx, 1))

	// An hour of silence retires the session; the user starts fresh.
	*clock = clock.Add(entryTTL + time.Second)
	assert.True(t, l.CheckAndRecord(ctx, 1))

	entry, ok, err := st.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.Count)
	assert.Equal(t, clock.Unix(), entry.FirstRequest)
}

func TestCheckAndRecordIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(memory.New())

	for range minuteLimit + 1 {
		l.CheckAndRecord(ctx, 1)
	}
	assert.False(t, l.CheckAndRecord(ctx, 1))
	assert.True(t, l.CheckAndRecord(ctx, 2), "other users should not be affected")
}

func TestCheckAndRecordFailsOpen(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockStore)
	l, _ := newTestLimiter(mockStore)

	mockStore.On("Purge", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk on fire"))
	mockStore.On("Increment", mock.Anything, int64(1), mock.Anything).
		Return(store.Entry{}, errors.New("disk on fire"))

	assert.True(t, l.CheckAndRecord(ctx, 1), "storage failure must not lock users out")
	mockStore.AssertExpectations(t)
}

func TestCheckAndRecordConcurrent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	l, _ := newTestLimiter(st)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckAndRecord(ctx, 1) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Atomic increments mean exactly the first-minute quota gets through.
	assert.Equal(t, minuteLimit, allowed)

	entry, ok, err := st.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(100), entry.Count)
}

func TestUsageInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user has full quota", func(t *testing.T) {
		l, _ := newTestLimiter(memory.New())
		used, remaining := l.UsageInfo(ctx, 1)
		assert.Equal(t, int64(0), used)
		assert.Equal(t, int64(hourLimit), remaining)
	})

	t.Run("reflects recorded requests without adding any", func(t *testing.T) {
		st := memory.New()
		l, _ := newTestLimiter(st)
		for range 3 {
			l.CheckAndRecord(ctx, 1)
		}

		used, remaining := l.UsageInfo(ctx, 1)
		assert.Equal(t, int64(3), used)
		assert.Equal(t, int64(hourLimit-3), remaining)

		used, _ = l.UsageInfo(ctx, 1)
		assert.Equal(t, int64(3), used, "UsageInfo must not record a request")
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		mockStore := new(MockStore)
		l, _ := newTestLimiter(mockStore)
		mockStore.On("Get", mock.Anything, int64(1)).
			Return(store.Entry{Count: hourLimit + 5}, true, nil)

		used, remaining := l.UsageInfo(ctx, 1)
		assert.Equal(t, int64(hourLimit+5), used)
		assert.Equal(t, int64(0), remaining)
	})

	t.Run("store error reports full quota", func(t *testing.T) {
		mockStore := new(MockStore)
		l, _ := newTestLimiter(mockStore)
		mockStore.On("Get", mock.Anything, int64(1)).
			Return(store.Entry{}, false, errors.New("disk on fire"))

		used, remaining := l.UsageInfo(ctx, 1)
		assert.Equal(t, int64(0), used)
		assert.Equal(t, int64(hourLimit), remaining)
	})
}
