package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roblox-ai-studio/backend/internal/storage/kv"
)

func newTestTracker(t *testing.T) (*Tracker, *kv.MemoryStore, *fakeClock) {
	t.Helper()

	store := kv.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	tracker := New(store, Config{
		RetentionWindow: 5 * time.Minute,
		SeedRating:      4.9,
		Now:             clock.Now,
	})
	require.NoError(t, tracker.Initialize())

	return tracker, store, clock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestInitializeSeedsOnce(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	stats := tracker.Stats()
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0, stats.TotalChats)
	assert.Equal(t, 4.9, stats.UserRating)

	// Re-initializing after activity must not wipe counters.
	tracker.RecordChatMessage("u1", "hello", "general")
	require.NoError(t, tracker.Initialize())
	assert.Equal(t, 1, tracker.Stats().TotalChats)
}

func TestRecordRegistration(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	tracker.RecordRegistration("u1")
	tracker.RecordRegistration("u2")

	stats := tracker.Stats()
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)
}

func TestRecordLoginRetention(t *testing.T) {
	tracker, _, clock := newTestTracker(t)

	tracker.RecordLogin("u1")

	// Re-login just inside the window keeps a single entry.
	clock.Advance(5*time.Minute - time.Second)
	count := tracker.RecordLogin("u1")
	assert.Equal(t, 1, count)

	// Past the window with no further activity the user is excluded.
	clock.Advance(5*time.Minute + time.Second)
	count = tracker.RecordLogin("u2")
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, tracker.Stats().ActiveUsers)
}

func TestRecordLogout(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	tracker.RecordLogin("u1")
	tracker.RecordLogin("u2")
	tracker.RecordLogout("u1")

	assert.Equal(t, 1, tracker.Stats().ActiveUsers)
}

func TestRecordChatMessage(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantSnippets int
	}{
		{"prose", "bagaimana cara membuat game?", 0},
		{"code", "```lua\nprint(1)\n```", 1},
		{"inline_code", "pakai `wait(1)` saja", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _, _ := newTestTracker(t)

			tracker.RecordChatMessage("u1", tt.text, "coding")

			stats := tracker.Stats()
			assert.Equal(t, 1, stats.TotalChats)
			assert.Equal(t, tt.wantSnippets, stats.CodeSnippets)
		})
	}
}

func TestRecordRatingAverage(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	tracker.RecordRating("u1", 5)
	avg := tracker.RecordRating("u2", 4)

	assert.Equal(t, 4.5, avg)
	assert.Equal(t, 4.5, tracker.Stats().UserRating)

	// 5, 4, 4 -> 4.333... rounds to one decimal place.
	avg = tracker.RecordRating("u3", 4)
	assert.Equal(t, 4.3, avg)
}

func TestDetailedAnalytics(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	for i := 0; i < 12; i++ {
		tracker.RecordChatMessage("u1", "pesan", "general")
	}
	tracker.RecordRegistration("u1")
	tracker.RecordRating("u1", 5)
	tracker.RecordRating("u2", 3.6)

	detailed := tracker.DetailedAnalytics()

	assert.Equal(t, 12, detailed.Overview.TotalChats)
	assert.Len(t, detailed.RecentChats, 10)
	assert.Len(t, detailed.RecentUsers, 1)
	assert.Equal(t, 1, detailed.RatingDistribution[5])
	assert.Equal(t, 1, detailed.RatingDistribution[4])
	assert.Equal(t, 0, detailed.RatingDistribution[3])
}

func TestReset(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	tracker.RecordRegistration("u1")
	tracker.RecordChatMessage("u1", "halo", "general")

	require.NoError(t, tracker.Reset())

	stats := tracker.Stats()
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0, stats.TotalChats)
	assert.Equal(t, 4.9, stats.UserRating)
}

func TestMalformedDataFailsClosed(t *testing.T) {
	tracker, store, _ := newTestTracker(t)

	require.NoError(t, store.Set("tracking:stats", []byte("{not json")))

	stats := tracker.Stats()
	assert.Equal(t, 0, stats.TotalChats)

	// Counting still works on top of the recovered defaults.
	tracker.RecordChatMessage("u1", "halo", "general")
	assert.Equal(t, 1, tracker.Stats().TotalChats)
}

func TestStoreFailuresAreSwallowed(t *testing.T) {
	store := &failingStore{}
	tracker := New(store, Config{SeedRating: 4.9})

	// None of these may panic or surface an error to the caller.
	tracker.RecordLogin("u1")
	tracker.RecordChatMessage("u1", "halo", "general")
	tracker.RecordRating("u1", 5)
	tracker.RecordLogout("u1")
	_ = tracker.Stats()
}

type failingStore struct{}

func (s *failingStore) Get(key string) ([]byte, error) { return nil, errors.New("disk gone") }

func (s *failingStore) Set(key string, value []byte) error { return errors.New("disk gone") }

func (s *failingStore) Remove(key string) error { return errors.New("disk gone") }

func (s *failingStore) Close() error { return nil }
