// Package tracking maintains the site usage counters behind the homepage
// stats and the admin dashboard. Everything here is best-effort: a storage
// failure is logged and swallowed, never surfaced to the chat flow.
package tracking

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/codedetect"
	"github.com/roblox-ai-studio/backend/internal/metrics"
	"github.com/roblox-ai-studio/backend/internal/storage/kv"
	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

const (
	keyStats         = "tracking:stats"
	keyOnline        = "tracking:online"
	keyUsers         = "tracking:users"
	keySessions      = "tracking:sessions"
	keyRatings       = "tracking:ratings"
	keySchemaVersion = "tracking:schema_version"

	schemaVersion = "1"

	// Dashboard views only ever show the most recent entries, so the
	// stored session list is capped instead of growing without bound.
	maxStoredSessions = 500
)

type Config struct {
	RetentionWindow time.Duration
	SeedRating      float64
	Now             func() time.Time
}

type Tracker struct {
	store kv.Store
	cfg   Config
	mu    sync.Mutex
}

func New(store kv.Store, cfg Config) *Tracker {
	if cfg.RetentionWindow == 0 {
		cfg.RetentionWindow = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tracker{store: store, cfg: cfg}
}

// Initialize seeds the counter set once. Gated by a stored schema-version
// marker, so calling it on every boot is safe.
func (t *Tracker) Initialize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.store.Get(keySchemaVersion)
	if err == nil && string(existing) == schemaVersion {
		return nil
	}
	if err != nil && err != kv.ErrKeyNotFound {
		return err
	}

	t.writeStats(models.TrackingStats{
		UserRating:  t.cfg.SeedRating,
		LastUpdated: t.cfg.Now().UTC(),
	})

	if err := t.store.Set(keySchemaVersion, []byte(schemaVersion)); err != nil {
		return err
	}

	logger.Info("Tracking store initialized", zap.String("schema_version", schemaVersion))
	return nil
}

// RecordRegistration counts a new user and marks them active. The active
// count stays derived from the online map; it is never forced to the
// registration total.
func (t *Tracker) RecordRegistration(userID string) {
	t.mu.Lock()

	users := t.readUsers()
	users = append(users, models.RegisteredUser{
		ID:           userID,
		RegisteredAt: t.cfg.Now().UTC(),
	})
	t.writeJSON(keyUsers, users)

	stats := t.readStats()
	stats.TotalUsers = len(users)
	t.writeStats(stats)

	t.mu.Unlock()

	t.RecordLogin(userID)

	logger.Info("User registered",
		zap.String("user_id", userID),
		zap.Int("total_users", len(users)),
	)
}

// RecordLogin upserts the user into the online map, prunes stale entries
// and recomputes the active-user counter. Returns the count after pruning.
func (t *Tracker) RecordLogin(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.cfg.Now()
	online := t.readOnline()
	online[userID] = now.UnixMilli()

	count := t.pruneAndStoreOnline(online, now)
	return count
}

// RecordLogout drops the user from the online map immediately.
func (t *Tracker) RecordLogout(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	online := t.readOnline()
	delete(online, userID)
	t.pruneAndStoreOnline(online, t.cfg.Now())
}

// RecordChatMessage counts one chat and, when the text looks like code,
// one code snippet. Exactly one snippet increment per call.
func (t *Tracker) RecordChatMessage(userID, text, category string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := t.readSessions()
	sessions = append(sessions, models.ChatSessionRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   text,
		Category:  category,
		Timestamp: t.cfg.Now().UTC(),
	})
	if len(sessions) > maxStoredSessions {
		sessions = sessions[len(sessions)-maxStoredSessions:]
	}
	t.writeJSON(keySessions, sessions)

	stats := t.readStats()
	stats.TotalChats++
	if codedetect.Detect(text) {
		stats.CodeSnippets++
	}
	t.writeStats(stats)

	logger.Debug("Chat tracked",
		zap.String("user_id", userID),
		zap.String("category", category),
		zap.Int("total_chats", stats.TotalChats),
	)
}

// RecordCodeGeneration counts one generated code snippet. Called once per
// fenced block found in an assistant reply.
func (t *Tracker) RecordCodeGeneration(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.readStats()
	stats.CodeSnippets++
	t.writeStats(stats)

	logger.Debug("Code snippet tracked",
		zap.String("user_id", userID),
		zap.Int("code_snippets", stats.CodeSnippets),
	)
}

// RecordRating appends the rating and recomputes the running average,
// rounded to one decimal place. Returns the new average.
func (t *Tracker) RecordRating(userID string, rating float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	ratings := t.readRatings()
	ratings = append(ratings, models.RatingRecord{
		UserID:    userID,
		Rating:    rating,
		Timestamp: t.cfg.Now().UTC(),
	})
	t.writeJSON(keyRatings, ratings)

	var total float64
	for _, r := range ratings {
		total += r.Rating
	}
	avg := math.Round(total/float64(len(ratings))*10) / 10

	stats := t.readStats()
	stats.UserRating = avg
	t.writeStats(stats)

	logger.Info("Rating tracked",
		zap.Float64("rating", rating),
		zap.Float64("average", avg),
	)

	return avg
}

// Stats returns a snapshot of the counter set without touching the online
// map.
func (t *Tracker) Stats() models.TrackingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readStats()
}

// StatsFor refreshes the caller's activity before snapshotting, so the
// homepage poll keeps its own session alive and the active count pruned.
func (t *Tracker) StatsFor(userID string) models.TrackingStats {
	if userID != "" {
		t.RecordLogin(userID)
	}
	return t.Stats()
}

// DetailedAnalytics assembles the admin dashboard payload.
func (t *Tracker) DetailedAnalytics() models.DetailedAnalytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.readStats()
	online := t.readOnline()
	stats.ActiveUsers = len(online)

	return models.DetailedAnalytics{
		Overview:           stats,
		AvgResponseTime:    1.2,
		RecentUsers:        lastReversed(t.readUsers(), 10),
		RecentChats:        lastReversed(t.readSessions(), 10),
		RatingDistribution: ratingDistribution(t.readRatings()),
	}
}

// Reset drops every tracking key and re-seeds the store.
func (t *Tracker) Reset() error {
	t.mu.Lock()

	for _, key := range []string{keyStats, keyOnline, keyUsers, keySessions, keyRatings, keySchemaVersion} {
		if err := t.store.Remove(key); err != nil {
			t.mu.Unlock()
			return err
		}
	}

	t.mu.Unlock()

	logger.Info("Tracking data reset")
	return t.Initialize()
}

func (t *Tracker) pruneAndStoreOnline(online map[string]int64, now time.Time) int {
	cutoff := now.Add(-t.cfg.RetentionWindow).UnixMilli()
	for id, lastActive := range online {
		if lastActive <= cutoff {
			delete(online, id)
		}
	}

	t.writeJSON(keyOnline, online)

	stats := t.readStats()
	stats.ActiveUsers = len(online)
	t.writeStats(stats)

	return len(online)
}

func (t *Tracker) readStats() models.TrackingStats {
	var stats models.TrackingStats
	t.readJSON(keyStats, &stats)
	return stats
}

func (t *Tracker) writeStats(stats models.TrackingStats) {
	stats.LastUpdated = t.cfg.Now().UTC()
	t.writeJSON(keyStats, stats)

	metrics.ActiveUsers.Set(float64(stats.ActiveUsers))
	metrics.UserRating.Set(stats.UserRating)
}

func (t *Tracker) readOnline() map[string]int64 {
	online := map[string]int64{}
	t.readJSON(keyOnline, &online)
	if online == nil {
		online = map[string]int64{}
	}
	return online
}

func (t *Tracker) readUsers() []models.RegisteredUser {
	users := []models.RegisteredUser{}
	t.readJSON(keyUsers, &users)
	return users
}

func (t *Tracker) readSessions() []models.ChatSessionRecord {
	sessions := []models.ChatSessionRecord{}
	t.readJSON(keySessions, &sessions)
	return sessions
}

func (t *Tracker) readRatings() []models.RatingRecord {
	ratings := []models.RatingRecord{}
	t.readJSON(keyRatings, &ratings)
	return ratings
}

// readJSON decodes the stored value into out. A missing key, a storage
// failure or malformed JSON all leave out at its zero state: tracking
// fails closed to defaults.
func (t *Tracker) readJSON(key string, out interface{}) {
	data, err := t.store.Get(key)
	if err == kv.ErrKeyNotFound {
		return
	}
	if err != nil {
		logger.Warn("Tracking read failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("Tracking data malformed, using defaults",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (t *Tracker) writeJSON(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Tracking encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := t.store.Set(key, data); err != nil {
		logger.Warn("Tracking write failed", zap.String("key", key), zap.Error(err))
	}
}

func lastReversed[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[len(items)-n:]
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

func ratingDistribution(ratings []models.RatingRecord) map[int]int {
	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range ratings {
		rounded := int(math.Round(r.Rating))
		if rounded >= 1 && rounded <= 5 {
			distribution[rounded]++
		}
	}
	return distribution
}
