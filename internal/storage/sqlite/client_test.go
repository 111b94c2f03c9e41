package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func TestLoadMessagesEmptySession(t *testing.T) {
	client := newTestClient(t)

	msgs, err := client.LoadMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	transcript := []models.ChatMessage{
		{ID: "m1", Role: models.RoleUser, Content: "halo", Timestamp: time.Unix(1700000000, 0).UTC()},
		{ID: "m2", Role: models.RoleAssistant, Content: "hai!", Timestamp: time.Unix(1700000010, 0).UTC()},
		{ID: "m3", Role: models.RoleAssistant, Content: "gagal", Error: true, Timestamp: time.Unix(1700000020, 0).UTC()},
	}

	require.NoError(t, client.SaveMessages(ctx, "s1", transcript))

	loaded, err := client.LoadMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, transcript, loaded)

	// Saving a freshly loaded transcript leaves the stored state unchanged.
	require.NoError(t, client.SaveMessages(ctx, "s1", loaded))
	again, err := client.LoadMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, loaded, again)
}

func TestSaveMessagesReplacesTranscript(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := []models.ChatMessage{
		{ID: "m1", Role: models.RoleUser, Content: "satu", Timestamp: time.Unix(1700000000, 0).UTC()},
		{ID: "m2", Role: models.RoleAssistant, Content: "dua", Timestamp: time.Unix(1700000010, 0).UTC()},
	}
	require.NoError(t, client.SaveMessages(ctx, "s1", first))

	require.NoError(t, client.SaveMessages(ctx, "s1", []models.ChatMessage{}))

	loaded, err := client.LoadMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSessionsAreIsolated(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveMessages(ctx, "s1", []models.ChatMessage{
		{ID: "m1", Role: models.RoleUser, Content: "halo", Timestamp: time.Unix(1700000000, 0).UTC()},
	}))

	other, err := client.LoadMessages(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	settings, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	settings.API.Model = "gpt-4-turbo"
	settings.Features.Maintenance = true
	require.NoError(t, client.UpdateSettings(ctx, settings))

	loaded, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo", loaded.API.Model)
	assert.True(t, loaded.Features.Maintenance)
}

func TestCategoryStats(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.RecordCategoryQuery(ctx, "coding", 2*time.Second))
	require.NoError(t, client.RecordCategoryQuery(ctx, "coding", 4*time.Second))
	require.NoError(t, client.RecordCategoryQuery(ctx, "design", time.Second))
	require.NoError(t, client.UpdateCategorySatisfaction(ctx, "coding", 4.8))

	stats, err := client.GetCategoryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ordered by query count.
	assert.Equal(t, "coding", stats[0].Category)
	assert.Equal(t, 2, stats[0].TotalQueries)
	assert.InDelta(t, 3.0, stats[0].AvgResponseTime, 0.001)
	assert.Equal(t, 4.8, stats[0].Satisfaction)

	assert.Equal(t, "design", stats[1].Category)
	assert.Equal(t, 1, stats[1].TotalQueries)
}
