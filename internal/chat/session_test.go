package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roblox-ai-studio/backend/internal/storage/kv"
	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/internal/tracking"
)

type fakeSender struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, message string, prior []models.ChatMessage, category string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}

	return f.reply, f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	mu      sync.Mutex
	loaded  []models.ChatMessage
	saved   [][]models.ChatMessage
	loadErr error
	saveErr error
}

func (f *fakeHistory) Load(ctx context.Context) ([]models.ChatMessage, error) {
	return f.loaded, f.loadErr
}

func (f *fakeHistory) Save(ctx context.Context, msgs []models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	snapshot := make([]models.ChatMessage, len(msgs))
	copy(snapshot, msgs)
	f.saved = append(f.saved, snapshot)
	return nil
}

func (f *fakeHistory) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeRecorder struct {
	mu       sync.Mutex
	chats    int
	snippets int
}

func (f *fakeRecorder) RecordChatMessage(userID, text, category string) {
	f.mu.Lock()
	f.chats++
	f.mu.Unlock()
}

func (f *fakeRecorder) RecordCodeGeneration(userID string) {
	f.mu.Lock()
	f.snippets++
	f.mu.Unlock()
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	session := NewSession(&fakeSender{}, &fakeHistory{}, &fakeRecorder{})

	_, err := session.Send(context.Background(), "u1", "   \n\t")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, session.Messages())
}

func TestSendSuccessWithCodeReply(t *testing.T) {
	// Full path with the real tracker: one chat, one code snippet.
	tracker := tracking.New(kv.NewMemoryStore(), tracking.Config{SeedRating: 4.9})
	require.NoError(t, tracker.Initialize())

	sender := &fakeSender{reply: "```lua\nfunction x() end\n```"}
	history := &fakeHistory{}
	session := NewSession(sender, history, tracker)
	session.SetCategory("coding")

	reply, err := session.Send(context.Background(), "u1", "Buat fungsi sederhana")
	require.NoError(t, err)

	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "Buat fungsi sederhana", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "```lua\nfunction x() end\n```", msgs[1].Content)
	assert.False(t, reply.Error)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.TotalChats)
	assert.Equal(t, 1, stats.CodeSnippets)

	// Both new messages were persisted in a single save.
	require.Equal(t, 1, history.saveCount())
	assert.Len(t, history.saved[0], 2)
}

func TestSendFailureAppendsErrorMessage(t *testing.T) {
	sender := &fakeSender{err: errors.New("Network error")}
	history := &fakeHistory{}
	recorder := &fakeRecorder{}
	session := NewSession(sender, history, recorder)

	reply, err := session.Send(context.Background(), "u1", "halo")
	require.Error(t, err)

	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].Error)
	assert.Contains(t, msgs[1].Content, "Network error")
	assert.True(t, reply.Error)

	// Error transcripts are ephemeral.
	assert.Equal(t, 0, history.saveCount())
	assert.Equal(t, 0, recorder.snippets)
}

func TestSendWhileInFlightIsRejected(t *testing.T) {
	sender := &fakeSender{
		reply:   "ok",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	session := NewSession(sender, &fakeHistory{}, &fakeRecorder{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := session.Send(context.Background(), "u1", "first")
		assert.NoError(t, err)
	}()

	<-sender.started

	_, err := session.Send(context.Background(), "u1", "second")
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.Len(t, session.Messages(), 1)
	assert.Equal(t, 1, sender.callCount())

	close(sender.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first send did not complete")
	}

	assert.Len(t, session.Messages(), 2)
}

func TestClearPersistsEmptyTranscript(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	history := &fakeHistory{}
	session := NewSession(sender, history, &fakeRecorder{})

	for i := 0; i < 3; i++ {
		_, err := session.Send(context.Background(), "u1", "pesan")
		require.NoError(t, err)
	}
	require.Len(t, session.Messages(), 6)

	require.NoError(t, session.Clear(context.Background()))

	assert.Empty(t, session.Messages())
	last := history.saved[len(history.saved)-1]
	assert.Empty(t, last)
}

func TestLoadHistoryPopulatesTranscript(t *testing.T) {
	history := &fakeHistory{
		loaded: []models.ChatMessage{
			{Role: models.RoleUser, Content: "halo"},
			{Role: models.RoleAssistant, Content: "hai"},
		},
	}
	session := NewSession(&fakeSender{}, history, &fakeRecorder{})

	session.LoadHistory(context.Background())

	assert.Len(t, session.Messages(), 2)
}

func TestLoadHistoryFailureLeavesTranscriptEmpty(t *testing.T) {
	history := &fakeHistory{loadErr: errors.New("backend down")}
	session := NewSession(&fakeSender{}, history, &fakeRecorder{})

	session.LoadHistory(context.Background())

	assert.Empty(t, session.Messages())
}

func TestSetCategoryDefaultsWhenEmpty(t *testing.T) {
	session := NewSession(&fakeSender{}, &fakeHistory{}, &fakeRecorder{})

	assert.Equal(t, DefaultCategory, session.Category())

	session.SetCategory("coding")
	assert.Equal(t, "coding", session.Category())

	session.SetCategory("")
	assert.Equal(t, DefaultCategory, session.Category())
}
