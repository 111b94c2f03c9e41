package chat

import (
	"context"
	"sync"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
)

// HistoryRepository is the multi-session persistence contract the manager
// adapts into per-session HistoryStores.
type HistoryRepository interface {
	LoadMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	SaveMessages(ctx context.Context, sessionID string, msgs []models.ChatMessage) error
}

// Manager hands out one Session per session id, mirroring the
// one-conversation-per-tab model of the web client.
type Manager struct {
	sender   Sender
	history  HistoryRepository
	recorder Recorder

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(sender Sender, history HistoryRepository, recorder Recorder) *Manager {
	return &Manager{
		sender:   sender,
		history:  history,
		recorder: recorder,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating and hydrating it on first use.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return session
	}

	m.mu.Lock()
	if session, ok = m.sessions[id]; ok {
		m.mu.Unlock()
		return session
	}

	session = NewSession(m.sender, &sessionHistory{repo: m.history, sessionID: id}, m.recorder)
	m.sessions[id] = session
	m.mu.Unlock()

	session.LoadHistory(ctx)
	return session
}

type sessionHistory struct {
	repo      HistoryRepository
	sessionID string
}

func (h *sessionHistory) Load(ctx context.Context) ([]models.ChatMessage, error) {
	return h.repo.LoadMessages(ctx, h.sessionID)
}

func (h *sessionHistory) Save(ctx context.Context, msgs []models.ChatMessage) error {
	return h.repo.SaveMessages(ctx, h.sessionID, msgs)
}
