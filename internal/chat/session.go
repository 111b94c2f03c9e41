// Package chat drives the per-session conversation flow: optimistic
// transcript appends, the outbound language-model call, tracking hooks and
// transcript persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/codedetect"
	"github.com/roblox-ai-studio/backend/internal/metrics"
	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendInFlight = errors.New("a send is already in flight")
)

// Sender is the language-model collaborator. Errors must carry a
// human-readable message; network, auth and rate-limit failures are not
// distinguished at this layer.
type Sender interface {
	Send(ctx context.Context, message string, prior []models.ChatMessage, category string) (string, error)
}

// HistoryStore persists the full transcript after successful exchanges.
type HistoryStore interface {
	Load(ctx context.Context) ([]models.ChatMessage, error)
	Save(ctx context.Context, msgs []models.ChatMessage) error
}

// Recorder is the tracking port. Calls are best-effort and must never fail
// the chat flow; implementations swallow their own errors.
type Recorder interface {
	RecordChatMessage(userID, text, category string)
	RecordCodeGeneration(userID string)
}

const DefaultCategory = "general"

// Session holds one conversation transcript. At most one send is in flight
// at a time: a Send while another is pending is rejected without touching
// the transcript.
type Session struct {
	sender   Sender
	history  HistoryStore
	recorder Recorder

	mu       sync.Mutex
	messages []models.ChatMessage
	category string
	sending  bool
}

func NewSession(sender Sender, history HistoryStore, recorder Recorder) *Session {
	return &Session{
		sender:   sender,
		history:  history,
		recorder: recorder,
		category: DefaultCategory,
	}
}

// LoadHistory populates the transcript from the history store. A load
// failure leaves the transcript empty and is only logged.
func (s *Session) LoadHistory(ctx context.Context) {
	msgs, err := s.history.Load(ctx)
	if err != nil {
		logger.Error("Failed to load chat history", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
}

// Send appends the user message, calls the language model with the prior
// transcript for context, appends the reply and persists the transcript.
// On failure a synthetic assistant message flagged Error is appended
// instead and nothing is persisted.
func (s *Session) Send(ctx context.Context, userID, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending = true

	category := s.category
	prior := make([]models.ChatMessage, len(s.messages))
	copy(prior, s.messages)

	userMessage := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	s.messages = append(s.messages, userMessage)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	if userID == "" {
		userID = "anonymous"
	}
	s.recorder.RecordChatMessage(userID, content, category)

	start := time.Now()
	reply, err := s.sender.Send(ctx, content, prior, category)
	metrics.ChatSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ChatMessagesTotal.WithLabelValues("error").Inc()
		logger.Error("Chat send failed", zap.Error(err))

		errorMessage := models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   fmt.Sprintf("Maaf, terjadi error: %s. Silakan coba lagi.", err.Error()),
			Timestamp: time.Now().UTC(),
			Error:     true,
		}

		// Failure messages stay ephemeral: the transcript is not persisted
		// on this path.
		s.mu.Lock()
		s.messages = append(s.messages, errorMessage)
		s.mu.Unlock()

		return &errorMessage, err
	}

	assistantMessage := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}

	for i := 0; i < codedetect.CountFencedBlocks(reply); i++ {
		s.recorder.RecordCodeGeneration(userID)
		metrics.CodeSnippetsTotal.Inc()
	}

	s.mu.Lock()
	s.messages = append(s.messages, assistantMessage)
	transcript := make([]models.ChatMessage, len(s.messages))
	copy(transcript, s.messages)
	s.mu.Unlock()

	metrics.ChatMessagesTotal.WithLabelValues("success").Inc()

	if err := s.history.Save(ctx, transcript); err != nil {
		// The reply stays in the in-memory transcript even when the save
		// fails; the next successful exchange retries the full write.
		logger.Error("Failed to save chat history", zap.Error(err))
	}

	return &assistantMessage, nil
}

// Clear resets the transcript and persists the empty list. Rejected while
// a send is in flight.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.messages = nil
	s.mu.Unlock()

	if err := s.history.Save(ctx, []models.ChatMessage{}); err != nil {
		return fmt.Errorf("failed to persist cleared history: %w", err)
	}

	return nil
}

// Messages returns a copy of the transcript in chronological order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Session) SetCategory(category string) {
	if category == "" {
		category = DefaultCategory
	}
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
}
