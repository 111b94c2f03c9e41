package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/chat"
	"github.com/roblox-ai-studio/backend/internal/render"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

// CategoryRecorder feeds the per-category analytics table. Best-effort.
type CategoryRecorder interface {
	RecordCategoryQuery(ctx context.Context, category string, latency time.Duration) error
}

type ChatHandler struct {
	manager    *chat.Manager
	categories CategoryRecorder
}

func NewChatHandler(manager *chat.Manager, categories CategoryRecorder) *ChatHandler {
	return &ChatHandler{
		manager:    manager,
		categories: categories,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
		Message   string `json:"message"`
		Category  string `json:"category"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	session := h.manager.Get(c.Context(), req.SessionID)
	if req.Category != "" {
		session.SetCategory(req.Category)
	}

	start := time.Now()
	reply, err := session.Send(c.Context(), req.UserID, req.Message)

	if errors.Is(err, chat.ErrEmptyMessage) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}
	if errors.Is(err, chat.ErrSendInFlight) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A message is already being processed for this session",
		})
	}

	if err == nil {
		if recErr := h.categories.RecordCategoryQuery(c.Context(), session.Category(), time.Since(start)); recErr != nil {
			logger.Warn("Failed to record category query", zap.Error(recErr))
		}
	}

	// A model failure still produced a synthetic error-flagged assistant
	// message; the client renders it inline, so the response shape is the
	// same either way.
	return c.JSON(fiber.Map{
		"reply":    reply,
		"segments": render.Segments(reply.Content),
		"messages": session.Messages(),
	})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	session := h.manager.Get(c.Context(), sessionID)

	return c.JSON(fiber.Map{
		"messages": session.Messages(),
		"category": session.Category(),
	})
}

func (h *ChatHandler) ClearHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	session := h.manager.Get(c.Context(), sessionID)
	if err := session.Clear(c.Context()); err != nil {
		logger.Error("Failed to clear history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear history",
		})
	}

	return c.JSON(fiber.Map{
		"messages": session.Messages(),
	})
}
