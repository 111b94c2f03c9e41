package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/chat"
	"github.com/roblox-ai-studio/backend/internal/render"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

type WebSocketHandler struct {
	manager *chat.Manager
}

func NewWebSocketHandler(manager *chat.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			Content   string `json:"content"`
			SessionID string `json:"session_id"`
			UserID    string `json:"user_id"`
			Category  string `json:"category"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "chat" {
			continue
		}

		if msg.SessionID == "" {
			h.sendError(c, "session_id is required")
			continue
		}

		err = h.streamReply(c, msg.SessionID, msg.UserID, msg.Content, msg.Category)
		if err != nil {
			logger.Error("Failed to stream reply", zap.Error(err))
			h.sendError(c, err.Error())
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, sessionID, userID, content, category string) error {
	ctx := context.Background()

	session := h.manager.Get(ctx, sessionID)
	if category != "" {
		session.SetCategory(category)
	}

	h.send(c, "status", "Thinking...")

	reply, err := session.Send(ctx, userID, content)
	if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrSendInFlight) {
		return err
	}

	// Word-wise chunks keep the UI typing effect without server-side
	// streaming from the model.
	words := strings.Fields(reply.Content)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := h.send(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"message_id": reply.ID,
		"error":      reply.Error,
		"segments":   render.Segments(reply.Content),
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
