package redis

import (
	"context"

	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

type Sender interface {
	Send(ctx context.Context, message string, prior []models.ChatMessage, category string) (string, error)
}

// CachedSender wraps a Sender with the first-turn reply cache. Cache
// failures degrade to a plain model call.
type CachedSender struct {
	inner Sender
	cache *Client
}

func NewCachedSender(inner Sender, cache *Client) *CachedSender {
	return &CachedSender{inner: inner, cache: cache}
}

func (s *CachedSender) Send(ctx context.Context, message string, prior []models.ChatMessage, category string) (string, error) {
	cacheable := len(prior) == 0

	if cacheable {
		reply, ok, err := s.cache.GetReply(ctx, category, message)
		if err != nil {
			logger.Warn("Reply cache lookup failed", zap.Error(err))
		} else if ok {
			return reply, nil
		}
	}

	reply, err := s.inner.Send(ctx, message, prior, category)
	if err != nil {
		return "", err
	}

	if cacheable {
		if err := s.cache.SetReply(ctx, category, message, reply); err != nil {
			logger.Warn("Reply cache write failed", zap.Error(err))
		}
	}

	return reply, nil
}
