package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/metrics"
	"github.com/roblox-ai-studio/backend/pkg/logger"
	"github.com/roblox-ai-studio/backend/pkg/utils"
)

// Client caches model replies for fresh conversations. Once a transcript
// has context the same prompt no longer maps to the same answer, so only
// first-turn replies are cached.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func replyKey(category, message string) string {
	return fmt.Sprintf("chat:%s", utils.HashString(category+"|"+message))
}

// GetReply returns the cached reply for a first-turn prompt, if any.
func (c *Client) GetReply(ctx context.Context, category, message string) (string, bool, error) {
	reply, err := c.client.Get(ctx, replyKey(category, message)).Result()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("reply").Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached reply: %w", err)
	}

	metrics.CacheHits.WithLabelValues("reply").Inc()
	logger.Debug("Reply cache hit", zap.String("category", category))
	return reply, true, nil
}

func (c *Client) SetReply(ctx context.Context, category, message, reply string) error {
	err := c.client.Set(ctx, replyKey(category, message), reply, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache reply: %w", err)
	}
	return nil
}
