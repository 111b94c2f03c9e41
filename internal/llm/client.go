package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/metrics"
	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/circuitbreaker"
	"github.com/roblox-ai-studio/backend/pkg/logger"
	"github.com/roblox-ai-studio/backend/pkg/retry"
)

const systemPromptBase = `You are Roblox AI Studio, an expert assistant for Roblox Studio development.
You help users write Luau scripts, design game mechanics and debug their games.

Rules:
1. Put every script inside a fenced code block tagged with the language (lua).
2. Use idiomatic Luau: services via game:GetService, events, proper cleanup.
3. Keep explanations short and practical.
4. Answer in the language the user writes in.`

var categoryPrompts = map[string]string{
	"coding":       "Focus on writing complete, working Luau scripts with comments on the tricky parts.",
	"design":       "Focus on game design: mechanics, balancing, player experience and monetization.",
	"optimization": "Focus on performance: script efficiency, memory, replication and streaming.",
	"learning":     "Explain concepts step by step for a beginner, with small runnable examples.",
	"general":      "Answer general Roblox development questions.",
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	if timeoutSec == 0 {
		timeoutSec = 60
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// Send asks the model for a reply to message, carrying the prior transcript
// for conversational context and the selected category for prompt steering.
func (c *Client) Send(ctx context.Context, message string, prior []models.ChatMessage, category string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatMessages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(category),
		},
	}

	for _, m := range prior {
		if m.Error {
			continue
		}
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	var reply string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    chatMessages,
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			metrics.LLMTokensUsed.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues("completion").Add(float64(resp.Usage.CompletionTokens))

			logger.Debug("LLM completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			reply = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return "", err
	}

	return reply, nil
}

func systemPrompt(category string) string {
	focus, ok := categoryPrompts[category]
	if !ok {
		focus = categoryPrompts["general"]
	}
	return systemPromptBase + "\n\n" + focus
}
