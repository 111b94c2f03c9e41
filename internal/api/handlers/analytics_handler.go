package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/analytics"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
}

func NewAnalyticsHandler(aggregator *analytics.Aggregator) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator}
}

func (h *AnalyticsHandler) GetDetailed(c *fiber.Ctx) error {
	return c.JSON(h.aggregator.Detailed(c.Context()))
}

func (h *AnalyticsHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.aggregator.Overview(c.Context())
	if err != nil {
		logger.Error("Failed to build analytics overview", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}
	return c.JSON(overview)
}

func (h *AnalyticsHandler) GetCategoryStats(c *fiber.Ctx) error {
	stats, err := h.aggregator.CategoryStats(c.Context())
	if err != nil {
		logger.Error("Failed to load category stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load category stats",
		})
	}
	return c.JSON(fiber.Map{
		"categories": stats,
	})
}

func (h *AnalyticsHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.aggregator.Summary(c.Context())
	if err != nil {
		logger.Error("Failed to build analytics summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics summary",
		})
	}
	return c.JSON(summary)
}
