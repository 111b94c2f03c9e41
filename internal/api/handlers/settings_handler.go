package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

type SettingsStore interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) error
}

type SettingsHandler struct {
	store SettingsStore
}

func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.store.GetSettings(c.Context())
	if err != nil {
		logger.Error("Failed to load settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load settings",
		})
	}
	return c.JSON(settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var settings models.Settings
	if err := c.BodyParser(&settings); err != nil {
		logger.Error("Failed to parse settings body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if settings.API.MaxTokens < 256 || settings.API.MaxTokens > 8192 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "maxTokens must be between 256 and 8192",
		})
	}
	if settings.API.Temperature < 0 || settings.API.Temperature > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "temperature must be between 0 and 1",
		})
	}

	if err := h.store.UpdateSettings(c.Context(), settings); err != nil {
		logger.Error("Failed to update settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save settings",
		})
	}

	return c.JSON(settings)
}
