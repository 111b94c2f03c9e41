package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/tracking"
	"github.com/roblox-ai-studio/backend/pkg/logger"
)

type TrackingHandler struct {
	tracker *tracking.Tracker
}

func NewTrackingHandler(tracker *tracking.Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: tracker}
}

// GetStats is the homepage stats poll. Passing user_id keeps the caller's
// session alive in the active-user window.
func (h *TrackingHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.tracker.StatsFor(c.Query("user_id")))
}

func (h *TrackingHandler) TrackRegistration(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	h.tracker.RecordRegistration(req.UserID)
	return c.JSON(h.tracker.Stats())
}

func (h *TrackingHandler) TrackLogin(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	activeUsers := h.tracker.RecordLogin(req.UserID)
	return c.JSON(fiber.Map{
		"active_users": activeUsers,
	})
}

func (h *TrackingHandler) TrackLogout(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	h.tracker.RecordLogout(req.UserID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TrackingHandler) SubmitRating(c *fiber.Ctx) error {
	var req struct {
		UserID string  `json:"user_id"`
		Rating float64 `json:"rating"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Rating must be between 1 and 5",
		})
	}

	average := h.tracker.RecordRating(req.UserID, req.Rating)
	return c.JSON(fiber.Map{
		"average": average,
	})
}

func (h *TrackingHandler) ResetTracking(c *fiber.Ctx) error {
	if err := h.tracker.Reset(); err != nil {
		logger.Error("Failed to reset tracking", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reset tracking data",
		})
	}

	return c.JSON(h.tracker.Stats())
}
