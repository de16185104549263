package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/analytics"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/logger"
)

type AnalyticsHandler struct {
	engine *analytics.Engine
}

func NewAnalyticsHandler(engine *analytics.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine}
}

func (h *AnalyticsHandler) HandleAnalytics(c *fiber.Ctx) error {
	botID := c.Query("bot_id")
	if botID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bot_id is required",
		})
	}

	report, err := h.engine.Analyze(c.Context(), botID)
	if err != nil {
		if errors.Is(err, models.ErrBotNotFound) {
			metrics.AnalyticsRequests.WithLabelValues("not_found").Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Bot not found",
			})
		}
		logger.Error("Failed to build analytics report", zap.String("bot_id", botID), zap.Error(err))
		metrics.AnalyticsRequests.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build analytics report",
		})
	}

	metrics.AnalyticsRequests.WithLabelValues("ok").Inc()
	return c.JSON(report)
}
