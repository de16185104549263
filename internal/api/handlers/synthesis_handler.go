package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/internal/synthesis"
	"github.com/chatforge/backend/pkg/logger"
)

// BotResolver looks bots up so handlers can 404 before spending money on
// completion calls.
type BotResolver interface {
	GetBot(ctx context.Context, id string) (*models.Bot, error)
}

// ReportInvalidator drops a bot's cached analytics report; nil disables.
type ReportInvalidator interface {
	InvalidateReport(ctx context.Context, botID string) error
}

type SynthesisHandler struct {
	synthesizer *synthesis.Synthesizer
	bots        BotResolver
	invalidator ReportInvalidator
}

func NewSynthesisHandler(s *synthesis.Synthesizer, bots BotResolver, invalidator ReportInvalidator) *SynthesisHandler {
	return &SynthesisHandler{
		synthesizer: s,
		bots:        bots,
		invalidator: invalidator,
	}
}

func (h *SynthesisHandler) HandleSynthesize(c *fiber.Ctx) error {
	var req struct {
		BotID      string `json:"bot_id"`
		Content    string `json:"content"`
		SourceURL  string `json:"source_url"`
		SourceType string `json:"source_type"`
		BotPurpose string `json:"bot_purpose"`
		// Questions overrides the purpose catalog when provided.
		Questions []string `json:"questions"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse synthesis request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.BotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bot_id is required",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content is required",
		})
	}

	bot, err := h.bots.GetBot(c.Context(), req.BotID)
	if err != nil {
		if errors.Is(err, models.ErrBotNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Bot not found",
			})
		}
		logger.Error("Failed to resolve bot", zap.String("bot_id", req.BotID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve bot",
		})
	}

	purpose := req.BotPurpose
	if purpose == "" {
		purpose = bot.Purpose
	}

	result, err := h.synthesizer.Synthesize(c.Context(), synthesis.Request{
		BotID:      req.BotID,
		Content:    req.Content,
		SourceURL:  req.SourceURL,
		SourceType: req.SourceType,
		Purpose:    purpose,
		Questions:  req.Questions,
	})
	if err != nil {
		logger.Error("Synthesis run failed", zap.String("bot_id", req.BotID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Knowledge synthesis failed",
		})
	}

	if h.invalidator != nil && result.Saved > 0 {
		if err := h.invalidator.InvalidateReport(c.Context(), req.BotID); err != nil {
			logger.Warn("Failed to invalidate report cache", zap.String("bot_id", req.BotID), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"generated":      result.Generated,
		"saved":          result.Saved,
		"preview":        result.Preview,
		"failed_batches": result.FailedBatches,
	})
}
