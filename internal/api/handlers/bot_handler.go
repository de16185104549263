package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/internal/synthesis"
	"github.com/chatforge/backend/pkg/logger"
)

type BotStore interface {
	InsertBot(ctx context.Context, bot *models.Bot) error
	GetBot(ctx context.Context, id string) (*models.Bot, error)
	CountKnowledge(ctx context.Context, botID string) (int, error)
}

type BotHandler struct {
	store BotStore
}

func NewBotHandler(store BotStore) *BotHandler {
	return &BotHandler{store: store}
}

func (h *BotHandler) HandleCreateBot(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Purpose    string `json:"purpose"`
		WebsiteURL string `json:"website_url"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = synthesis.PurposeCustomer
	}
	if purpose != synthesis.PurposeCustomer && purpose != synthesis.PurposeEmployee {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "purpose must be \"customer\" or \"employee\"",
		})
	}

	bot := &models.Bot{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Purpose:    purpose,
		WebsiteURL: req.WebsiteURL,
		CreatedAt:  time.Now(),
	}

	if err := h.store.InsertBot(c.Context(), bot); err != nil {
		logger.Error("Failed to create bot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create bot",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          bot.ID,
		"name":        bot.Name,
		"purpose":     bot.Purpose,
		"website_url": bot.WebsiteURL,
	})
}

func (h *BotHandler) HandleGetBot(c *fiber.Ctx) error {
	bot, err := h.store.GetBot(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrBotNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Bot not found",
			})
		}
		logger.Error("Failed to get bot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get bot",
		})
	}

	count, err := h.store.CountKnowledge(c.Context(), bot.ID)
	if err != nil {
		logger.Warn("Failed to count knowledge records", zap.String("bot_id", bot.ID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"id":              bot.ID,
		"name":            bot.Name,
		"purpose":         bot.Purpose,
		"website_url":     bot.WebsiteURL,
		"created_at":      bot.CreatedAt.Unix(),
		"knowledge_count": count,
	})
}
