package handlers

import (
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InteractionsHandler struct {
	Interactions *services.InteractionService
}

func NewInteractionsHandler(interactions *services.InteractionService) *InteractionsHandler {
	return &InteractionsHandler{Interactions: interactions}
}

func (h *InteractionsHandler) ToggleLike(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	liked, count, err := h.Interactions.ToggleLike(c.Context(), fileID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"liked":     liked,
		"likeCount": count,
	})
}

func (h *InteractionsHandler) ToggleFavorite(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	favorited, count, err := h.Interactions.ToggleFavorite(c.Context(), fileID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"favorited":     favorited,
		"favoriteCount": count,
	})
}

// Status works for anonymous viewers too: counts are public alongside the
// open route, per-user flags are only filled for authenticated callers.
func (h *InteractionsHandler) Status(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var userID *uuid.UUID
	if user := middleware.GetCurrentUser(c); user != nil {
		userID = &user.ID
	}

	status, err := h.Interactions.Status(c.Context(), fileID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, status)
}
