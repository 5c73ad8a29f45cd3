package handlers

import (
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VersionsHandler struct {
	Versions *services.VersionService
}

func NewVersionsHandler(versions *services.VersionService) *VersionsHandler {
	return &VersionsHandler{Versions: versions}
}

func (h *VersionsHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	versions, err := h.Versions.List(c.Context(), fileID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, versions)
}

func (h *VersionsHandler) Get(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, versionID, err := h.ids(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	version, err := h.Versions.Get(c.Context(), fileID, versionID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, version)
}

// Restore copies a version's content back onto the live file. The version
// ledger is left untouched.
func (h *VersionsHandler) Restore(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, versionID, err := h.ids(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := h.Versions.Restore(c.Context(), fileID, versionID, user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"restored": true})
}

func (h *VersionsHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, versionID, err := h.ids(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := h.Versions.DeleteVersion(c.Context(), fileID, versionID, user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *VersionsHandler) ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	versionID, err := parseUUID(c.Params("versionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return fileID, versionID, nil
}
