package handlers

import (
	"strings"

	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FoldersHandler struct {
	Folders *services.FolderService
}

func NewFoldersHandler(folders *services.FolderService) *FoldersHandler {
	return &FoldersHandler{Folders: folders}
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	Purpose  string  `json:"purpose"`
	ParentID *string `json:"parentId"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		id, err := parseUUID(*req.ParentID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
		}
		parentID = &id
	}

	folder, err := h.Folders.Create(c.Context(), user.ID, req.Name, req.Purpose, parentID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FoldersHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	folders, err := h.Folders.ListRoots(c.Context(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, folders)
}

func (h *FoldersHandler) Get(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folder, err := h.Folders.Get(c.Context(), folderID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, folder)
}

func (h *FoldersHandler) Children(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folders, err := h.Folders.ListChildren(c.Context(), folderID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, folders)
}

func (h *FoldersHandler) Files(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	files, err := h.Folders.ListFiles(c.Context(), folderID, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, files)
}

// Delete removes the folder and its entire subtree. Files inside are unfiled,
// not deleted.
func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	if err := h.Folders.Delete(c.Context(), folderID, user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
