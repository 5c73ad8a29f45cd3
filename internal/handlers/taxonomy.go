package handlers

import (
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TaxonomyHandler struct {
	Taxonomy *services.TaxonomyService
}

func NewTaxonomyHandler(taxonomy *services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{Taxonomy: taxonomy}
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (h *TaxonomyHandler) CreateCategory(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "category name is required")
	}

	category, err := h.Taxonomy.CreateCategory(c.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, category)
}

func (h *TaxonomyHandler) ListCategories(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	categories, err := h.Taxonomy.ListCategories(c.Context(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, categories)
}

func (h *TaxonomyHandler) CreateTag(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req createTagRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "tag name is required")
	}

	tag, err := h.Taxonomy.CreateTag(c.Context(), user.ID, req.Name)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, tag)
}

func (h *TaxonomyHandler) ListTags(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	tags, err := h.Taxonomy.ListTags(c.Context(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, tags)
}

func (h *TaxonomyHandler) AttachCategory(c *fiber.Ctx) error {
	return h.link(c, func(fileID, otherID, userID uuid.UUID) error {
		return h.Taxonomy.AttachCategory(c.Context(), fileID, otherID, userID)
	}, "categoryId")
}

func (h *TaxonomyHandler) DetachCategory(c *fiber.Ctx) error {
	return h.link(c, func(fileID, otherID, userID uuid.UUID) error {
		return h.Taxonomy.DetachCategory(c.Context(), fileID, otherID, userID)
	}, "categoryId")
}

func (h *TaxonomyHandler) AttachTag(c *fiber.Ctx) error {
	return h.link(c, func(fileID, otherID, userID uuid.UUID) error {
		return h.Taxonomy.AttachTag(c.Context(), fileID, otherID, userID)
	}, "tagId")
}

func (h *TaxonomyHandler) DetachTag(c *fiber.Ctx) error {
	return h.link(c, func(fileID, otherID, userID uuid.UUID) error {
		return h.Taxonomy.DetachTag(c.Context(), fileID, otherID, userID)
	}, "tagId")
}

func (h *TaxonomyHandler) FileCategories(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	// Ownership is enforced by the attach/detach paths; listing reuses the
	// file lookup to keep foreign files undisclosed.
	if _, err := h.Taxonomy.Access.OwnedFile(h.Taxonomy.DB.WithContext(c.Context()), fileID, user.ID); err != nil {
		return respondServiceError(c, err)
	}

	categories, err := h.Taxonomy.CategoriesFor(c.Context(), fileID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, categories)
}

func (h *TaxonomyHandler) FileTags(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	if _, err := h.Taxonomy.Access.OwnedFile(h.Taxonomy.DB.WithContext(c.Context()), fileID, user.ID); err != nil {
		return respondServiceError(c, err)
	}

	tags, err := h.Taxonomy.TagsFor(c.Context(), fileID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, tags)
}

// link factors the shared file-id + association-id parameter handling of the
// four attach/detach routes.
func (h *TaxonomyHandler) link(c *fiber.Ctx, op func(fileID, otherID, userID uuid.UUID) error, paramName string) error {
	user := middleware.GetCurrentUser(c)

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}
	otherID, err := parseUUID(c.Params(paramName))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid "+paramName)
	}

	if err := op(fileID, otherID, user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"ok": true})
}
