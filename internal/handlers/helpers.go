package handlers

import (
	"errors"
	"strings"

	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// streamLength narrows a stored size to the int SendStream expects. Sizes
// that do not fit the platform int become -1, which streams without a
// Content-Length header instead of truncating.
func streamLength(size int64) int {
	if size < 0 || int64(int(size)) != size {
		return -1
	}
	return int(size)
}

func getRequestID(c *fiber.Ctx) string {
	if v, ok := c.Locals("requestID").(string); ok {
		return v
	}
	return ""
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Dedup collisions get a dedicated payload carrying the surviving file id.
func respondServiceError(c *fiber.Ctx, err error) error {
	var dup *services.DuplicateContentError
	switch {
	case errors.As(err, &dup):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":        false,
			"error":          "duplicate content",
			"existingFileID": dup.ExistingID,
		})
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrConflict):
		return utils.Error(c, fiber.StatusConflict, "already exists")
	case errors.Is(err, services.ErrStorageUnavailable):
		return utils.Error(c, fiber.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, services.ErrInvariantViolation):
		return utils.Error(c, fiber.StatusBadRequest, "invalid request")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}
}
