package handlers

import (
	"fmt"
	"strings"

	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FilesHandler struct {
	Catalog *services.CatalogService
	Blobs   storage.BlobStore
	Audit   *services.AuditService
}

func NewFilesHandler(catalog *services.CatalogService, blobs storage.BlobStore, audit *services.AuditService) *FilesHandler {
	return &FilesHandler{Catalog: catalog, Blobs: blobs, Audit: audit}
}

// Upload stores the bytes first and registers metadata second. When
// registration reports a duplicate (or fails for any reason) the bytes just
// written are discarded; the surviving file keeps its original storage ref.
func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	var folderID *uuid.UUID
	if raw := strings.TrimSpace(c.FormValue("folderId")); raw != "" {
		id, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
		}
		folderID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "unable to read uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := h.Blobs.Store(c.Context(), src, fileHeader.Size, contentType)
	if err != nil {
		logger.ErrorWithUser(user.ID.String(), "upload_store_failed", err, map[string]interface{}{
			"file_name": fileHeader.Filename,
		})
		return respondServiceError(c, services.ErrStorageUnavailable)
	}

	file, err := h.Catalog.Register(c.Context(), services.RegisterInput{
		OwnerID:     user.ID,
		DisplayName: fileHeader.Filename,
		MimeType:    contentType,
		Object:      obj,
		FolderID:    folderID,
		ProjectName: c.FormValue("projectName"),
		ProjectDesc: c.FormValue("projectDescription"),
	})
	if err != nil {
		h.discard(c, obj.Ref)
		return respondServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, file)
}

// List returns the caller's files. The folder query parameter selects the
// slice: absent or "all" for everything, "unfiled" for files outside any
// folder, or a folder id.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	filter := services.AllFiles()
	switch raw := strings.TrimSpace(c.Query("folder")); raw {
	case "", "all":
	case "unfiled":
		filter = services.UnfiledFiles()
	default:
		id, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folder filter")
		}
		filter = services.FilesIn(id)
	}

	files, err := h.Catalog.ListForOwner(c.Context(), user.ID, filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, files)
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID, user.ID, true)
	if err != nil {
		return respondServiceError(c, err)
	}

	h.recordAccess(c, file.ID, &user.ID, models.AccessActionView)
	return utils.Success(c, fiber.StatusOK, file)
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID, user.ID, true)
	if err != nil {
		return respondServiceError(c, err)
	}

	rc, err := h.Blobs.Open(c.Context(), file.StorageRef)
	if err != nil {
		logger.ErrorWithUser(user.ID.String(), "download_open_failed", err, map[string]interface{}{
			"file_id": file.ID.String(),
		})
		return respondServiceError(c, services.ErrStorageUnavailable)
	}

	h.recordAccess(c, file.ID, &user.ID, models.AccessActionDownload)

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(rc, streamLength(file.Size))
}

// Open serves a file to anyone holding its id, authenticated or not. The
// route is the sharing mechanism: ownership is deliberately not enforced.
func (h *FilesHandler) Open(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID, uuid.Nil, false)
	if err != nil {
		return respondServiceError(c, err)
	}

	rc, err := h.Blobs.Open(c.Context(), file.StorageRef)
	if err != nil {
		logger.Error("open_stream_failed", err, map[string]interface{}{
			"file_id": file.ID.String(),
		})
		return respondServiceError(c, services.ErrStorageUnavailable)
	}

	var userID *uuid.UUID
	if user := middleware.GetCurrentUser(c); user != nil {
		userID = &user.ID
	}
	h.recordAccess(c, file.ID, userID, models.AccessActionOpen)

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", file.Name))
	return c.SendStream(rc, streamLength(file.Size))
}

// PublicDownload is the attachment-disposition sibling of Open: anyone with
// the id gets the bytes, audited as a download.
func (h *FilesHandler) PublicDownload(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID, uuid.Nil, false)
	if err != nil {
		return respondServiceError(c, err)
	}

	rc, err := h.Blobs.Open(c.Context(), file.StorageRef)
	if err != nil {
		logger.Error("public_download_open_failed", err, map[string]interface{}{
			"file_id": file.ID.String(),
		})
		return respondServiceError(c, services.ErrStorageUnavailable)
	}

	var userID *uuid.UUID
	if user := middleware.GetCurrentUser(c); user != nil {
		userID = &user.ID
	}
	h.recordAccess(c, file.ID, userID, models.AccessActionDownload)

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(rc, streamLength(file.Size))
}

type moveRequest struct {
	FolderID *string `json:"folderId"`
}

// Move places the file into another folder; a null folderId unfiles it.
func (h *FilesHandler) Move(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var folderID *uuid.UUID
	if req.FolderID != nil && strings.TrimSpace(*req.FolderID) != "" {
		id, err := parseUUID(*req.FolderID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
		}
		folderID = &id
	}

	if err := h.Catalog.Move(c.Context(), fileID, user.ID, folderID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"moved": true})
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	if err := h.Catalog.Delete(c.Context(), fileID, user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// Replace uploads new content for an existing file. The previous content is
// preserved as a version before the live row is overwritten.
func (h *FilesHandler) Replace(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "unable to read uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := h.Blobs.Store(c.Context(), src, fileHeader.Size, contentType)
	if err != nil {
		logger.ErrorWithUser(user.ID.String(), "replace_store_failed", err, map[string]interface{}{
			"file_id": fileID.String(),
		})
		return respondServiceError(c, services.ErrStorageUnavailable)
	}

	version, err := h.Catalog.ReplaceContent(c.Context(), fileID, user.ID, obj, c.FormValue("comment"))
	if err != nil {
		h.discard(c, obj.Ref)
		return respondServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, version)
}

func (h *FilesHandler) recordAccess(c *fiber.Ctx, fileID uuid.UUID, userID *uuid.UUID, action string) {
	h.Audit.RecordAccess(services.AccessEntry{
		FileID:    fileID,
		UserID:    userID,
		Action:    action,
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})
}

// discard removes bytes stored for a request that did not complete.
func (h *FilesHandler) discard(c *fiber.Ctx, ref string) {
	if err := h.Blobs.Delete(c.Context(), ref); err != nil {
		logger.Warn("blob_discard_failed", map[string]interface{}{
			"ref": ref,
		})
	}
}
