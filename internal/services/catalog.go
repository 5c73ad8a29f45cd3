package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService owns file identity and metadata: registration with dedup,
// visibility, folder placement and content replacement. Blob I/O always
// happens outside its transactions; metadata is the source of truth.
type CatalogService struct {
	DB         *gorm.DB
	Blobs      storage.BlobStore
	Classifier *Classifier
	Access     *AccessService
	Versions   *VersionService
}

func NewCatalogService(db *gorm.DB, blobs storage.BlobStore, classifier *Classifier, access *AccessService, versions *VersionService) *CatalogService {
	return &CatalogService{DB: db, Blobs: blobs, Classifier: classifier, Access: access, Versions: versions}
}

type RegisterInput struct {
	OwnerID     uuid.UUID
	DisplayName string
	MimeType    string
	Object      storage.StoredObject
	FolderID    *uuid.UUID
	ProjectName string
	ProjectDesc string
}

// Register records an uploaded object as a file. The (owner_id, content_hash)
// unique index — not a check-then-act — enforces dedup, so two concurrent
// uploads of identical bytes cannot both land: the loser's insert fails and
// is translated into a DuplicateContentError carrying the surviving file's
// id. The caller is expected to discard the bytes it just stored.
//
// On success the file is classified synchronously and the resulting category
// association is persisted within the same transaction.
func (s *CatalogService) Register(ctx context.Context, in RegisterInput) (*models.File, error) {
	if in.Object.ContentHash == "" {
		return nil, fmt.Errorf("%w: register without content hash", ErrInvariantViolation)
	}

	file := &models.File{
		Name:        in.DisplayName,
		MimeType:    in.MimeType,
		Size:        in.Object.Size,
		ContentHash: in.Object.ContentHash,
		StorageRef:  in.Object.Ref,
		OwnerID:     in.OwnerID,
		FolderID:    in.FolderID,
		ProjectName: in.ProjectName,
		ProjectDesc: in.ProjectDesc,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.FolderID != nil {
			if _, err := s.Access.OwnedFolder(tx, *in.FolderID, in.OwnerID); err != nil {
				return err
			}
		}

		if err := tx.Create(file).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.duplicateOf(tx, in.OwnerID, in.Object.ContentHash)
			}
			return err
		}

		categoryName := s.Classifier.Classify(in.DisplayName, in.ProjectName, in.ProjectDesc)
		category, err := ensureSystemCategory(tx, categoryName)
		if err != nil {
			return err
		}

		return attachCategoryRow(tx, file.ID, category.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithUser(in.OwnerID.String(), "file_registered", map[string]interface{}{
		"file_id":      file.ID.String(),
		"file_name":    file.Name,
		"size":         file.Size,
		"content_hash": file.ContentHash,
	})

	return file, nil
}

// duplicateOf resolves the surviving row for a dedup collision so the error
// can carry its id.
func (s *CatalogService) duplicateOf(tx *gorm.DB, ownerID uuid.UUID, contentHash string) error {
	var existing models.File
	if err := tx.First(&existing, "owner_id = ? AND content_hash = ?", ownerID, contentHash).Error; err != nil {
		// The index fired but the winner is not visible; report the
		// collision without an id rather than masking it.
		return &DuplicateContentError{}
	}
	return &DuplicateContentError{ExistingID: existing.ID}
}

// Get returns a file by id. With enforceOwner set, a requester that does not
// own the file receives ErrNotFound — existence is not revealed. With it
// unset any file is returned regardless of requester; anonymous "open" links
// depend on this relaxation.
func (s *CatalogService) Get(ctx context.Context, fileID, requesterID uuid.UUID, enforceOwner bool) (*models.File, error) {
	tx := s.DB.WithContext(ctx)

	var file models.File
	if err := tx.First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if enforceOwner && file.OwnerID != requesterID {
		return nil, ErrNotFound
	}

	files := []models.File{file}
	if err := s.annotate(tx, files); err != nil {
		return nil, err
	}
	return &files[0], nil
}

// FolderFilter selects which slice of an owner's files to list.
type FolderFilter struct {
	mode     int
	folderID uuid.UUID
}

const (
	filterAll = iota
	filterUnfiled
	filterInFolder
)

func AllFiles() FolderFilter               { return FolderFilter{mode: filterAll} }
func UnfiledFiles() FolderFilter           { return FolderFilter{mode: filterUnfiled} }
func FilesIn(folderID uuid.UUID) FolderFilter {
	return FolderFilter{mode: filterInFolder, folderID: folderID}
}

// ListForOwner returns the owner's files newest-first, annotated with derived
// like/favorite counts and their categories and tags.
func (s *CatalogService) ListForOwner(ctx context.Context, ownerID uuid.UUID, filter FolderFilter) ([]models.File, error) {
	tx := s.DB.WithContext(ctx)

	query := tx.Where("owner_id = ?", ownerID)
	switch filter.mode {
	case filterUnfiled:
		query = query.Where("folder_id IS NULL")
	case filterInFolder:
		query = query.Where("folder_id = ?", filter.folderID)
	}

	var files []models.File
	if err := query.Order("created_at DESC, id DESC").Find(&files).Error; err != nil {
		return nil, err
	}

	if err := s.annotate(tx, files); err != nil {
		return nil, err
	}
	return files, nil
}

// Move places a file into a folder of the same owner, or unfiles it when
// newFolderID is nil.
func (s *CatalogService) Move(ctx context.Context, fileID, ownerID uuid.UUID, newFolderID *uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.Access.OwnedFile(tx, fileID, ownerID)
		if err != nil {
			return err
		}

		if newFolderID != nil {
			if _, err := s.Access.OwnedFolder(tx, *newFolderID, ownerID); err != nil {
				return err
			}
		}

		return tx.Model(file).Update("folder_id", newFolderID).Error
	})
}

// Delete removes the catalog row together with its associations, interaction
// rows and version ledger, then best-effort deletes the backing bytes. A
// failed byte delete is logged and tolerated: metadata is authoritative and
// storage leakage beats inconsistent metadata.
func (s *CatalogService) Delete(ctx context.Context, fileID, ownerID uuid.UUID) error {
	var refs []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.Access.OwnedFile(tx, fileID, ownerID)
		if err != nil {
			return err
		}
		refs = append(refs, file.StorageRef)

		var versionRefs []string
		if err := tx.Model(&models.FileVersion{}).Where("file_id = ?", fileID).
			Pluck("storage_ref", &versionRefs).Error; err != nil {
			return err
		}
		refs = append(refs, versionRefs...)

		for _, target := range []interface{}{
			&models.FileCategory{}, &models.FileTag{},
			&models.Like{}, &models.Favorite{}, &models.FileVersion{},
		} {
			if err := tx.Where("file_id = ?", fileID).Delete(target).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.File{}, "id = ?", fileID).Error
	})
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.Blobs.Delete(ctx, ref); err != nil {
			logger.Warn("blob_cleanup_failed", map[string]interface{}{
				"file_id": fileID.String(),
				"ref":     ref,
			})
		}
	}

	logger.InfoWithUser(ownerID.String(), "file_deleted", map[string]interface{}{
		"file_id": fileID.String(),
	})
	return nil
}

// ReplaceContent snapshots the file's current state as the next version and
// overwrites the live fields with the newly stored object. Both writes happen
// in one transaction: either the version row and the update land together or
// neither does.
func (s *CatalogService) ReplaceContent(ctx context.Context, fileID, ownerID uuid.UUID, obj storage.StoredObject, comment string) (*models.FileVersion, error) {
	if obj.ContentHash == "" {
		return nil, fmt.Errorf("%w: replace without content hash", ErrInvariantViolation)
	}

	var version *models.FileVersion

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.Access.OwnedFile(tx, fileID, ownerID)
		if err != nil {
			return err
		}

		version, err = s.Versions.Snapshot(tx, file, comment, ownerID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"storage_ref":  obj.Ref,
			"size":         obj.Size,
			"content_hash": obj.ContentHash,
		}
		if err := tx.Model(file).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.duplicateOf(tx, ownerID, obj.ContentHash)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithUser(ownerID.String(), "file_content_replaced", map[string]interface{}{
		"file_id":        fileID.String(),
		"version_number": version.VersionNumber,
		"new_size":       obj.Size,
	})
	return version, nil
}

type pairCount struct {
	FileID uuid.UUID
	Count  int64
}

type taxonomyRow struct {
	FileID      uuid.UUID
	ID          uuid.UUID
	Name        string
	Description string
	OwnerID     uuid.UUID
}

// annotate fills the derived fields of a file batch with three grouped
// queries instead of one query per file.
func (s *CatalogService) annotate(tx *gorm.DB, files []models.File) error {
	if len(files) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(files))
	index := make(map[uuid.UUID]*models.File, len(files))
	for i := range files {
		ids[i] = files[i].ID
		index[files[i].ID] = &files[i]
		files[i].Categories = []models.Category{}
		files[i].Tags = []models.Tag{}
	}

	for _, counting := range []struct {
		model  interface{}
		assign func(f *models.File, n int64)
	}{
		{&models.Like{}, func(f *models.File, n int64) { f.LikeCount = n }},
		{&models.Favorite{}, func(f *models.File, n int64) { f.FavoriteCount = n }},
	} {
		var counts []pairCount
		err := tx.Model(counting.model).
			Select("file_id, COUNT(*) AS count").
			Where("file_id IN ?", ids).
			Group("file_id").
			Scan(&counts).Error
		if err != nil {
			return err
		}
		for _, c := range counts {
			if f, ok := index[c.FileID]; ok {
				counting.assign(f, c.Count)
			}
		}
	}

	var categoryRows []taxonomyRow
	err := tx.Table("categories").
		Select("file_categories.file_id AS file_id, categories.id AS id, categories.name AS name, categories.description AS description, categories.owner_id AS owner_id").
		Joins("JOIN file_categories ON file_categories.category_id = categories.id").
		Where("file_categories.file_id IN ?", ids).
		Scan(&categoryRows).Error
	if err != nil {
		return err
	}
	for _, row := range categoryRows {
		if f, ok := index[row.FileID]; ok {
			f.Categories = append(f.Categories, models.Category{
				BaseModel:   models.BaseModel{ID: row.ID},
				Name:        row.Name,
				Description: row.Description,
				OwnerID:     row.OwnerID,
			})
		}
	}

	var tagRows []taxonomyRow
	err = tx.Table("tags").
		Select("file_tags.file_id AS file_id, tags.id AS id, tags.name AS name, tags.owner_id AS owner_id").
		Joins("JOIN file_tags ON file_tags.tag_id = tags.id").
		Where("file_tags.file_id IN ?", ids).
		Scan(&tagRows).Error
	if err != nil {
		return err
	}
	for _, row := range tagRows {
		if f, ok := index[row.FileID]; ok {
			f.Tags = append(f.Tags, models.Tag{
				BaseModel: models.BaseModel{ID: row.ID},
				Name:      row.Name,
				OwnerID:   row.OwnerID,
			})
		}
	}

	return nil
}
