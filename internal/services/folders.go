package services

import (
	"context"
	"strings"

	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FolderService manages each user's folder tree. Folders are only ever
// created under an existing folder of the same owner and never reparented,
// so the tree cannot contain cycles.
type FolderService struct {
	DB     *gorm.DB
	Access *AccessService
}

func NewFolderService(db *gorm.DB, access *AccessService) *FolderService {
	return &FolderService{DB: db, Access: access}
}

func (s *FolderService) Create(ctx context.Context, ownerID uuid.UUID, name, purpose string, parentID *uuid.UUID) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	purpose = strings.TrimSpace(purpose)
	if name == "" || purpose == "" {
		return nil, ErrInvariantViolation
	}

	folder := &models.Folder{
		OwnerID:  ownerID,
		Name:     name,
		Purpose:  purpose,
		ParentID: parentID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			if _, err := s.Access.OwnedFolder(tx, *parentID, ownerID); err != nil {
				return err
			}
		}
		return tx.Create(folder).Error
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithUser(ownerID.String(), "folder_created", map[string]interface{}{
		"folder_id": folder.ID.String(),
		"name":      folder.Name,
		"parent_id": parentID,
	})
	return folder, nil
}

func (s *FolderService) Get(ctx context.Context, folderID, ownerID uuid.UUID) (*models.Folder, error) {
	return s.Access.OwnedFolder(s.DB.WithContext(ctx), folderID, ownerID)
}

// ListRoots returns the owner's top-level folders.
func (s *FolderService) ListRoots(ctx context.Context, ownerID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND parent_id IS NULL", ownerID).
		Order("created_at DESC").
		Find(&folders).Error
	return folders, err
}

func (s *FolderService) ListChildren(ctx context.Context, folderID, ownerID uuid.UUID) ([]models.Folder, error) {
	tx := s.DB.WithContext(ctx)
	if _, err := s.Access.OwnedFolder(tx, folderID, ownerID); err != nil {
		return nil, err
	}

	var folders []models.Folder
	err := tx.Where("parent_id = ?", folderID).Order("created_at DESC").Find(&folders).Error
	return folders, err
}

func (s *FolderService) ListFiles(ctx context.Context, folderID, ownerID uuid.UUID) ([]models.File, error) {
	tx := s.DB.WithContext(ctx)
	if _, err := s.Access.OwnedFolder(tx, folderID, ownerID); err != nil {
		return nil, err
	}

	var files []models.File
	err := tx.Where("folder_id = ?", folderID).Order("created_at DESC, id DESC").Find(&files).Error
	return files, err
}

// Delete removes the folder and all its descendants in one transaction.
// Every visited folder first has its directly-contained files unfiled
// (folder_id set to NULL — folder deletion never destroys files), then the
// folder row itself is removed, descendants before the target. Ownership is
// checked once at the root; descendants are trusted because parent links
// never cross owners.
func (s *FolderService) Delete(ctx context.Context, folderID, ownerID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFolder(tx, folderID, ownerID); err != nil {
			return err
		}
		return deleteFolderTree(tx, folderID)
	})
	if err != nil {
		return err
	}

	logger.InfoWithUser(ownerID.String(), "folder_deleted", map[string]interface{}{
		"folder_id": folderID.String(),
	})
	return nil
}

func deleteFolderTree(tx *gorm.DB, folderID uuid.UUID) error {
	var children []models.Folder
	if err := tx.Where("parent_id = ?", folderID).Find(&children).Error; err != nil {
		return err
	}

	for _, child := range children {
		if err := deleteFolderTree(tx, child.ID); err != nil {
			return err
		}
	}

	if err := tx.Model(&models.File{}).
		Where("folder_id = ?", folderID).
		Update("folder_id", gorm.Expr("NULL")).Error; err != nil {
		return err
	}

	return tx.Delete(&models.Folder{}, "id = ?", folderID).Error
}
