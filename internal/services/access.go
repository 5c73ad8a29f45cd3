package services

import (
	"errors"

	"github.com/filedepot/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessService is the single place ownership is checked. Entry points load
// the resource scoped to the requester; a missing row and a row owned by
// someone else both come back as ErrNotFound.
type AccessService struct{}

func NewAccessService() *AccessService {
	return &AccessService{}
}

func (a *AccessService) OwnedFile(tx *gorm.DB, fileID, ownerID uuid.UUID) (*models.File, error) {
	var file models.File
	err := tx.First(&file, "id = ? AND owner_id = ?", fileID, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (a *AccessService) OwnedFolder(tx *gorm.DB, folderID, ownerID uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	err := tx.First(&folder, "id = ? AND owner_id = ?", folderID, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}
