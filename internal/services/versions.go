package services

import (
	"context"
	"errors"

	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VersionService keeps the append-only content history of files. Snapshots
// are taken by the catalog just before it overwrites live content; versions
// are listed, restored and deleted independently of the file afterwards.
type VersionService struct {
	DB     *gorm.DB
	Blobs  storage.BlobStore
	Access *AccessService
}

func NewVersionService(db *gorm.DB, blobs storage.BlobStore, access *AccessService) *VersionService {
	return &VersionService{DB: db, Blobs: blobs, Access: access}
}

// Snapshot records the file's current content fields as its next version.
// It runs inside the caller's transaction so the snapshot and the following
// overwrite commit or roll back together. The number comes from the file's
// version counter, an all-time high-water mark — never from the surviving
// version rows, whose max drops when the newest version is deleted. The
// unique (file_id, version_number) index backs the counter up if two
// transactions ever race the increment.
func (s *VersionService) Snapshot(tx *gorm.DB, file *models.File, comment string, actorID uuid.UUID) (*models.FileVersion, error) {
	err := tx.Model(&models.File{}).Where("id = ?", file.ID).
		UpdateColumn("version_counter", gorm.Expr("version_counter + 1")).Error
	if err != nil {
		return nil, err
	}

	var next int
	err = tx.Model(&models.File{}).Where("id = ?", file.ID).
		Select("version_counter").Scan(&next).Error
	if err != nil {
		return nil, err
	}
	file.VersionCounter = next

	version := &models.FileVersion{
		FileID:        file.ID,
		VersionNumber: next,
		StorageRef:    file.StorageRef,
		Size:          file.Size,
		ContentHash:   file.ContentHash,
		CreatedBy:     actorID,
		Comment:       comment,
	}

	if err := tx.Create(version).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInvariantViolation
		}
		return nil, err
	}
	return version, nil
}

// List returns the file's versions newest-first.
func (s *VersionService) List(ctx context.Context, fileID, ownerID uuid.UUID) ([]models.FileVersion, error) {
	tx := s.DB.WithContext(ctx)
	if _, err := s.Access.OwnedFile(tx, fileID, ownerID); err != nil {
		return nil, err
	}

	var versions []models.FileVersion
	err := tx.Where("file_id = ?", fileID).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}

func (s *VersionService) Get(ctx context.Context, fileID, versionID, ownerID uuid.UUID) (*models.FileVersion, error) {
	tx := s.DB.WithContext(ctx)
	if _, err := s.Access.OwnedFile(tx, fileID, ownerID); err != nil {
		return nil, err
	}
	return s.versionOfFile(tx, fileID, versionID)
}

// Restore copies the version's content fields onto the live file. The ledger
// itself is untouched: no version is removed, renumbered, or created for the
// rollback.
func (s *VersionService) Restore(ctx context.Context, fileID, versionID, ownerID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.Access.OwnedFile(tx, fileID, ownerID)
		if err != nil {
			return err
		}

		version, err := s.versionOfFile(tx, fileID, versionID)
		if err != nil {
			return err
		}

		return tx.Model(file).Updates(map[string]interface{}{
			"storage_ref":  version.StorageRef,
			"size":         version.Size,
			"content_hash": version.ContentHash,
		}).Error
	})
	if err != nil {
		return err
	}

	logger.InfoWithUser(ownerID.String(), "file_version_restored", map[string]interface{}{
		"file_id":    fileID.String(),
		"version_id": versionID.String(),
	})
	return nil
}

// DeleteVersion removes the version row and best-effort deletes its bytes.
// The live file is never touched, even when it currently reflects this
// version's content.
func (s *VersionService) DeleteVersion(ctx context.Context, fileID, versionID, ownerID uuid.UUID) error {
	var ref string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFile(tx, fileID, ownerID); err != nil {
			return err
		}

		version, err := s.versionOfFile(tx, fileID, versionID)
		if err != nil {
			return err
		}
		ref = version.StorageRef

		return tx.Delete(&models.FileVersion{}, "id = ?", version.ID).Error
	})
	if err != nil {
		return err
	}

	if ref != "" {
		// The live file may still point at these bytes after a restore;
		// metadata stays authoritative either way.
		if err := s.Blobs.Delete(ctx, ref); err != nil {
			logger.Warn("version_blob_cleanup_failed", map[string]interface{}{
				"file_id":    fileID.String(),
				"version_id": versionID.String(),
				"ref":        ref,
			})
		}
	}
	return nil
}

func (s *VersionService) versionOfFile(tx *gorm.DB, fileID, versionID uuid.UUID) (*models.FileVersion, error) {
	var version models.FileVersion
	err := tx.First(&version, "id = ? AND file_id = ?", versionID, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &version, nil
}
