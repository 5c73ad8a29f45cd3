package services

import (
	"context"
	"errors"

	"github.com/filedepot/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxonomyService manages categories, tags and their many-to-many links to
// files. Attach is insert-or-ignore, detach of a missing link is a no-op.
type TaxonomyService struct {
	DB     *gorm.DB
	Access *AccessService
}

func NewTaxonomyService(db *gorm.DB, access *AccessService) *TaxonomyService {
	return &TaxonomyService{DB: db, Access: access}
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Category, error) {
	category := &models.Category{Name: name, Description: description, OwnerID: ownerID}
	if err := s.DB.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return category, nil
}

// ListCategories returns the user's own categories plus the shared system
// ones created by the classifier.
func (s *TaxonomyService) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := s.DB.WithContext(ctx).
		Where("owner_id IN ?", []uuid.UUID{ownerID, models.SystemOwnerID}).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (s *TaxonomyService) CreateTag(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error) {
	tag := &models.Tag{Name: name, OwnerID: ownerID}
	if err := s.DB.WithContext(ctx).Create(tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return tag, nil
}

func (s *TaxonomyService) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

// AttachCategory links a category to a file the requester owns. The category
// must belong to the requester or be a system row; anything else reads as
// ErrNotFound so foreign categories are not disclosed.
func (s *TaxonomyService) AttachCategory(ctx context.Context, fileID, categoryID, requesterID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFile(tx, fileID, requesterID); err != nil {
			return err
		}
		if _, err := s.usableCategory(tx, categoryID, requesterID); err != nil {
			return err
		}
		return attachCategoryRow(tx, fileID, categoryID)
	})
}

func (s *TaxonomyService) DetachCategory(ctx context.Context, fileID, categoryID, requesterID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFile(tx, fileID, requesterID); err != nil {
			return err
		}
		if _, err := s.usableCategory(tx, categoryID, requesterID); err != nil {
			return err
		}
		// Absent link: Delete affects zero rows, which is fine.
		return tx.Where("file_id = ? AND category_id = ?", fileID, categoryID).
			Delete(&models.FileCategory{}).Error
	})
}

func (s *TaxonomyService) AttachTag(ctx context.Context, fileID, tagID, requesterID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFile(tx, fileID, requesterID); err != nil {
			return err
		}
		if _, err := s.usableTag(tx, tagID, requesterID); err != nil {
			return err
		}
		link := models.FileTag{FileID: fileID, TagID: tagID}
		return tx.Where("file_id = ? AND tag_id = ?", fileID, tagID).
			FirstOrCreate(&link).Error
	})
}

func (s *TaxonomyService) DetachTag(ctx context.Context, fileID, tagID, requesterID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Access.OwnedFile(tx, fileID, requesterID); err != nil {
			return err
		}
		if _, err := s.usableTag(tx, tagID, requesterID); err != nil {
			return err
		}
		return tx.Where("file_id = ? AND tag_id = ?", fileID, tagID).
			Delete(&models.FileTag{}).Error
	})
}

func (s *TaxonomyService) CategoriesFor(ctx context.Context, fileID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := s.DB.WithContext(ctx).
		Joins("JOIN file_categories ON file_categories.category_id = categories.id").
		Where("file_categories.file_id = ?", fileID).
		Find(&categories).Error
	return categories, err
}

func (s *TaxonomyService) TagsFor(ctx context.Context, fileID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.DB.WithContext(ctx).
		Joins("JOIN file_tags ON file_tags.tag_id = tags.id").
		Where("file_tags.file_id = ?", fileID).
		Find(&tags).Error
	return tags, err
}

func (s *TaxonomyService) usableCategory(tx *gorm.DB, categoryID, requesterID uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := tx.First(&category, "id = ?", categoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !category.IsSystem() && category.OwnerID != requesterID {
		return nil, ErrNotFound
	}
	return &category, nil
}

func (s *TaxonomyService) usableTag(tx *gorm.DB, tagID, requesterID uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	err := tx.First(&tag, "id = ?", tagID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tag.OwnerID != requesterID {
		return nil, ErrNotFound
	}
	return &tag, nil
}

// ensureSystemCategory lazily creates the shared category row the classifier
// picked, so category rows exist on first use.
func ensureSystemCategory(tx *gorm.DB, name string) (*models.Category, error) {
	var category models.Category
	err := tx.First(&category, "name = ? AND owner_id = ?", name, models.SystemOwnerID).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{
		Name:        name,
		Description: "Created by the auto-classifier",
		OwnerID:     models.SystemOwnerID,
	}
	if err := tx.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent register; the winner's row
			// serves.
			var existing models.Category
			if lookupErr := tx.First(&existing, "name = ? AND owner_id = ?", name, models.SystemOwnerID).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &category, nil
}

// attachCategoryRow inserts the link unless it already exists.
func attachCategoryRow(tx *gorm.DB, fileID, categoryID uuid.UUID) error {
	link := models.FileCategory{FileID: fileID, CategoryID: categoryID}
	return tx.Where("file_id = ? AND category_id = ?", fileID, categoryID).
		FirstOrCreate(&link).Error
}
