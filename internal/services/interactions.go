package services

import (
	"context"
	"errors"

	"github.com/filedepot/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InteractionService handles the like/favorite toggles. Counts are always
// derived from row cardinality, never stored.
type InteractionService struct {
	DB *gorm.DB
}

func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{DB: db}
}

type InteractionStatus struct {
	LikeCount     int64 `json:"likeCount"`
	FavoriteCount int64 `json:"favoriteCount"`
	Liked         bool  `json:"liked"`
	Favorited     bool  `json:"favorited"`
}

// ToggleLike adds the user's like when absent and removes it when present,
// returning the new state and the derived count.
func (s *InteractionService) ToggleLike(ctx context.Context, fileID, userID uuid.UUID) (bool, int64, error) {
	return s.toggle(ctx, fileID, userID, &models.Like{},
		func() interface{} { return &models.Like{FileID: fileID, UserID: userID} })
}

func (s *InteractionService) ToggleFavorite(ctx context.Context, fileID, userID uuid.UUID) (bool, int64, error) {
	return s.toggle(ctx, fileID, userID, &models.Favorite{},
		func() interface{} { return &models.Favorite{FileID: fileID, UserID: userID} })
}

func (s *InteractionService) toggle(ctx context.Context, fileID, userID uuid.UUID, model interface{}, newRow func() interface{}) (bool, int64, error) {
	var active bool
	var count int64

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fileCount int64
		if err := tx.Model(&models.File{}).Where("id = ?", fileID).Count(&fileCount).Error; err != nil {
			return err
		}
		if fileCount == 0 {
			return ErrNotFound
		}

		var existing int64
		if err := tx.Model(model).
			Where("file_id = ? AND user_id = ?", fileID, userID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			if err := tx.Where("file_id = ? AND user_id = ?", fileID, userID).
				Delete(model).Error; err != nil {
				return err
			}
			active = false
		} else {
			if err := tx.Create(newRow()).Error; err != nil {
				// A concurrent toggle won the insert; the pair index
				// keeps at most one row either way.
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
			}
			active = true
		}

		return tx.Model(model).Where("file_id = ?", fileID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return active, count, nil
}

// Status reports counts plus the requesting user's own like/favorite flags.
// userID may be nil for anonymous viewers.
func (s *InteractionService) Status(ctx context.Context, fileID uuid.UUID, userID *uuid.UUID) (*InteractionStatus, error) {
	tx := s.DB.WithContext(ctx)

	var fileCount int64
	if err := tx.Model(&models.File{}).Where("id = ?", fileID).Count(&fileCount).Error; err != nil {
		return nil, err
	}
	if fileCount == 0 {
		return nil, ErrNotFound
	}

	status := &InteractionStatus{}
	if err := tx.Model(&models.Like{}).Where("file_id = ?", fileID).Count(&status.LikeCount).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Favorite{}).Where("file_id = ?", fileID).Count(&status.FavoriteCount).Error; err != nil {
		return nil, err
	}

	if userID != nil {
		var n int64
		if err := tx.Model(&models.Like{}).
			Where("file_id = ? AND user_id = ?", fileID, userID).Count(&n).Error; err != nil {
			return nil, err
		}
		status.Liked = n > 0

		if err := tx.Model(&models.Favorite{}).
			Where("file_id = ? AND user_id = ?", fileID, userID).Count(&n).Error; err != nil {
			return nil, err
		}
		status.Favorited = n > 0
	}

	return status, nil
}
