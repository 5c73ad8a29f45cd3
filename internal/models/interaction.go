package models

import "github.com/google/uuid"

type Like struct {
	BaseModel
	FileID uuid.UUID `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_likes_pair,priority:1"`
	UserID uuid.UUID `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_likes_pair,priority:2"`
}

func (Like) TableName() string {
	return "likes"
}

type Favorite struct {
	BaseModel
	FileID uuid.UUID `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_favorites_pair,priority:1"`
	UserID uuid.UUID `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_pair,priority:2"`
}

func (Favorite) TableName() string {
	return "favorites"
}
