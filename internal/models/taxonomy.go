package models

import "github.com/google/uuid"

// Category is a classification bucket. Rows created by the auto-classifier
// carry SystemOwnerID and are visible to everyone; user-created rows belong
// to their creator.
type Category struct {
	BaseModel
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name_owner,priority:1"`
	Description string    `json:"description" gorm:"type:text"`
	OwnerID     uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;uniqueIndex:idx_categories_name_owner,priority:2"`
}

func (Category) TableName() string {
	return "categories"
}

// IsSystem reports whether the category was created by the classifier rather
// than a user.
func (c *Category) IsSystem() bool {
	return c.OwnerID == SystemOwnerID
}

type Tag struct {
	BaseModel
	Name    string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_tags_name_owner,priority:1"`
	OwnerID uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;uniqueIndex:idx_tags_name_owner,priority:2"`
}

func (Tag) TableName() string {
	return "tags"
}

// FileCategory links a file to a category. The unique pair index makes
// attach idempotent at the storage layer.
type FileCategory struct {
	BaseModel
	FileID     uuid.UUID `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_categories_pair,priority:1"`
	CategoryID uuid.UUID `json:"categoryID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_categories_pair,priority:2"`
}

func (FileCategory) TableName() string {
	return "file_categories"
}

type FileTag struct {
	BaseModel
	FileID uuid.UUID `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_tags_pair,priority:1"`
	TagID  uuid.UUID `json:"tagID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_tags_pair,priority:2"`
}

func (FileTag) TableName() string {
	return "file_tags"
}
