package models

import "github.com/google/uuid"

// File is one stored artifact. ContentHash is always present: dedup relies on
// the (owner_id, content_hash) unique index, so rows without a hash are not
// admitted in the first place.
type File struct {
	BaseModel
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	MimeType    string     `json:"mimeType" gorm:"type:varchar(255);not null"`
	Size        int64      `json:"size" gorm:"not null;default:0"`
	ContentHash string     `json:"contentHash" gorm:"type:char(64);not null;uniqueIndex:idx_files_owner_hash,priority:2"`
	StorageRef  string     `json:"-" gorm:"type:text;not null"`
	OwnerID     uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index;uniqueIndex:idx_files_owner_hash,priority:1"`
	FolderID    *uuid.UUID `json:"folderID,omitempty" gorm:"type:uuid;index"`
	ProjectName string     `json:"projectName" gorm:"type:varchar(255)"`
	ProjectDesc string     `json:"projectDesc" gorm:"type:text"`

	// All-time high-water mark for version numbers. Deleting a version
	// leaves a gap; the counter never goes down, so numbers are never
	// reissued.
	VersionCounter int `json:"-" gorm:"not null;default:0"`

	Owner  User    `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Folder *Folder `json:"-" gorm:"foreignKey:FolderID"`

	// Derived on read, never persisted.
	LikeCount     int64      `json:"likeCount" gorm:"-"`
	FavoriteCount int64      `json:"favoriteCount" gorm:"-"`
	Categories    []Category `json:"categories,omitempty" gorm:"-"`
	Tags          []Tag      `json:"tags,omitempty" gorm:"-"`
}

func (File) TableName() string {
	return "files"
}
