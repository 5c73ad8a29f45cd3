package models

import "github.com/google/uuid"

// FileVersion is an immutable snapshot of a file's content taken just before
// a replace overwrote it. Version numbers are strictly increasing per file
// and never reused; the unique pair index backs that up.
type FileVersion struct {
	BaseModel
	FileID        uuid.UUID `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_versions_number,priority:1"`
	VersionNumber int       `json:"versionNumber" gorm:"not null;uniqueIndex:idx_file_versions_number,priority:2"`
	StorageRef    string    `json:"-" gorm:"type:text;not null"`
	Size          int64     `json:"size" gorm:"not null"`
	ContentHash   string    `json:"contentHash" gorm:"type:char(64);not null"`
	CreatedBy     uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	Comment       string    `json:"comment" gorm:"type:text"`
}

func (FileVersion) TableName() string {
	return "file_versions"
}
