package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AccessActionView     = "view"
	AccessActionOpen     = "open"
	AccessActionDownload = "download"
)

// AccessLog records one read of a file (detail view, open link, download).
// It does NOT use BaseModel because access rows are append-only and never
// updated.
type AccessLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FileID    uuid.UUID  `json:"fileID" gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `json:"userID,omitempty" gorm:"type:uuid;index"`
	Action    string     `json:"action" gorm:"type:varchar(20);not null;index"`
	IPAddress string     `json:"ipAddress" gorm:"type:varchar(45)"`
	RequestID string     `json:"requestID,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null;index"`
}

func (a *AccessLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (AccessLog) TableName() string {
	return "access_logs"
}
