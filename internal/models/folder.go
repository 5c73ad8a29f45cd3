package models

import "github.com/google/uuid"

// Folder is a named container owned by exactly one user. ParentID, when set,
// always references a folder of the same owner; folders are never reparented
// after creation, which is what keeps the tree acyclic.
type Folder struct {
	BaseModel
	OwnerID  uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`
	Name     string     `json:"name" gorm:"type:varchar(255);not null"`
	Purpose  string     `json:"purpose" gorm:"type:text;not null"`
	ParentID *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`

	Parent   *Folder  `json:"-" gorm:"foreignKey:ParentID"`
	Children []Folder `json:"-" gorm:"foreignKey:ParentID"`
	Files    []File   `json:"-" gorm:"foreignKey:FolderID"`
}

func (Folder) TableName() string {
	return "folders"
}
