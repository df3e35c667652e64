package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultFolderColor is assigned when a folder is created without a color.
const DefaultFolderColor = "#3B82F6"

// Folder groups rooms (notes) for a user. Folders may be nested via ParentID.
type Folder struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	Color     string     `json:"color" db:"color"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Folder model
func (Folder) TableName() string {
	return "folders"
}

// NewFolder creates a new Folder instance
func NewFolder(userID uuid.UUID, name, color string, parentID *uuid.UUID) *Folder {
	if color == "" {
		color = DefaultFolderColor
	}
	now := time.Now()
	return &Folder{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
