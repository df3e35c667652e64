package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a study space: a note with audio transcripts, questions and
// activities attached. FolderID is nil for rooms at the root level.
type Room struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty" db:"folder_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Content     string     `json:"content" db:"content"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Room model
func (Room) TableName() string {
	return "rooms"
}

// NewRoom creates a new Room instance
func NewRoom(userID uuid.UUID, name, description string, folderID *uuid.UUID) *Room {
	now := time.Now()
	return &Room{
		ID:          uuid.New(),
		UserID:      userID,
		FolderID:    folderID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RoomSummary is the list-view projection of a room with its question count.
type RoomSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	QuestionsCount int       `json:"questions_count"`
	CreatedAt      time.Time `json:"created_at"`
}
