package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a user question tied to a room. Answer is synthesized
// synchronously before insert and reflects the retrieval state at creation
// time; it is never recomputed.
type Question struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RoomID    uuid.UUID `json:"room_id" db:"room_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Question  string    `json:"question" db:"question"`
	Answer    *string   `json:"answer" db:"answer"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Question model
func (Question) TableName() string {
	return "questions"
}

// NewQuestion creates a new Question instance with its answer set.
func NewQuestion(roomID, userID uuid.UUID, question, answer string) *Question {
	return &Question{
		ID:        uuid.New(),
		RoomID:    roomID,
		UserID:    userID,
		Question:  question,
		Answer:    &answer,
		CreatedAt: time.Now(),
	}
}
