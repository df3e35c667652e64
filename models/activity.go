package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityAlternative is one selectable answer of a quiz question.
type ActivityAlternative struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ActivityQuestion is one multiple-choice question of a generated activity.
type ActivityQuestion struct {
	ID            int                   `json:"id"`
	Question      string                `json:"question"`
	Alternatives  []ActivityAlternative `json:"alternatives"`
	CorrectAnswer string                `json:"correctAnswer"`
	Explanation   string                `json:"explanation"`
}

// Activity is an AI-generated multiple-choice quiz built from a room's
// transcripts. Questions are stored as a JSONB payload.
type Activity struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	RoomID         uuid.UUID          `json:"room_id" db:"room_id"`
	UserID         uuid.UUID          `json:"user_id" db:"user_id"`
	Title          string             `json:"title" db:"title"`
	Description    string             `json:"description" db:"description"`
	Questions      []ActivityQuestion `json:"questions" db:"questions"`
	TotalQuestions int                `json:"total_questions" db:"total_questions"`
	TimeLimit      int                `json:"time_limit" db:"time_limit"`
	IsActive       bool               `json:"is_active" db:"is_active"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Activity model
func (Activity) TableName() string {
	return "activities"
}

// NewActivity creates a new Activity instance
func NewActivity(roomID, userID uuid.UUID, title, description string, questions []ActivityQuestion, timeLimit int) *Activity {
	return &Activity{
		ID:             uuid.New(),
		RoomID:         roomID,
		UserID:         userID,
		Title:          title,
		Description:    description,
		Questions:      questions,
		TotalQuestions: len(questions),
		TimeLimit:      timeLimit,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
}

// QuestionsJSON marshals the question payload for JSONB storage.
func (a *Activity) QuestionsJSON() ([]byte, error) {
	return json.Marshal(a.Questions)
}

// ActivityResponse is one submitted attempt at an activity.
type ActivityResponse struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	ActivityID  uuid.UUID         `json:"activity_id" db:"activity_id"`
	UserName    string            `json:"user_name" db:"user_name"`
	Answers     map[string]string `json:"answers" db:"answers"`
	Score       int               `json:"score" db:"score"`
	CompletedAt time.Time         `json:"completed_at" db:"completed_at"`
}

// TableName returns the table name for the ActivityResponse model
func (ActivityResponse) TableName() string {
	return "activity_responses"
}

// NewActivityResponse creates a new ActivityResponse instance
func NewActivityResponse(activityID uuid.UUID, userName string, answers map[string]string, score int) *ActivityResponse {
	return &ActivityResponse{
		ID:          uuid.New(),
		ActivityID:  activityID,
		UserName:    userName,
		Answers:     answers,
		Score:       score,
		CompletedAt: time.Now(),
	}
}

// AnswersJSON marshals the submitted answers for JSONB storage.
func (r *ActivityResponse) AnswersJSON() ([]byte, error) {
	return json.Marshal(r.Answers)
}
