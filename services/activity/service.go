package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/providers"
	"go.uber.org/zap"
)

const defaultTimeLimit = 15

// SubmitRequest is one attempt at an activity. Answers maps the question id
// (as a string) to the chosen alternative id.
type SubmitRequest struct {
	ActivityID uuid.UUID
	UserName   string
	Answers    map[string]string
}

// QuestionResult is the per-question feedback of a graded attempt
type QuestionResult struct {
	QuestionID    int    `json:"questionId"`
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// SubmitResponse is the graded outcome of an attempt
type SubmitResponse struct {
	ID             uuid.UUID        `json:"id"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Percentage     int              `json:"percentage"`
	Results        []QuestionResult `json:"results"`
	CompletedAt    time.Time        `json:"completedAt"`
}

// generatedActivity is the provider's JSON reply when asked for a quiz
type generatedActivity struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	TimeLimit   int                       `json:"timeLimit"`
	Questions   []models.ActivityQuestion `json:"questions"`
}

// ActivityService generates quizzes from room transcripts and grades attempts
type ActivityService struct {
	provider     providers.Provider
	activityRepo repositories.ActivityRepository
	chunkRepo    repositories.AudioChunkRepository
	roomRepo     repositories.RoomRepository
	logger       *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(
	provider providers.Provider,
	activityRepo repositories.ActivityRepository,
	chunkRepo repositories.AudioChunkRepository,
	roomRepo repositories.RoomRepository,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		provider:     provider,
		activityRepo: activityRepo,
		chunkRepo:    chunkRepo,
		roomRepo:     roomRepo,
		logger:       logger,
	}
}

// Generate builds a multiple-choice quiz from the room's accumulated
// transcripts. A room without transcripts is rejected. Malformed provider
// output falls back to a fixed single-question activity rather than failing.
func (s *ActivityService) Generate(ctx context.Context, roomID, userID uuid.UUID) (*models.Activity, error) {
	room, err := s.getOwnedRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkRepo.GetByRoomID(ctx, room.ID)
	if err != nil {
		return nil, services.WrapInternal("failed to load transcripts", err)
	}
	if len(chunks) == 0 {
		return nil, services.ErrNoTranscriptions
	}

	transcriptions := make([]string, len(chunks))
	for i, c := range chunks {
		transcriptions[i] = c.Transcription
	}
	roomContext := strings.Join(transcriptions, "\n\n")

	generated := s.generate(ctx, roomContext)

	activity := models.NewActivity(room.ID, userID, generated.Title, generated.Description, generated.Questions, generated.TimeLimit)
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Error("failed to persist activity", zap.Error(err))
		return nil, services.WrapInternal("failed to create activity", err)
	}

	s.logger.Info("activity generated",
		zap.String("activity_id", activity.ID.String()),
		zap.String("room_id", room.ID.String()),
		zap.Int("questions", activity.TotalQuestions))

	return activity, nil
}

// ListByRoom returns the room's active activities, newest first
func (s *ActivityService) ListByRoom(ctx context.Context, roomID, userID uuid.UUID) ([]*models.Activity, error) {
	if _, err := s.getOwnedRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, services.WrapInternal("failed to list activities", err)
	}

	return activities, nil
}

// Get returns one of the user's activities
func (s *ActivityService) Get(ctx context.Context, activityID, userID uuid.UUID) (*models.Activity, error) {
	return s.getOwnedActivity(ctx, activityID, userID)
}

// Delete removes an activity together with its submitted responses
func (s *ActivityService) Delete(ctx context.Context, activityID, userID uuid.UUID) error {
	if _, err := s.getOwnedActivity(ctx, activityID, userID); err != nil {
		return err
	}

	if err := s.activityRepo.Delete(ctx, activityID); err != nil {
		s.logger.Error("failed to delete activity", zap.Error(err))
		return services.WrapInternal("failed to delete activity", err)
	}

	s.logger.Info("activity deleted", zap.String("activity_id", activityID.String()))
	return nil
}

// Submit grades an attempt against the stored correct answers and persists
// the response. Unanswered questions count as wrong.
func (s *ActivityService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "user name is required", nil)
	}

	activity, err := s.activityRepo.GetByID(ctx, req.ActivityID)
	if err != nil {
		return nil, services.ErrActivityNotFound
	}

	score := 0
	results := make([]QuestionResult, 0, len(activity.Questions))
	for _, q := range activity.Questions {
		userAnswer, answered := req.Answers[strconv.Itoa(q.ID)]
		isCorrect := answered && userAnswer == q.CorrectAnswer
		if isCorrect {
			score++
		}
		if !answered {
			userAnswer = "Not answered"
		}

		results = append(results, QuestionResult{
			QuestionID:    q.ID,
			Question:      q.Question,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		})
	}

	response := models.NewActivityResponse(activity.ID, userName, req.Answers, score)
	if err := s.activityRepo.InsertResponse(ctx, response); err != nil {
		s.logger.Error("failed to persist activity response", zap.Error(err))
		return nil, services.WrapInternal("failed to save response", err)
	}

	percentage := 0
	if len(activity.Questions) > 0 {
		percentage = int(math.Round(float64(score) / float64(len(activity.Questions)) * 100))
	}

	s.logger.Info("activity submitted",
		zap.String("activity_id", activity.ID.String()),
		zap.Int("score", score),
		zap.Int("total", len(activity.Questions)))

	return &SubmitResponse{
		ID:             response.ID,
		Score:          score,
		TotalQuestions: len(activity.Questions),
		Percentage:     percentage,
		Results:        results,
		CompletedAt:    response.CompletedAt,
	}, nil
}

// generate asks the provider for a quiz and falls back to a fixed activity
// when its output cannot be used.
func (s *ActivityService) generate(ctx context.Context, roomContext string) generatedActivity {
	raw, err := s.provider.GenerateText(ctx, buildActivityPrompt(roomContext))
	if err != nil {
		s.logger.Warn("activity generation failed, using fallback", zap.Error(err))
		return fallbackActivity()
	}

	var generated generatedActivity
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &generated); err != nil {
		s.logger.Warn("activity response was not valid JSON, using fallback", zap.Error(err))
		return fallbackActivity()
	}
	if generated.Title == "" || len(generated.Questions) == 0 {
		s.logger.Warn("activity response missing fields, using fallback")
		return fallbackActivity()
	}
	if generated.TimeLimit <= 0 {
		generated.TimeLimit = defaultTimeLimit
	}

	return generated
}

func (s *ActivityService) getOwnedRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, services.ErrRoomNotFound
	}
	if room.UserID != userID {
		return nil, services.ErrRoomNotFound
	}
	return room, nil
}

func (s *ActivityService) getOwnedActivity(ctx context.Context, activityID, userID uuid.UUID) (*models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, services.ErrActivityNotFound
	}
	if activity.UserID != userID {
		return nil, services.ErrActivityNotFound
	}
	return activity, nil
}

func buildActivityPrompt(roomContext string) string {
	return strings.TrimSpace(fmt.Sprintf(`You are a teacher who creates educational activities from lesson content.

LESSON CONTENT: %s

TASK: Create a multiple-choice activity based on the content above.

INSTRUCTIONS:
1. Analyze the content and identify the main concepts
2. Create 5 multiple-choice questions
3. Each question has 4 alternatives (A, B, C, D)
4. Exactly ONE alternative is correct
5. Vary the questions: conceptual, practical and applied
6. Use clear, direct language
7. Reply ONLY with JSON in this format:

{
  "title": "Activity name",
  "description": "Short activity description",
  "timeLimit": 15,
  "questions": [
    {
      "id": 1,
      "question": "Question text here?",
      "alternatives": [
        { "id": "A", "text": "Alternative A" },
        { "id": "B", "text": "Alternative B" },
        { "id": "C", "text": "Alternative C" },
        { "id": "D", "text": "Alternative D" }
      ],
      "correctAnswer": "A",
      "explanation": "Why this answer is correct"
    }
  ]
}

Reply with valid JSON only:`, roomContext))
}

// fallbackActivity is stored when the provider cannot supply a usable quiz
func fallbackActivity() generatedActivity {
	return generatedActivity{
		Title:       "Activity on the lesson content",
		Description: "Test your knowledge of the concepts presented",
		TimeLimit:   defaultTimeLimit,
		Questions: []models.ActivityQuestion{
			{
				ID:       1,
				Question: "Based on the content presented, what is the main concept discussed?",
				Alternatives: []models.ActivityAlternative{
					{ID: "A", Text: "A concept related to the topic"},
					{ID: "B", Text: "Another important concept"},
					{ID: "C", Text: "A secondary concept"},
					{ID: "D", Text: "An unrelated concept"},
				},
				CorrectAnswer: "A",
				Explanation:   "This is the correct answer based on the content presented.",
			},
		},
	}
}

// cleanJSONResponse strips markdown code fences the provider sometimes wraps
// JSON replies in.
func cleanJSONResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
