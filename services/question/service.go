package question

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/providers"
	"github.com/roomnotes/backend/services/retrieval"
	"go.uber.org/zap"
)

// InsufficientContextAnswer is persisted verbatim when a room has no
// transcript chunks. The provider is never called in that case.
const InsufficientContextAnswer = "Sorry, there is not enough audio content in this room to answer your question. Please upload some audio first."

// Retriever finds the transcript chunks most relevant to a query embedding
type Retriever interface {
	Retrieve(ctx context.Context, roomID uuid.UUID, embedding pgvector.Vector) (*retrieval.Result, error)
}

// AskRequest is a request to answer a question against a room's transcripts
type AskRequest struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	Question string
}

// AskResponse is the persisted outcome of an answered question
type AskResponse struct {
	QuestionID uuid.UUID `json:"questionId"`
	Answer     string    `json:"answer"`
}

// QuestionService orchestrates the question answering pipeline
type QuestionService struct {
	provider     providers.Provider
	retriever    Retriever
	questionRepo repositories.QuestionRepository
	roomRepo     repositories.RoomRepository
	logger       *zap.Logger
}

// NewQuestionService creates a new question service
func NewQuestionService(
	provider providers.Provider,
	retriever Retriever,
	questionRepo repositories.QuestionRepository,
	roomRepo repositories.RoomRepository,
	logger *zap.Logger,
) *QuestionService {
	return &QuestionService{
		provider:     provider,
		retriever:    retriever,
		questionRepo: questionRepo,
		roomRepo:     roomRepo,
		logger:       logger,
	}
}

// Ask answers a question from the room's transcripts and persists the result.
// The pipeline is embed, retrieve, synthesize, persist. Embedding, generation
// and persistence failures abort the request with nothing stored. A room with
// no transcripts gets a fixed answer without calling the provider.
func (s *QuestionService) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, services.ErrEmptyQuestion
	}

	room, err := s.getOwnedRoom(ctx, req.RoomID, req.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("answering question",
		zap.String("room_id", room.ID.String()),
		zap.String("user_id", req.UserID.String()))

	values, err := s.provider.EmbedText(ctx, question)
	if err != nil {
		s.logger.Error("failed to embed question", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "embedding generation failed", err)
	}

	result, err := s.retriever.Retrieve(ctx, room.ID, pgvector.NewVector(values))
	if err != nil {
		return nil, services.WrapInternal("retrieval failed", err)
	}

	var answer string
	if result.Found {
		answer, err = s.synthesize(ctx, question, result.Chunks)
		if err != nil {
			return nil, err
		}
	} else {
		answer = InsufficientContextAnswer
	}

	record := models.NewQuestion(room.ID, req.UserID, question, answer)
	if err := s.questionRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist question", zap.Error(err))
		return nil, services.WrapInternal("failed to persist question", err)
	}

	s.logger.Info("question answered",
		zap.String("question_id", record.ID.String()),
		zap.Bool("context_found", result.Found),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.Float64("threshold", result.ThresholdUsed))

	return &AskResponse{
		QuestionID: record.ID,
		Answer:     answer,
	}, nil
}

// ListByRoom returns the room's questions, newest first
func (s *QuestionService) ListByRoom(ctx context.Context, roomID, userID uuid.UUID) ([]*models.Question, error) {
	if _, err := s.getOwnedRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, services.WrapInternal("failed to list questions", err)
	}

	return questions, nil
}

// synthesize generates a grounded answer from the retrieved transcripts
func (s *QuestionService) synthesize(ctx context.Context, question string, chunks []models.ScoredChunk) (string, error) {
	transcriptions := make([]string, len(chunks))
	for i, c := range chunks {
		transcriptions[i] = c.Transcription
	}

	answer, err := s.provider.GenerateText(ctx, buildAnswerPrompt(question, transcriptions))
	if err != nil {
		s.logger.Error("failed to generate answer", zap.Error(err))
		return "", services.NewDomainError(services.ErrorTypeExternal, "answer generation failed", err)
	}

	return answer, nil
}

func (s *QuestionService) getOwnedRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, services.ErrRoomNotFound
	}
	if room.UserID != userID {
		return nil, services.ErrRoomNotFound
	}
	return room, nil
}

func buildAnswerPrompt(question string, transcriptions []string) string {
	context := strings.Join(transcriptions, "\n\n")

	return strings.TrimSpace(fmt.Sprintf(`You are a study assistant answering questions about recorded lessons.

LESSON TRANSCRIPTS:
%s

QUESTION: %s

INSTRUCTIONS:
1. Answer using only the information in the transcripts above
2. If the transcripts do not fully cover the question, say what is missing
3. Be clear, direct and objective
4. Do not invent facts that are not in the transcripts

Answer:`, context, question))
}
