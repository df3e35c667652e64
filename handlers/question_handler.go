package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/services/question"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// AskQuestionRequest is the payload for asking a question about a room
type AskQuestionRequest struct {
	RoomID   uuid.UUID `json:"roomId" validate:"required"`
	Question string    `json:"question" validate:"required,min=1,max=2000"`
}

// QuestionHandler handles question-related HTTP requests
type QuestionHandler struct {
	questions *question.QuestionService
	logger    *zap.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(questions *question.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		logger:    logger,
	}
}

// HandleAsk handles POST /questions
func (h *QuestionHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req AskQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	resp, err := h.questions.Ask(r.Context(), &question.AskRequest{
		RoomID:   req.RoomID,
		UserID:   userID,
		Question: req.Question,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, resp)
}

// HandleListByRoom handles GET /rooms/{roomId}/questions
func (h *QuestionHandler) HandleListByRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	questions, err := h.questions.ListByRoom(r.Context(), roomID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, questions)
}
