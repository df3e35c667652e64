package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/services/ai"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// ChatRequest is the payload for the tutor chat endpoint
type ChatRequest struct {
	RoomID   uuid.UUID        `json:"roomId" validate:"required"`
	Question string           `json:"question" validate:"required,min=1"`
	History  []ai.ChatMessage `json:"conversationHistory" validate:"omitempty,dive"`
}

// ContinueTextRequest is the payload for the text continuation endpoint
type ContinueTextRequest struct {
	RoomID uuid.UUID `json:"roomId" validate:"required"`
	Text   string    `json:"text" validate:"required,min=1"`
}

// SummaryRequest is the payload for the summary endpoint
type SummaryRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// SummaryResponse carries the generated summary
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// AIHandler handles the AI assist HTTP requests
type AIHandler struct {
	aiService *ai.AIService
	logger    *zap.Logger
}

// NewAIHandler creates a new AIHandler
func NewAIHandler(aiService *ai.AIService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		aiService: aiService,
		logger:    logger,
	}
}

// HandleChat handles POST /ai/chat
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	resp, err := h.aiService.Chat(r.Context(), &ai.ChatRequest{
		RoomID:   req.RoomID,
		UserID:   userID,
		Question: req.Question,
		History:  req.History,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, resp)
}

// HandleContinueText handles POST /ai/continue-text
func (h *AIHandler) HandleContinueText(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ContinueTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	resp, err := h.aiService.ContinueText(r.Context(), &ai.ContinueTextRequest{
		RoomID: req.RoomID,
		UserID: userID,
		Text:   req.Text,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, resp)
}

// HandleSummary handles POST /ai/summary
func (h *AIHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req SummaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	summary, err := h.aiService.Summarize(r.Context(), req.Content)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, SummaryResponse{Summary: summary})
}
