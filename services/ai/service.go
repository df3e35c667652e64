package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/providers"
	"go.uber.org/zap"
)

// ChatMessage is one turn of a tutor conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest asks the tutor a question over the room's transcripts
type ChatRequest struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	Question string
	History  []ChatMessage
}

// ChatResponse carries the tutor's answer and whether lesson context existed
type ChatResponse struct {
	Answer     string `json:"answer"`
	HasContext bool   `json:"hasContext"`
}

// ContinueTextRequest asks for a continuation of the user's note text
type ContinueTextRequest struct {
	RoomID uuid.UUID
	UserID uuid.UUID
	Text   string
}

// ContinueTextResponse carries the suggested continuation
type ContinueTextResponse struct {
	Continuation string `json:"continuation"`
	HasContext   bool   `json:"hasContext"`
}

// AIService backs the tutor chat, text continuation and summary endpoints
type AIService struct {
	provider  providers.Provider
	chunkRepo repositories.AudioChunkRepository
	roomRepo  repositories.RoomRepository
	logger    *zap.Logger
}

// NewAIService creates a new AI assist service
func NewAIService(
	provider providers.Provider,
	chunkRepo repositories.AudioChunkRepository,
	roomRepo repositories.RoomRepository,
	logger *zap.Logger,
) *AIService {
	return &AIService{
		provider:  provider,
		chunkRepo: chunkRepo,
		roomRepo:  roomRepo,
		logger:    logger,
	}
}

// Chat answers a student question using the room's full transcript context
// plus the running conversation. Unlike the retrieval pipeline it always
// calls the provider, even when the room has no transcripts yet.
func (s *AIService) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, services.ErrEmptyQuestion
	}

	audioContext, err := s.roomContext(ctx, req.RoomID, req.UserID)
	if err != nil {
		return nil, err
	}

	answer, err := s.provider.GenerateText(ctx, buildChatPrompt(audioContext, req.History, question))
	if err != nil {
		s.logger.Error("failed to generate chat answer", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "chat generation failed", err)
	}

	return &ChatResponse{
		Answer:     answer,
		HasContext: audioContext != "",
	}, nil
}

// ContinueText suggests a short continuation for the note text being written,
// grounded in the room's transcripts when any exist.
func (s *AIService) ContinueText(ctx context.Context, req *ContinueTextRequest) (*ContinueTextResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "text is required", nil)
	}

	audioContext, err := s.roomContext(ctx, req.RoomID, req.UserID)
	if err != nil {
		return nil, err
	}

	continuation, err := s.provider.GenerateText(ctx, buildContinuationPrompt(audioContext, text))
	if err != nil {
		s.logger.Error("failed to generate continuation", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "text continuation failed", err)
	}

	return &ContinueTextResponse{
		Continuation: continuation,
		HasContext:   audioContext != "",
	}, nil
}

// Summarize produces a structured markdown summary of the supplied content
func (s *AIService) Summarize(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", services.NewDomainError(services.ErrorTypeValidation, "content is required", nil)
	}

	summary, err := s.provider.GenerateText(ctx, buildSummaryPrompt(content))
	if err != nil {
		s.logger.Error("failed to generate summary", zap.Error(err))
		return "", services.NewDomainError(services.ErrorTypeExternal, "summary generation failed", err)
	}

	return summary, nil
}

// roomContext concatenates all non-empty transcripts of the room, oldest
// first, after checking ownership.
func (s *AIService) roomContext(ctx context.Context, roomID, userID uuid.UUID) (string, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return "", services.ErrRoomNotFound
	}
	if room.UserID != userID {
		return "", services.ErrRoomNotFound
	}

	chunks, err := s.chunkRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return "", services.WrapInternal("failed to load transcripts", err)
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c.Transcription); t != "" {
			parts = append(parts, t)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func buildChatPrompt(audioContext string, history []ChatMessage, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a virtual teaching assistant. You have access to the lesson content through the following audio transcripts:\n\n%s\n\n", audioContext)

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range history {
			speaker := "Teacher"
			if msg.Role == "user" {
				speaker = "Student"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Student question: %s\n\nAnswer clearly and educationally, based on the lesson content. If the question is unrelated to the content, gently redirect the student to the lesson topic.", question)

	return b.String()
}

func buildContinuationPrompt(audioContext, text string) string {
	if audioContext == "" {
		return fmt.Sprintf("Current text: %s\n\nSuggest a natural, concise continuation (1-3 sentences) for this text.", text)
	}

	return fmt.Sprintf("Study room context (audio transcripts):\n%s\n\nThe user's current text:\n%s\n\nBased on the room context and what the user is writing, suggest a natural, relevant continuation. Keep it concise (1-3 sentences) and make it fit seamlessly after the current text.", audioContext, text)
}

func buildSummaryPrompt(content string) string {
	return strings.TrimSpace(fmt.Sprintf(`You are an expert at writing clear, structured study summaries.

CONTENT TO SUMMARIZE:
%s

INSTRUCTIONS:
1. Analyze all the content provided
2. Identify the main points and key concepts
3. Produce a structured, organized summary
4. Use bullet points for readability
5. Keep the language clear and direct
6. Length: between 200 and 400 words

Expected format:
# Summary

## Key Concepts
- Concept 1: short explanation
- Concept 2: short explanation

## Important Points
- Relevant point 1
- Relevant point 2

## Conclusion
Final synthesis of the content

Write the summary:`, content))
}
