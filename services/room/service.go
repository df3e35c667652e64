package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/providers"
	"go.uber.org/zap"
)

const (
	// roomInfoTranscriptLimit bounds how much transcript is sent to the
	// provider when deriving a title and description.
	roomInfoTranscriptLimit = 2000

	maxTitleLength       = 100
	maxDescriptionLength = 300
)

// CreateRequest is a request to create an empty room
type CreateRequest struct {
	UserID      uuid.UUID
	Name        string
	Description string
	FolderID    *uuid.UUID
}

// UpdateRequest patches a room. Nil fields are left unchanged; MoveToRoot
// detaches the room from its folder.
type UpdateRequest struct {
	RoomID      uuid.UUID
	UserID      uuid.UUID
	Name        *string
	Description *string
	Content     *string
	FolderID    *uuid.UUID
	MoveToRoot  bool
}

// CreateFromAudioRequest creates a room seeded from a single audio recording
type CreateFromAudioRequest struct {
	UserID   uuid.UUID
	FolderID *uuid.UUID
	Audio    []byte
	MimeType string
}

// CreateFromAudioResponse reports the created room and its first chunk
type CreateFromAudioResponse struct {
	Room                *models.Room `json:"room"`
	ChunkID             uuid.UUID    `json:"chunkId"`
	TranscriptionLength int          `json:"transcriptionLength"`
}

// roomInfo is the provider's JSON reply when asked to name a room
type roomInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RoomService manages rooms and their creation from audio
type RoomService struct {
	provider   providers.Provider
	roomRepo   repositories.RoomRepository
	folderRepo repositories.FolderRepository
	chunkRepo  repositories.AudioChunkRepository
	txManager  repositories.TransactionManager
	logger     *zap.Logger
}

// NewRoomService creates a new room service
func NewRoomService(
	provider providers.Provider,
	roomRepo repositories.RoomRepository,
	folderRepo repositories.FolderRepository,
	chunkRepo repositories.AudioChunkRepository,
	txManager repositories.TransactionManager,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{
		provider:   provider,
		roomRepo:   roomRepo,
		folderRepo: folderRepo,
		chunkRepo:  chunkRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// Create creates an empty room, optionally inside one of the user's folders
func (s *RoomService) Create(ctx context.Context, req *CreateRequest) (*models.Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "room name is required", nil)
	}

	if req.FolderID != nil {
		if err := s.checkFolderOwnership(ctx, *req.FolderID, req.UserID); err != nil {
			return nil, err
		}
	}

	room := models.NewRoom(req.UserID, name, strings.TrimSpace(req.Description), req.FolderID)
	if err := s.roomRepo.Create(ctx, room); err != nil {
		s.logger.Error("failed to create room", zap.Error(err))
		return nil, services.WrapInternal("failed to create room", err)
	}

	s.logger.Info("room created",
		zap.String("room_id", room.ID.String()),
		zap.String("user_id", req.UserID.String()))

	return room, nil
}

// List returns all rooms with their question counts, oldest first
func (s *RoomService) List(ctx context.Context) ([]*models.RoomSummary, error) {
	rooms, err := s.roomRepo.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list rooms", err)
	}
	return rooms, nil
}

// Get returns one of the user's rooms
func (s *RoomService) Get(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	return s.getOwnedRoom(ctx, roomID, userID)
}

// Update patches the room's name, description, content or folder
func (s *RoomService) Update(ctx context.Context, req *UpdateRequest) (*models.Room, error) {
	room, err := s.getOwnedRoom(ctx, req.RoomID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, services.NewDomainError(services.ErrorTypeValidation, "room name cannot be empty", nil)
		}
		room.Name = name
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Content != nil {
		room.Content = *req.Content
	}
	if req.MoveToRoot {
		room.FolderID = nil
	} else if req.FolderID != nil {
		if err := s.checkFolderOwnership(ctx, *req.FolderID, req.UserID); err != nil {
			return nil, err
		}
		room.FolderID = req.FolderID
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		s.logger.Error("failed to update room", zap.Error(err))
		return nil, services.WrapInternal("failed to update room", err)
	}

	return room, nil
}

// Delete removes a room; questions and transcript chunks go with it
func (s *RoomService) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := s.getOwnedRoom(ctx, roomID, userID); err != nil {
		return err
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		s.logger.Error("failed to delete room", zap.Error(err))
		return services.WrapInternal("failed to delete room", err)
	}

	s.logger.Info("room deleted", zap.String("room_id", roomID.String()))
	return nil
}

// CreateFromAudio transcribes a recording, asks the provider for a room title
// and description, then creates the room together with its first transcript
// chunk. Room and chunk are written in one transaction so a failed embedding
// never leaves an empty room behind.
func (s *RoomService) CreateFromAudio(ctx context.Context, req *CreateFromAudioRequest) (*CreateFromAudioResponse, error) {
	if len(req.Audio) == 0 {
		return nil, services.ErrEmptyAudio
	}

	if req.FolderID != nil {
		if err := s.checkFolderOwnership(ctx, *req.FolderID, req.UserID); err != nil {
			return nil, err
		}
	}

	transcription, err := s.provider.TranscribeAudio(ctx, req.Audio, req.MimeType)
	if err != nil {
		s.logger.Error("failed to transcribe audio", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "audio transcription failed", err)
	}

	info := s.generateRoomInfo(ctx, transcription)

	values, err := s.provider.EmbedText(ctx, transcription)
	if err != nil {
		s.logger.Error("failed to embed transcription", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "embedding generation failed", err)
	}

	room := models.NewRoom(req.UserID, info.Title, info.Description, req.FolderID)
	chunk := models.NewAudioChunk(room.ID, transcription, values)

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.roomRepo.Create(txCtx, room); err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		if err := s.chunkRepo.Insert(txCtx, chunk); err != nil {
			return fmt.Errorf("failed to insert transcript chunk: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to persist room from audio", zap.Error(err))
		return nil, services.WrapInternal("failed to create room from audio", err)
	}

	s.logger.Info("room created from audio",
		zap.String("room_id", room.ID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.Int("transcription_length", len(transcription)))

	return &CreateFromAudioResponse{
		Room:                room,
		ChunkID:             chunk.ID,
		TranscriptionLength: len(transcription),
	}, nil
}

// generateRoomInfo asks the provider for a title and description. Malformed
// or missing provider output falls back to a transcript-derived pair rather
// than failing the request.
func (s *RoomService) generateRoomInfo(ctx context.Context, transcription string) roomInfo {
	raw, err := s.provider.GenerateText(ctx, buildRoomInfoPrompt(transcription))
	if err != nil {
		s.logger.Warn("room info generation failed, using fallback", zap.Error(err))
		return fallbackRoomInfo(transcription)
	}

	var info roomInfo
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &info); err != nil {
		s.logger.Warn("room info response was not valid JSON, using fallback", zap.Error(err))
		return fallbackRoomInfo(transcription)
	}
	if info.Title == "" || info.Description == "" {
		s.logger.Warn("room info response missing fields, using fallback")
		return fallbackRoomInfo(transcription)
	}

	info.Title = truncate(info.Title, maxTitleLength)
	info.Description = truncate(info.Description, maxDescriptionLength)
	return info
}

func (s *RoomService) checkFolderOwnership(ctx context.Context, folderID, userID uuid.UUID) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return services.ErrFolderNotFound
	}
	if folder.UserID != userID {
		return services.ErrFolderNotFound
	}
	return nil
}

func (s *RoomService) getOwnedRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, services.ErrRoomNotFound
	}
	if room.UserID != userID {
		return nil, services.ErrRoomNotFound
	}
	return room, nil
}

func buildRoomInfoPrompt(transcription string) string {
	return strings.TrimSpace(fmt.Sprintf(`Based on the audio transcript below, generate a title and description for a study room.

TRANSCRIPT: %s

INSTRUCTIONS:
1. Analyze the content and identify the main topic
2. Write a concise, engaging TITLE
3. Write an informative DESCRIPTION
4. Use academic but accessible language
5. Reply ONLY with JSON in this format:

{
  "title": "Room title here",
  "description": "Room description here"
}

Reply with the JSON only, no extra text:`, truncate(transcription, roomInfoTranscriptLimit)))
}

// fallbackRoomInfo derives a title and description from the transcript's
// opening words when the provider cannot supply them.
func fallbackRoomInfo(transcription string) roomInfo {
	words := strings.Fields(transcription)
	if len(words) > 10 {
		words = words[:10]
	}
	preview := strings.Join(words, " ")

	return roomInfo{
		Title:       truncate("Lesson on "+preview, maxTitleLength),
		Description: truncate("Room created automatically from recorded content. Covers: "+preview, maxDescriptionLength),
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

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
