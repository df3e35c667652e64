package audio

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/providers"
	"go.uber.org/zap"
)

// IngestRequest is a request to ingest one audio recording into a room
type IngestRequest struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	Audio    []byte
	MimeType string
}

// IngestResponse reports the stored transcript chunk
type IngestResponse struct {
	ChunkID             uuid.UUID `json:"chunkId"`
	TranscriptionLength int       `json:"transcriptionLength"`
}

// AudioService turns audio recordings into stored transcript chunks
type AudioService struct {
	provider  providers.Provider
	chunkRepo repositories.AudioChunkRepository
	roomRepo  repositories.RoomRepository
	logger    *zap.Logger
}

// NewAudioService creates a new audio service
func NewAudioService(
	provider providers.Provider,
	chunkRepo repositories.AudioChunkRepository,
	roomRepo repositories.RoomRepository,
	logger *zap.Logger,
) *AudioService {
	return &AudioService{
		provider:  provider,
		chunkRepo: chunkRepo,
		roomRepo:  roomRepo,
		logger:    logger,
	}
}

// Ingest transcribes the recording, embeds the transcription and stores the
// chunk. Transcription and embedding failures abort with nothing stored.
func (s *AudioService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	if len(req.Audio) == 0 {
		return nil, services.ErrEmptyAudio
	}

	room, err := s.getOwnedRoom(ctx, req.RoomID, req.UserID)
	if err != nil {
		return nil, err
	}

	transcription, err := s.provider.TranscribeAudio(ctx, req.Audio, req.MimeType)
	if err != nil {
		s.logger.Error("failed to transcribe audio",
			zap.String("room_id", room.ID.String()),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "audio transcription failed", err)
	}

	values, err := s.provider.EmbedText(ctx, transcription)
	if err != nil {
		s.logger.Error("failed to embed transcription", zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "embedding generation failed", err)
	}

	chunk := models.NewAudioChunk(room.ID, transcription, values)
	if err := s.chunkRepo.Insert(ctx, chunk); err != nil {
		s.logger.Error("failed to insert transcript chunk", zap.Error(err))
		return nil, services.WrapInternal("failed to store transcript chunk", err)
	}

	s.logger.Info("audio ingested",
		zap.String("room_id", room.ID.String()),
		zap.String("chunk_id", chunk.ID.String()),
		zap.Int("transcription_length", len(transcription)))

	return &IngestResponse{
		ChunkID:             chunk.ID,
		TranscriptionLength: len(transcription),
	}, nil
}

// ListChunks returns the room's transcript chunks in insertion order
func (s *AudioService) ListChunks(ctx context.Context, roomID, userID uuid.UUID) ([]*models.AudioChunk, error) {
	if _, err := s.getOwnedRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	chunks, err := s.chunkRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, services.WrapInternal("failed to list transcript chunks", err)
	}

	return chunks, nil
}

func (s *AudioService) getOwnedRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, services.ErrRoomNotFound
	}
	if room.UserID != userID {
		return nil, services.ErrRoomNotFound
	}
	return room, nil
}
