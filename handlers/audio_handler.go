package handlers

import (
	"net/http"
	"time"

	"github.com/roomnotes/backend/services/audio"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// AudioChunkView is the list representation of a stored transcript
type AudioChunkView struct {
	ID            string `json:"id"`
	Transcription string `json:"transcription"`
	CreatedAt     string `json:"createdAt"`
}

// AudioHandler handles audio upload and transcript listing
type AudioHandler struct {
	audioService *audio.AudioService
	logger       *zap.Logger
}

// NewAudioHandler creates a new AudioHandler
func NewAudioHandler(audioService *audio.AudioService, logger *zap.Logger) *AudioHandler {
	return &AudioHandler{
		audioService: audioService,
		logger:       logger,
	}
}

// HandleUpload handles POST /rooms/{roomId}/audio.
// Expects a multipart form with an "audio" file part.
func (h *AudioHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	audioBytes, mimeType, _, ok := readAudioUpload(w, r)
	if !ok {
		return
	}

	resp, err := h.audioService.Ingest(r.Context(), &audio.IngestRequest{
		RoomID:   roomID,
		UserID:   userID,
		Audio:    audioBytes,
		MimeType: mimeType,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, resp)
}

// HandleListChunks handles GET /rooms/{roomId}/audio-chunks
func (h *AudioHandler) HandleListChunks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	chunks, err := h.audioService.ListChunks(r.Context(), roomID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	views := make([]AudioChunkView, len(chunks))
	for i, c := range chunks {
		views[i] = AudioChunkView{
			ID:            c.ID.String(),
			Transcription: c.Transcription,
			CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	_ = utils.WriteOK(w, views)
}
