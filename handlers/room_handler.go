package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/services/room"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// maxAudioUploadSize caps multipart audio uploads at 25 MB
const maxAudioUploadSize = 25 << 20

// CreateRoomRequest is the payload for creating a room
type CreateRoomRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=500"`
	FolderID    *uuid.UUID `json:"folderId,omitempty"`
}

// UpdateRoomRequest is the payload for patching a room
type UpdateRoomRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Content     *string    `json:"content,omitempty"`
	FolderID    *uuid.UUID `json:"folderId,omitempty"`
	MoveToRoot  bool       `json:"moveToRoot,omitempty"`
}

// RoomHandler handles room-related HTTP requests
type RoomHandler struct {
	rooms  *room.RoomService
	logger *zap.Logger
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms *room.RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		logger: logger,
	}
}

// HandleCreate handles POST /rooms
func (h *RoomHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	created, err := h.rooms.Create(r.Context(), &room.CreateRequest{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		FolderID:    req.FolderID,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, created)
}

// HandleList handles GET /rooms
func (h *RoomHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, rooms)
}

// HandleGet handles GET /rooms/{roomId}
func (h *RoomHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	found, err := h.rooms.Get(r.Context(), roomID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, found)
}

// HandleUpdate handles PATCH /rooms/{roomId}
func (h *RoomHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	updated, err := h.rooms.Update(r.Context(), &room.UpdateRequest{
		RoomID:      roomID,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		FolderID:    req.FolderID,
		MoveToRoot:  req.MoveToRoot,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, updated)
}

// HandleDelete handles DELETE /rooms/{roomId}
func (h *RoomHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	if err := h.rooms.Delete(r.Context(), roomID, userID); err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	utils.WriteNoContent(w)
}

// HandleCreateFromAudio handles POST /rooms/from-audio.
// Expects a multipart form with an "audio" file part and an optional
// "folderId" field.
func (h *RoomHandler) HandleCreateFromAudio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	audio, mimeType, folderID, ok := readAudioUpload(w, r)
	if !ok {
		return
	}

	resp, err := h.rooms.CreateFromAudio(r.Context(), &room.CreateFromAudioRequest{
		UserID:   userID,
		FolderID: folderID,
		Audio:    audio,
		MimeType: mimeType,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, resp)
}

// readAudioUpload extracts the audio part of a multipart upload together
// with an optional folderId form field
func readAudioUpload(w http.ResponseWriter, r *http.Request) (audio []byte, mimeType string, folderID *uuid.UUID, ok bool) {
	if err := r.ParseMultipartForm(maxAudioUploadSize); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid multipart form", nil)
		return nil, "", nil, false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		_ = utils.WriteBadRequest(w, "Audio file is required", nil)
		return nil, "", nil, false
	}
	defer file.Close()

	audio, err = io.ReadAll(file)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Failed to read audio file", nil)
		return nil, "", nil, false
	}

	if raw := r.FormValue("folderId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid folderId", nil)
			return nil, "", nil, false
		}
		folderID = &parsed
	}

	return audio, header.Header.Get("Content-Type"), folderID, true
}
