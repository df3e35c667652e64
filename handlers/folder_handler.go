package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/services/folder"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// CreateFolderRequest is the payload for creating a folder
type CreateFolderRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=100"`
	Color    string     `json:"color" validate:"omitempty,hexcolor"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// UpdateFolderRequest is the payload for patching a folder
type UpdateFolderRequest struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color      *string    `json:"color,omitempty" validate:"omitempty,hexcolor"`
	ParentID   *uuid.UUID `json:"parentId,omitempty"`
	MoveToRoot bool       `json:"moveToRoot,omitempty"`
}

// FolderHandler handles folder-related HTTP requests
type FolderHandler struct {
	folders *folder.FolderService
	logger  *zap.Logger
}

// NewFolderHandler creates a new FolderHandler
func NewFolderHandler(folders *folder.FolderService, logger *zap.Logger) *FolderHandler {
	return &FolderHandler{
		folders: folders,
		logger:  logger,
	}
}

// HandleCreate handles POST /folders
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	created, err := h.folders.Create(r.Context(), &folder.CreateRequest{
		UserID:   userID,
		Name:     req.Name,
		Color:    req.Color,
		ParentID: req.ParentID,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, created)
}

// HandleList handles GET /folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folders, err := h.folders.List(r.Context(), userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, folders)
}

// HandleUpdate handles PATCH /folders/{folderId}
func (h *FolderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	folderID, ok := pathUUID(w, r, "folderId")
	if !ok {
		return
	}

	var req UpdateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	updated, err := h.folders.Update(r.Context(), &folder.UpdateRequest{
		FolderID:   folderID,
		UserID:     userID,
		Name:       req.Name,
		Color:      req.Color,
		ParentID:   req.ParentID,
		MoveToRoot: req.MoveToRoot,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, updated)
}

// HandleDelete handles DELETE /folders/{folderId}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	folderID, ok := pathUUID(w, r, "folderId")
	if !ok {
		return
	}

	if err := h.folders.Delete(r.Context(), folderID, userID); err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	utils.WriteNoContent(w)
}
