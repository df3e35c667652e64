package folder

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/services"
	"go.uber.org/zap"
)

// CreateRequest is a request to create a folder
type CreateRequest struct {
	UserID   uuid.UUID
	Name     string
	Color    string
	ParentID *uuid.UUID
}

// UpdateRequest patches a folder. Nil fields are left unchanged; MoveToRoot
// detaches the folder from its parent.
type UpdateRequest struct {
	FolderID   uuid.UUID
	UserID     uuid.UUID
	Name       *string
	Color      *string
	ParentID   *uuid.UUID
	MoveToRoot bool
}

// FolderService manages the user's folder tree
type FolderService struct {
	folderRepo repositories.FolderRepository
	logger     *zap.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(folderRepo repositories.FolderRepository, logger *zap.Logger) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		logger:     logger,
	}
}

// Create creates a folder, optionally nested under one of the user's folders.
// An empty color gets the default.
func (s *FolderService) Create(ctx context.Context, req *CreateRequest) (*models.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "folder name is required", nil)
	}

	if req.ParentID != nil {
		if _, err := s.getOwnedFolder(ctx, *req.ParentID, req.UserID); err != nil {
			return nil, err
		}
	}

	folder := models.NewFolder(req.UserID, name, req.Color, req.ParentID)
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		s.logger.Error("failed to create folder", zap.Error(err))
		return nil, services.WrapInternal("failed to create folder", err)
	}

	s.logger.Info("folder created",
		zap.String("folder_id", folder.ID.String()),
		zap.String("user_id", req.UserID.String()))

	return folder, nil
}

// List returns all of the user's folders
func (s *FolderService) List(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	folders, err := s.folderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, services.WrapInternal("failed to list folders", err)
	}
	return folders, nil
}

// Get returns one of the user's folders
func (s *FolderService) Get(ctx context.Context, folderID, userID uuid.UUID) (*models.Folder, error) {
	return s.getOwnedFolder(ctx, folderID, userID)
}

// Update patches the folder's name, color or parent
func (s *FolderService) Update(ctx context.Context, req *UpdateRequest) (*models.Folder, error) {
	folder, err := s.getOwnedFolder(ctx, req.FolderID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, services.NewDomainError(services.ErrorTypeValidation, "folder name cannot be empty", nil)
		}
		folder.Name = name
	}
	if req.Color != nil && *req.Color != "" {
		folder.Color = *req.Color
	}
	if req.MoveToRoot {
		folder.ParentID = nil
	} else if req.ParentID != nil {
		if *req.ParentID == folder.ID {
			return nil, services.NewDomainError(services.ErrorTypeValidation, "folder cannot be its own parent", nil)
		}
		if _, err := s.getOwnedFolder(ctx, *req.ParentID, req.UserID); err != nil {
			return nil, err
		}
		folder.ParentID = req.ParentID
	}

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		s.logger.Error("failed to update folder", zap.Error(err))
		return nil, services.WrapInternal("failed to update folder", err)
	}

	return folder, nil
}

// Delete removes the folder. Child folders go with it and contained rooms
// are detached to the root level.
func (s *FolderService) Delete(ctx context.Context, folderID, userID uuid.UUID) error {
	if _, err := s.getOwnedFolder(ctx, folderID, userID); err != nil {
		return err
	}

	if err := s.folderRepo.Delete(ctx, folderID, userID); err != nil {
		s.logger.Error("failed to delete folder", zap.Error(err))
		return services.WrapInternal("failed to delete folder", err)
	}

	s.logger.Info("folder deleted", zap.String("folder_id", folderID.String()))
	return nil
}

func (s *FolderService) getOwnedFolder(ctx context.Context, folderID, userID uuid.UUID) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, services.ErrFolderNotFound
	}
	if folder.UserID != userID {
		return nil, services.ErrFolderNotFound
	}
	return folder, nil
}
