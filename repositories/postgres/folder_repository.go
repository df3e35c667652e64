package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"go.uber.org/zap"
)

// FolderRepository implements the repositories.FolderRepository interface
type FolderRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *DB, logger *zap.Logger) repositories.FolderRepository {
	return &FolderRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new folder
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (id, user_id, name, color, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		folder.ID,
		folder.UserID,
		folder.Name,
		folder.Color,
		folder.ParentID,
		folder.CreatedAt,
		folder.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	r.logger.Debug("folder created", zap.String("id", folder.ID.String()))
	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	query := `
		SELECT id, user_id, name, color, parent_id, created_at, updated_at
		FROM folders
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	folder := &models.Folder{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&folder.ID,
		&folder.UserID,
		&folder.Name,
		&folder.Color,
		&folder.ParentID,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return folder, nil
}

// GetByUserID retrieves all folders for a user
func (r *FolderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	query := `
		SELECT id, user_id, name, color, parent_id, created_at, updated_at
		FROM folders
		WHERE user_id = $1
		ORDER BY created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder := &models.Folder{}
		err := rows.Scan(
			&folder.ID,
			&folder.UserID,
			&folder.Name,
			&folder.Color,
			&folder.ParentID,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder rows: %w", err)
	}

	return folders, nil
}

// Update updates a folder's name, color and parent
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET name = $2,
		    color = $3,
		    parent_id = $4,
		    updated_at = $5
		WHERE id = $1 AND user_id = $6
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		folder.ID,
		folder.Name,
		folder.Color,
		folder.ParentID,
		folder.UpdatedAt,
		folder.UserID,
	)

	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, ErrNotFound)
	}

	r.logger.Debug("folder updated", zap.String("id", folder.ID.String()))
	return nil
}

// Delete deletes a folder. Child folders cascade via FK; rooms in the
// folder are detached by the rooms.folder_id ON DELETE SET NULL constraint.
func (r *FolderRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM folders WHERE id = $1 AND user_id = $2`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}

	r.logger.Debug("folder deleted", zap.String("id", id.String()))
	return nil
}
