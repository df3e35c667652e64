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

// RoomRepository implements the repositories.RoomRepository interface
type RoomRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *DB, logger *zap.Logger) repositories.RoomRepository {
	return &RoomRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new room
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, user_id, folder_id, name, description, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		room.ID,
		room.UserID,
		room.FolderID,
		room.Name,
		room.Description,
		room.Content,
		room.CreatedAt,
		room.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	r.logger.Debug("room created", zap.String("id", room.ID.String()), zap.String("name", room.Name))
	return nil
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `
		SELECT id, user_id, folder_id, name, description, content, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	room := &models.Room{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.UserID,
		&room.FolderID,
		&room.Name,
		&room.Description,
		&room.Content,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("room %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// List retrieves all rooms with their question counts, oldest first
func (r *RoomRepository) List(ctx context.Context) ([]*models.RoomSummary, error) {
	query := `
		SELECT r.id, r.name, r.description, COUNT(q.id), r.created_at
		FROM rooms r
		LEFT JOIN questions q ON q.room_id = r.id
		GROUP BY r.id, r.name
		ORDER BY r.created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.RoomSummary
	for rows.Next() {
		room := &models.RoomSummary{}
		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Description,
			&room.QuestionsCount,
			&room.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}

	return rooms, nil
}

// Update updates a room's name, description, content and folder
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $2,
		    description = $3,
		    content = $4,
		    folder_id = $5,
		    updated_at = $6
		WHERE id = $1 AND user_id = $7
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Description,
		room.Content,
		room.FolderID,
		room.UpdatedAt,
		room.UserID,
	)

	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("room %s: %w", room.ID, ErrNotFound)
	}

	r.logger.Debug("room updated", zap.String("id", room.ID.String()))
	return nil
}

// Delete deletes a room; questions and audio chunks cascade via FK
func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rooms WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("room %s: %w", id, ErrNotFound)
	}

	r.logger.Debug("room deleted", zap.String("id", id.String()))
	return nil
}
