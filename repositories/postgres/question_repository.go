package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"go.uber.org/zap"
)

// QuestionRepository implements the repositories.QuestionRepository interface
type QuestionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *DB, logger *zap.Logger) repositories.QuestionRepository {
	return &QuestionRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new question with its answer
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	query := `
		INSERT INTO questions (id, room_id, user_id, question, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		question.ID,
		question.RoomID,
		question.UserID,
		question.Question,
		question.Answer,
		question.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	r.logger.Debug("question created",
		zap.String("id", question.ID.String()),
		zap.String("room_id", question.RoomID.String()))
	return nil
}

// GetByRoomID retrieves a room's questions, newest first
func (r *QuestionRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Question, error) {
	query := `
		SELECT id, room_id, user_id, question, answer, created_at
		FROM questions
		WHERE room_id = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		question := &models.Question{}
		err := rows.Scan(
			&question.ID,
			&question.RoomID,
			&question.UserID,
			&question.Question,
			&question.Answer,
			&question.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	return questions, nil
}
