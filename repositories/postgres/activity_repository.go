package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"go.uber.org/zap"
)

// ActivityRepository implements the repositories.ActivityRepository interface
type ActivityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new activity
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	questionsJSON, err := activity.QuestionsJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal activity questions: %w", err)
	}

	query := `
		INSERT INTO activities (id, room_id, user_id, title, description, questions, total_questions, time_limit, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		activity.ID,
		activity.RoomID,
		activity.UserID,
		activity.Title,
		activity.Description,
		questionsJSON,
		activity.TotalQuestions,
		activity.TimeLimit,
		activity.IsActive,
		activity.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	r.logger.Debug("activity created",
		zap.String("id", activity.ID.String()),
		zap.Int("total_questions", activity.TotalQuestions))
	return nil
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := `
		SELECT id, room_id, user_id, title, description, questions, total_questions, time_limit, is_active, created_at
		FROM activities
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	row := executor.QueryRowContext(ctx, query, id)

	activity, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return activity, nil
}

// GetByRoomID retrieves a room's active activities, newest first
func (r *ActivityRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Activity, error) {
	query := `
		SELECT id, room_id, user_id, title, description, questions, total_questions, time_limit, is_active, created_at
		FROM activities
		WHERE room_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return activities, nil
}

// Delete deletes an activity; responses cascade via FK
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM activities WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}

	r.logger.Debug("activity deleted", zap.String("id", id.String()))
	return nil
}

// InsertResponse persists a submitted attempt
func (r *ActivityRepository) InsertResponse(ctx context.Context, response *models.ActivityResponse) error {
	answersJSON, err := response.AnswersJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal activity answers: %w", err)
	}

	query := `
		INSERT INTO activity_responses (id, activity_id, user_name, answers, score, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		response.ID,
		response.ActivityID,
		response.UserName,
		answersJSON,
		response.Score,
		response.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert activity response: %w", err)
	}

	r.logger.Debug("activity response inserted",
		zap.String("id", response.ID.String()),
		zap.Int("score", response.Score))
	return nil
}

// rowScannerSingle matches both *sql.Row and *sql.Rows.
type rowScannerSingle interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScannerSingle) (*models.Activity, error) {
	activity := &models.Activity{}
	var questionsJSON []byte
	var description sql.NullString
	var timeLimit sql.NullInt64

	err := row.Scan(
		&activity.ID,
		&activity.RoomID,
		&activity.UserID,
		&activity.Title,
		&description,
		&questionsJSON,
		&activity.TotalQuestions,
		&timeLimit,
		&activity.IsActive,
		&activity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	activity.Description = description.String
	activity.TimeLimit = int(timeLimit.Int64)

	if err := json.Unmarshal(questionsJSON, &activity.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity questions: %w", err)
	}

	return activity, nil
}
