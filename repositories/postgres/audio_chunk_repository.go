package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"go.uber.org/zap"
)

// AudioChunkRepository implements the repositories.AudioChunkRepository interface
type AudioChunkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAudioChunkRepository creates a new audio chunk repository
func NewAudioChunkRepository(db *DB, logger *zap.Logger) repositories.AudioChunkRepository {
	return &AudioChunkRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new transcript chunk
func (r *AudioChunkRepository) Insert(ctx context.Context, chunk *models.AudioChunk) error {
	query := `
		INSERT INTO audio_chunks (id, room_id, transcription, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		chunk.ID,
		chunk.RoomID,
		chunk.Transcription,
		chunk.Embedding,
		chunk.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audio chunk: %w", err)
	}

	r.logger.Debug("audio chunk inserted",
		zap.String("id", chunk.ID.String()),
		zap.String("room_id", chunk.RoomID.String()),
		zap.Int("transcription_len", len(chunk.Transcription)))
	return nil
}

// GetBySimilarity retrieves chunks of a room whose cosine similarity to the
// query embedding is strictly greater than threshold, most similar first,
// capped at limit. Similarity is 1 - cosine distance, computed in Postgres
// with the pgvector <=> operator.
func (r *AudioChunkRepository) GetBySimilarity(ctx context.Context, roomID uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]models.ScoredChunk, error) {
	query := `
		SELECT id, transcription, 1 - (embedding <=> $2) AS similarity
		FROM audio_chunks
		WHERE room_id = $1
		  AND 1 - (embedding <=> $2) > $3
		ORDER BY similarity DESC
		LIMIT $4
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roomID, embedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks by similarity: %w", err)
	}
	defer rows.Close()

	var chunks []models.ScoredChunk
	for rows.Next() {
		var chunk models.ScoredChunk
		if err := rows.Scan(&chunk.ID, &chunk.Transcription, &chunk.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan scored chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}

	return chunks, nil
}

// GetRecent retrieves the most recently created chunks of a room, newest
// first, capped at limit
func (r *AudioChunkRepository) GetRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.AudioChunk, error) {
	query := `
		SELECT id, room_id, transcription, embedding, created_at
		FROM audio_chunks
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetByRoomID retrieves all chunks of a room in insertion order
func (r *AudioChunkRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.AudioChunk, error) {
	query := `
		SELECT id, room_id, transcription, embedding, created_at
		FROM audio_chunks
		WHERE room_id = $1
		ORDER BY created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows rowScanner) ([]*models.AudioChunk, error) {
	var chunks []*models.AudioChunk
	for rows.Next() {
		chunk := &models.AudioChunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.RoomID,
			&chunk.Transcription,
			&chunk.Embedding,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}

	return chunks, nil
}

// rowScanner is the subset of *sql.Rows needed by scanChunks.
type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
