package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"go.uber.org/zap"
)

// similarityThresholds are tried in order until one yields at least one chunk.
var similarityThresholds = []float64{0.5, 0.4, 0.3, 0.2}

const (
	// maxChunks caps how many chunks a single threshold pass may return
	maxChunks = 5

	// recentChunkLimit is how many chunks the recency fallback returns
	recentChunkLimit = 3
)

// Result is the outcome of a retrieval pass over a room's transcript chunks
type Result struct {
	// Chunks ordered by similarity desc, or by recency when UsedFallback is set
	Chunks []models.ScoredChunk

	// ThresholdUsed is the similarity threshold that produced Chunks.
	// Zero when the recency fallback was used or nothing was found.
	ThresholdUsed float64

	// UsedFallback indicates the chunks came from the recency fallback
	UsedFallback bool

	// Found is false only when the room has no transcript chunks at all
	Found bool
}

// RetrievalService finds the transcript chunks most relevant to a query embedding
type RetrievalService struct {
	chunkRepo repositories.AudioChunkRepository
	logger    *zap.Logger
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(chunkRepo repositories.AudioChunkRepository, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		chunkRepo: chunkRepo,
		logger:    logger,
	}
}

// Retrieve runs the descending-threshold cascade over the room's chunks.
// Each threshold requires similarity strictly greater than its value; the
// first threshold that yields chunks wins. When no threshold matches, the
// most recent chunks are returned instead, and when the room has no chunks
// at all the result reports not found.
func (s *RetrievalService) Retrieve(ctx context.Context, roomID uuid.UUID, embedding pgvector.Vector) (*Result, error) {
	for _, threshold := range similarityThresholds {
		chunks, err := s.chunkRepo.GetBySimilarity(ctx, roomID, embedding, threshold, maxChunks)
		if err != nil {
			return nil, fmt.Errorf("similarity search at threshold %.1f: %w", threshold, err)
		}

		if len(chunks) > 0 {
			s.logger.Debug("retrieved chunks by similarity",
				zap.String("room_id", roomID.String()),
				zap.Float64("threshold", threshold),
				zap.Int("count", len(chunks)))

			return &Result{
				Chunks:        chunks,
				ThresholdUsed: threshold,
				Found:         true,
			}, nil
		}
	}

	recent, err := s.chunkRepo.GetRecent(ctx, roomID, recentChunkLimit)
	if err != nil {
		return nil, fmt.Errorf("recency fallback: %w", err)
	}

	if len(recent) == 0 {
		s.logger.Debug("room has no transcript chunks", zap.String("room_id", roomID.String()))
		return &Result{Found: false}, nil
	}

	s.logger.Debug("no chunks passed any threshold, using recency fallback",
		zap.String("room_id", roomID.String()),
		zap.Int("count", len(recent)))

	chunks := make([]models.ScoredChunk, len(recent))
	for i, c := range recent {
		chunks[i] = models.ScoredChunk{
			ID:            c.ID,
			Transcription: c.Transcription,
		}
	}

	return &Result{
		Chunks:       chunks,
		UsedFallback: true,
		Found:        true,
	}, nil
}
