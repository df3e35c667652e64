package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the fixed dimensionality of stored embeddings.
// All vectors written to audio_chunks must have exactly this many components.
const EmbeddingDimensions = 768

// AudioChunk is one audio recording's transcription together with its
// embedding vector. Chunks are immutable: inserted once at ingestion and
// only removed when their room is deleted.
type AudioChunk struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	RoomID        uuid.UUID       `json:"room_id" db:"room_id"`
	Transcription string          `json:"transcription" db:"transcription"`
	Embedding     pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AudioChunk model
func (AudioChunk) TableName() string {
	return "audio_chunks"
}

// NewAudioChunk creates a new AudioChunk instance
func NewAudioChunk(roomID uuid.UUID, transcription string, embedding []float32) *AudioChunk {
	return &AudioChunk{
		ID:            uuid.New(),
		RoomID:        roomID,
		Transcription: transcription,
		Embedding:     pgvector.NewVector(embedding),
		CreatedAt:     time.Now(),
	}
}

// ScoredChunk is a chunk returned from a similarity query together with its
// cosine similarity to the query embedding.
type ScoredChunk struct {
	ID            uuid.UUID `json:"id"`
	Transcription string    `json:"transcription"`
	Similarity    float64   `json:"similarity"`
}
