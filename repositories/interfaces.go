package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/roomnotes/backend/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// FolderRepository handles folder data operations
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error)

	// GetByUserID retrieves all folders for a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error)

	// Update updates a folder's name, color and parent
	Update(ctx context.Context, folder *models.Folder) error

	// Delete deletes a folder; child folders cascade and rooms are detached
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// RoomRepository handles room data operations
type RoomRepository interface {
	// Create creates a new room
	Create(ctx context.Context, room *models.Room) error

	// GetByID retrieves a room by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)

	// List retrieves all rooms with their question counts, oldest first
	List(ctx context.Context) ([]*models.RoomSummary, error)

	// Update updates a room's name, description, content and folder
	Update(ctx context.Context, room *models.Room) error

	// Delete deletes a room and, via FK cascade, its questions and chunks
	Delete(ctx context.Context, id uuid.UUID) error
}

// AudioChunkRepository handles transcript chunk operations.
// Chunks are append-only: there is no update path.
type AudioChunkRepository interface {
	// Insert inserts a new transcript chunk
	Insert(ctx context.Context, chunk *models.AudioChunk) error

	// GetBySimilarity retrieves chunks of a room whose cosine similarity to
	// the query embedding is strictly greater than threshold, most similar
	// first, capped at limit
	GetBySimilarity(ctx context.Context, roomID uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]models.ScoredChunk, error)

	// GetRecent retrieves the most recently created chunks of a room,
	// newest first, capped at limit
	GetRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.AudioChunk, error)

	// GetByRoomID retrieves all chunks of a room in insertion order
	GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.AudioChunk, error)
}

// QuestionRepository handles question data operations
type QuestionRepository interface {
	// Create creates a new question with its answer
	Create(ctx context.Context, question *models.Question) error

	// GetByRoomID retrieves a room's questions, newest first
	GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Question, error)
}

// ActivityRepository handles activity and activity response operations
type ActivityRepository interface {
	// Create creates a new activity
	Create(ctx context.Context, activity *models.Activity) error

	// GetByID retrieves an activity by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)

	// GetByRoomID retrieves a room's active activities, newest first
	GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Activity, error)

	// Delete deletes an activity and its responses
	Delete(ctx context.Context, id uuid.UUID) error

	// InsertResponse persists a submitted attempt
	InsertResponse(ctx context.Context, response *models.ActivityResponse) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users       UserRepository
	Folders     FolderRepository
	Rooms       RoomRepository
	AudioChunks AudioChunkRepository
	Questions   QuestionRepository
	Activities  ActivityRepository
}
