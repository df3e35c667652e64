package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/roomnotes/backend/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE EXTENSION IF NOT EXISTS vector;

		-- Users table
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Folders table (nested via parent_id)
		CREATE TABLE IF NOT EXISTS folders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '#3B82F6',
			parent_id UUID REFERENCES folders(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Rooms table
		CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			folder_id UUID REFERENCES folders(id) ON DELETE SET NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Audio chunks table (append-only)
		CREATE TABLE IF NOT EXISTS audio_chunks (
			id UUID PRIMARY KEY,
			room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			transcription TEXT NOT NULL,
			embedding VECTOR(768) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Questions table
		CREATE TABLE IF NOT EXISTS questions (
			id UUID PRIMARY KEY,
			room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			question TEXT NOT NULL,
			answer TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Activities table
		CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY,
			room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			questions JSONB NOT NULL,
			total_questions INTEGER NOT NULL,
			time_limit INTEGER,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Activity responses table
		CREATE TABLE IF NOT EXISTS activity_responses (
			id UUID PRIMARY KEY,
			activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			user_name TEXT NOT NULL,
			answers JSONB NOT NULL,
			score INTEGER NOT NULL,
			completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Rate limit events table (sliding window)
		CREATE TABLE IF NOT EXISTS rate_limit_events (
			id BIGSERIAL PRIMARY KEY,
			scope_key TEXT NOT NULL,
			occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id);
		CREATE INDEX IF NOT EXISTS idx_folders_parent_id ON folders(parent_id);

		CREATE INDEX IF NOT EXISTS idx_rooms_user_id ON rooms(user_id);
		CREATE INDEX IF NOT EXISTS idx_rooms_folder_id ON rooms(folder_id);

		CREATE INDEX IF NOT EXISTS idx_audio_chunks_room_id ON audio_chunks(room_id);
		CREATE INDEX IF NOT EXISTS idx_audio_chunks_created_at ON audio_chunks(created_at);

		CREATE INDEX IF NOT EXISTS idx_questions_room_id ON questions(room_id);
		CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at);

		CREATE INDEX IF NOT EXISTS idx_activities_room_id ON activities(room_id);
		CREATE INDEX IF NOT EXISTS idx_activity_responses_activity_id ON activity_responses(activity_id);

		CREATE INDEX IF NOT EXISTS idx_rate_limit_events_scope ON rate_limit_events(scope_key, occurred_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
