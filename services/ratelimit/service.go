package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimitWindow represents the time window for rate limiting
type RateLimitWindow string

const (
	WindowMinute RateLimitWindow = "minute"
	WindowHour   RateLimitWindow = "hour"
	WindowDay    RateLimitWindow = "day"
)

// Config holds the per-user limits applied to provider-calling endpoints.
// A zero value disables the corresponding window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed           bool
	RequestsRemaining int
	ResetAt           time.Time
	ViolatedWindow    RateLimitWindow
	ViolationReason   string
}

// RateLimitService enforces sliding-window per-user rate limits using PostgreSQL
type RateLimitService struct {
	db     *sql.DB
	config Config
	logger *zap.Logger
}

// NewRateLimitService creates a new RateLimitService instance
func NewRateLimitService(db *sql.DB, config Config, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: config,
		logger: logger,
	}
}

// CheckLimit checks if the user is within rate limits for the given action
func (s *RateLimitService) CheckLimit(ctx context.Context, userID uuid.UUID, action string) (*Result, error) {
	scopeKey := s.buildScopeKey(userID, action)
	now := time.Now()

	windows := []struct {
		window RateLimitWindow
		limit  int
	}{
		{WindowMinute, s.config.RequestsPerMinute},
		{WindowHour, s.config.RequestsPerHour},
		{WindowDay, s.config.RequestsPerDay},
	}

	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}

		allowed, remaining, resetAt, err := s.checkWindow(ctx, scopeKey, w.window, now, w.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s window: %w", w.window, err)
		}
		if !allowed {
			return &Result{
				Allowed:           false,
				RequestsRemaining: remaining,
				ResetAt:           resetAt,
				ViolatedWindow:    w.window,
				ViolationReason:   fmt.Sprintf("exceeded %d requests per %s", w.limit, w.window),
			}, nil
		}
	}

	return &Result{Allowed: true}, nil
}

// RecordRequest records a request against the user's rate limit scope
func (s *RateLimitService) RecordRequest(ctx context.Context, userID uuid.UUID, action string) error {
	scopeKey := s.buildScopeKey(userID, action)

	query := `
		INSERT INTO rate_limit_events (scope_key, occurred_at)
		VALUES ($1, $2)
	`

	if _, err := s.db.ExecContext(ctx, query, scopeKey, time.Now()); err != nil {
		return fmt.Errorf("failed to insert rate limit event: %w", err)
	}

	return nil
}

// checkWindow checks if the limit is exceeded for a specific time window
func (s *RateLimitService) checkWindow(ctx context.Context, scopeKey string, window RateLimitWindow, now time.Time, limit int) (allowed bool, remaining int, resetAt time.Time, err error) {
	windowStart, resetAt := s.getWindowBounds(now, window)

	query := `
		SELECT COUNT(*)
		FROM rate_limit_events
		WHERE scope_key = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
	`

	var count int
	err = s.db.QueryRowContext(ctx, query, scopeKey, windowStart, now).Scan(&count)
	if err != nil {
		return false, 0, resetAt, fmt.Errorf("failed to query rate limit: %w", err)
	}

	if count >= limit {
		return false, 0, resetAt, nil
	}

	return true, limit - count, resetAt, nil
}

// getWindowBounds returns the start and reset time for a time window
func (s *RateLimitService) getWindowBounds(now time.Time, window RateLimitWindow) (start time.Time, reset time.Time) {
	switch window {
	case WindowMinute:
		start = now.Add(-1 * time.Minute)
		reset = now.Truncate(time.Minute).Add(time.Minute)
	case WindowHour:
		start = now.Add(-1 * time.Hour)
		reset = now.Truncate(time.Hour).Add(time.Hour)
	case WindowDay:
		start = now.Add(-24 * time.Hour)
		reset = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return start, reset
}

// buildScopeKey builds a unique key for the rate limit scope
func (s *RateLimitService) buildScopeKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("user:%s:%s", userID.String(), action)
}

// CleanupOldRequests removes old rate limit events to keep the table size manageable
func (s *RateLimitService) CleanupOldRequests(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM rate_limit_events
		WHERE occurred_at < $1
	`

	result, err := s.db.ExecContext(ctx, query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old requests: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info("cleaned up old rate limit events",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff_time", cutoffTime))

	return rowsAffected, nil
}

// StartCleanupWorker starts a background worker to periodically clean up old events
func (s *RateLimitService) StartCleanupWorker(ctx context.Context, interval time.Duration, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention))

	for {
		select {
		case <-ticker.C:
			if _, err := s.CleanupOldRequests(ctx, retention); err != nil {
				s.logger.Error("failed to cleanup old requests", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
