package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomnotes/backend/services/ratelimit"
	"github.com/roomnotes/backend/utils"
)

// RateLimitMiddleware applies per-user sliding-window limits to
// AI-backed endpoints. Requests without an authenticated user pass
// through untouched; auth runs earlier in the chain.
type RateLimitMiddleware struct {
	service *ratelimit.RateLimitService
	logger  *zap.Logger
}

func NewRateLimitMiddleware(service *ratelimit.RateLimitService, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		service: service,
		logger:  logger,
	}
}

// Limit returns a middleware that enforces the configured limits for the
// given action. The request is recorded only after the check allows it.
func (m *RateLimitMiddleware) Limit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserIDFromContext(r.Context())
			if userID == uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}

			result, err := m.service.CheckLimit(r.Context(), userID, action)
			if err != nil {
				m.logger.Error("rate limit check failed",
					zap.String("user_id", userID.String()),
					zap.String("action", action),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				m.logger.Warn("rate limit exceeded",
					zap.String("user_id", userID.String()),
					zap.String("action", action),
					zap.String("window", string(result.ViolatedWindow)))

				_ = utils.WriteTooManyRequests(w, "Rate limit exceeded", map[string]interface{}{
					"reason":   result.ViolationReason,
					"reset_at": result.ResetAt,
				})
				return
			}

			if err := m.service.RecordRequest(r.Context(), userID, action); err != nil {
				m.logger.Error("failed to record rate limit event",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}

			next.ServeHTTP(w, r)
		})
	}
}
