package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// UserIDKey is the context key for the authenticated user ID
	UserIDKey contextKey = "user_id"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves validated token claims from context
func GetClaimsFromContext(ctx context.Context) *token.ParsedClaims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*token.ParsedClaims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims *token.ParsedClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext retrieves the authenticated user ID from context.
// Returns uuid.Nil when the request is unauthenticated.
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(UserIDKey); val != nil {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// WithUserID adds the authenticated user ID to the context
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
