package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/repositories/postgres"
	"github.com/roomnotes/backend/token"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the authenticated user and their signed token
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// VerifyResponse echoes the validated token claims
type VerifyResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Handler handles registration, login and token verification
type Handler struct {
	userRepo repositories.UserRepository
	tokens   *token.Manager
	logger   *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(userRepo repositories.UserRepository, tokens *token.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new user account and returns it with a signed token
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", toDetails(utils.GetValidationFields(err)))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := h.userRepo.GetByEmail(r.Context(), email); err == nil {
		_ = utils.WriteConflict(w, "Email already registered", nil)
		return
	} else if !errors.Is(err, postgres.ErrNotFound) {
		h.logger.Error("failed to look up email", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	user := models.NewUser(strings.TrimSpace(req.Name), email, string(hash))
	if err := h.userRepo.Create(r.Context(), user); err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	signed, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	_ = utils.WriteCreated(w, AuthResponse{User: user, Token: signed})
}

// Login verifies credentials and returns the user with a fresh token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", toDetails(utils.GetValidationFields(err)))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userRepo.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			_ = utils.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		h.logger.Error("failed to look up user", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("login failed", zap.String("email", email))
		_ = utils.WriteUnauthorized(w, "Invalid email or password")
		return
	}

	signed, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	_ = utils.WriteOK(w, AuthResponse{User: user, Token: signed})
}

// Verify validates the presented bearer token and returns its claims
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
		return
	}

	claims, err := h.tokens.ValidateToken(r.Context(), raw)
	if err != nil {
		_ = utils.WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	_ = utils.WriteOK(w, VerifyResponse{
		UserID: claims.Sub.String(),
		Email:  claims.Email,
		Name:   claims.Name,
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func toDetails(fields map[string]string) map[string]interface{} {
	if fields == nil {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}
