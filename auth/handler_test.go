package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/repositories/postgres"
	"github.com/roomnotes/backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestHandler(userRepo *MockUserRepository) *Handler {
	tokens := token.NewManager(token.Config{Secret: "test-secret", Issuer: "roomnotes"})
	return NewHandler(userRepo, tokens, zap.NewNop())
}

func notFoundErr(email string) error {
	return fmt.Errorf("user with email %s: %w", email, postgres.ErrNotFound)
}

func TestRegister_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	userRepo.On("GetByEmail", mock.Anything, "ada@example.com").
		Return(nil, notFoundErr("ada@example.com"))
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ada@example.com" && u.Name == "Ada" && u.PasswordHash != "secret123"
	})).Return(nil)

	body, _ := json.Marshal(RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Data.User.Email)
	assert.NotEmpty(t, resp.Data.Token)
	userRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	existing := models.NewUser("Ada", "ada@example.com", "hash")
	userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(existing, nil)

	body, _ := json.Marshal(RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ValidationFailure(t *testing.T) {
	handler := newTestHandler(new(MockUserRepository))

	body, _ := json.Marshal(RegisterRequest{Name: "A", Email: "not-an-email", Password: "123"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_InvalidBody(t *testing.T) {
	handler := newTestHandler(new(MockUserRepository))

	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.NewUser("Ada", "ada@example.com", string(hash))

	userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

	body, _ := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.NewUser("Ada", "ada@example.com", string(hash))

	userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

	body, _ := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "wrong"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, notFoundErr("ghost@example.com"))

	body, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RepositoryError(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	userRepo.On("GetByEmail", mock.Anything, "ada@example.com").
		Return(nil, errors.New("connection refused"))

	body, _ := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerify_ValidToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	handler := newTestHandler(userRepo)

	user := models.NewUser("Ada", "ada@example.com", "hash")
	signed, err := handler.tokens.Issue(user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data VerifyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID.String(), resp.Data.UserID)
	assert.Equal(t, "ada@example.com", resp.Data.Email)
}

func TestVerify_MissingToken(t *testing.T) {
	handler := newTestHandler(new(MockUserRepository))

	req := httptest.NewRequest("GET", "/auth/verify", nil)
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerify_InvalidToken(t *testing.T) {
	handler := newTestHandler(new(MockUserRepository))

	req := httptest.NewRequest("GET", "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
