package question

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/services"
	"github.com/roomnotes/backend/services/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProvider is a mock implementation of providers.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	args := m.Called(ctx, audio, mimeType)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, roomID uuid.UUID, embedding pgvector.Vector) (*retrieval.Result, error) {
	args := m.Called(ctx, roomID, embedding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Result), args.Error(1)
}

// MockQuestionRepository is a mock implementation of repositories.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Question, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

// MockRoomRepository is a mock implementation of repositories.RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomRepository) List(ctx context.Context) ([]*models.RoomSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomSummary), args.Error(1)
}

func (m *MockRoomRepository) Update(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type testFixture struct {
	provider     *MockProvider
	retriever    *MockRetriever
	questionRepo *MockQuestionRepository
	roomRepo     *MockRoomRepository
	service      *QuestionService
}

func newTestFixture() *testFixture {
	f := &testFixture{
		provider:     new(MockProvider),
		retriever:    new(MockRetriever),
		questionRepo: new(MockQuestionRepository),
		roomRepo:     new(MockRoomRepository),
	}
	f.service = NewQuestionService(f.provider, f.retriever, f.questionRepo, f.roomRepo, zap.NewNop())
	return f
}

func ownedRoom(userID uuid.UUID) *models.Room {
	return &models.Room{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "Biology 101",
	}
}

func TestAsk_AnswersFromRetrievedChunks(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	embedding := []float32{0.1, 0.2}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "What is photosynthesis?").Return(embedding, nil)
	f.retriever.On("Retrieve", mock.Anything, room.ID, pgvector.NewVector(embedding)).
		Return(&retrieval.Result{
			Chunks: []models.ScoredChunk{
				{ID: uuid.New(), Transcription: "photosynthesis converts light into energy", Similarity: 0.7},
			},
			ThresholdUsed: 0.5,
			Found:         true,
		}, nil)
	f.provider.On("GenerateText", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return true
	})).Return("Photosynthesis converts light into chemical energy.", nil)
	f.questionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Question")).Return(nil)

	resp, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "What is photosynthesis?",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.QuestionID)
	assert.Equal(t, "Photosynthesis converts light into chemical energy.", resp.Answer)
	f.provider.AssertExpectations(t)
	f.questionRepo.AssertExpectations(t)
}

func TestAsk_EmptyRoomGetsFixedAnswerWithoutGeneration(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	embedding := []float32{0.1, 0.2}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "anyone there?").Return(embedding, nil)
	f.retriever.On("Retrieve", mock.Anything, room.ID, pgvector.NewVector(embedding)).
		Return(&retrieval.Result{Found: false}, nil)
	f.questionRepo.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Question) bool {
		return q.Answer != nil && *q.Answer == InsufficientContextAnswer
	})).Return(nil)

	resp, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "anyone there?",
	})

	require.NoError(t, err)
	assert.Equal(t, InsufficientContextAnswer, resp.Answer)
	f.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	f.questionRepo.AssertExpectations(t)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newTestFixture()

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   uuid.New(),
		UserID:   uuid.New(),
		Question: "   ",
	})

	assert.ErrorIs(t, err, services.ErrEmptyQuestion)
	f.roomRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAsk_RoomNotFound(t *testing.T) {
	f := newTestFixture()
	roomID := uuid.New()

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(nil, errors.New("not found"))

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   roomID,
		UserID:   uuid.New(),
		Question: "question",
	})

	assert.ErrorIs(t, err, services.ErrRoomNotFound)
}

func TestAsk_RoomOwnedByAnotherUser(t *testing.T) {
	f := newTestFixture()
	room := ownedRoom(uuid.New())

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   uuid.New(),
		Question: "question",
	})

	assert.ErrorIs(t, err, services.ErrRoomNotFound)
	f.provider.AssertNotCalled(t, "EmbedText", mock.Anything, mock.Anything)
}

func TestAsk_EmbeddingFailureAbortsWithoutPersisting(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "question").Return(nil, errors.New("provider down"))

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "question",
	})

	require.Error(t, err)
	assert.True(t, services.IsExternalError(err))
	f.questionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAsk_GenerationFailureAbortsWithoutPersisting(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	embedding := []float32{0.1}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "question").Return(embedding, nil)
	f.retriever.On("Retrieve", mock.Anything, room.ID, pgvector.NewVector(embedding)).
		Return(&retrieval.Result{
			Chunks: []models.ScoredChunk{{Transcription: "context", Similarity: 0.6}},
			Found:  true,
		}, nil)
	f.provider.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("provider down"))

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "question",
	})

	require.Error(t, err)
	assert.True(t, services.IsExternalError(err))
	f.questionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAsk_PersistenceFailure(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	embedding := []float32{0.1}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "question").Return(embedding, nil)
	f.retriever.On("Retrieve", mock.Anything, room.ID, pgvector.NewVector(embedding)).
		Return(&retrieval.Result{Found: false}, nil)
	f.questionRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "question",
	})

	require.Error(t, err)
	assert.True(t, services.IsInternalError(err))
}

func TestAsk_RetrievalFailure(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	embedding := []float32{0.1}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.provider.On("EmbedText", mock.Anything, "question").Return(embedding, nil)
	f.retriever.On("Retrieve", mock.Anything, room.ID, pgvector.NewVector(embedding)).
		Return(nil, errors.New("db down"))

	_, err := f.service.Ask(context.Background(), &AskRequest{
		RoomID:   room.ID,
		UserID:   userID,
		Question: "question",
	})

	require.Error(t, err)
	assert.True(t, services.IsInternalError(err))
	f.questionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListByRoom(t *testing.T) {
	f := newTestFixture()
	userID := uuid.New()
	room := ownedRoom(userID)
	answer := "because"
	expected := []*models.Question{
		{ID: uuid.New(), RoomID: room.ID, Question: "why?", Answer: &answer},
	}

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	f.questionRepo.On("GetByRoomID", mock.Anything, room.ID).Return(expected, nil)

	questions, err := f.service.ListByRoom(context.Background(), room.ID, userID)

	require.NoError(t, err)
	assert.Equal(t, expected, questions)
}

func TestListByRoom_NotOwner(t *testing.T) {
	f := newTestFixture()
	room := ownedRoom(uuid.New())

	f.roomRepo.On("GetByID", mock.Anything, room.ID).Return(room, nil)

	_, err := f.service.ListByRoom(context.Background(), room.ID, uuid.New())

	assert.ErrorIs(t, err, services.ErrRoomNotFound)
	f.questionRepo.AssertNotCalled(t, "GetByRoomID", mock.Anything, mock.Anything)
}

func TestBuildAnswerPrompt(t *testing.T) {
	prompt := buildAnswerPrompt("What is a cell?", []string{"cells are units", "membranes enclose cells"})

	assert.Contains(t, prompt, "What is a cell?")
	assert.Contains(t, prompt, "cells are units")
	assert.Contains(t, prompt, "membranes enclose cells")
}
