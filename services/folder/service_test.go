package folder

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/roomnotes/backend/models"
	"github.com/roomnotes/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFolderRepository is a mock implementation of repositories.FolderRepository
type MockFolderRepository struct {
	mock.Mock
}

func (m *MockFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockFolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Folder), args.Error(1)
}

func (m *MockFolderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Folder), args.Error(1)
}

func (m *MockFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockFolderRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func newTestService() (*FolderService, *MockFolderRepository) {
	repo := new(MockFolderRepository)
	return NewFolderService(repo, zap.NewNop()), repo
}

func TestCreate(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Folder")).Return(nil)

	folder, err := service.Create(context.Background(), &CreateRequest{
		UserID: userID,
		Name:   "Semester 1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Semester 1", folder.Name)
	assert.Equal(t, models.DefaultFolderColor, folder.Color)
	assert.Nil(t, folder.ParentID)
}

func TestCreate_CustomColor(t *testing.T) {
	service, repo := newTestService()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Folder")).Return(nil)

	folder, err := service.Create(context.Background(), &CreateRequest{
		UserID: uuid.New(),
		Name:   "Exams",
		Color:  "#FF0000",
	})

	require.NoError(t, err)
	assert.Equal(t, "#FF0000", folder.Color)
}

func TestCreate_EmptyName(t *testing.T) {
	service, repo := newTestService()

	_, err := service.Create(context.Background(), &CreateRequest{
		UserID: uuid.New(),
		Name:   "  ",
	})

	assert.True(t, services.IsValidationError(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_Nested(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	parent := models.NewFolder(userID, "parent", "", nil)

	repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Folder")).Return(nil)

	folder, err := service.Create(context.Background(), &CreateRequest{
		UserID:   userID,
		Name:     "child",
		ParentID: &parent.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, folder.ParentID)
	assert.Equal(t, parent.ID, *folder.ParentID)
}

func TestCreate_ParentOwnedByOtherUser(t *testing.T) {
	service, repo := newTestService()
	parent := models.NewFolder(uuid.New(), "theirs", "", nil)

	repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil)

	_, err := service.Create(context.Background(), &CreateRequest{
		UserID:   uuid.New(),
		Name:     "child",
		ParentID: &parent.ID,
	})

	assert.ErrorIs(t, err, services.ErrFolderNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	expected := []*models.Folder{
		models.NewFolder(userID, "a", "", nil),
		models.NewFolder(userID, "b", "", nil),
	}

	repo.On("GetByUserID", mock.Anything, userID).Return(expected, nil)

	folders, err := service.List(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, expected, folders)
}

func TestUpdate(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	folder := models.NewFolder(userID, "old", "#111111", nil)

	repo.On("GetByID", mock.Anything, folder.ID).Return(folder, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.Folder")).Return(nil)

	newName := "renamed"
	newColor := "#222222"
	updated, err := service.Update(context.Background(), &UpdateRequest{
		FolderID: folder.ID,
		UserID:   userID,
		Name:     &newName,
		Color:    &newColor,
	})

	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "#222222", updated.Color)
}

func TestUpdate_SelfParentRejected(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	folder := models.NewFolder(userID, "f", "", nil)

	repo.On("GetByID", mock.Anything, folder.ID).Return(folder, nil)

	_, err := service.Update(context.Background(), &UpdateRequest{
		FolderID: folder.ID,
		UserID:   userID,
		ParentID: &folder.ID,
	})

	assert.True(t, services.IsValidationError(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdate_MoveToRoot(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	parentID := uuid.New()
	folder := models.NewFolder(userID, "f", "", &parentID)

	repo.On("GetByID", mock.Anything, folder.ID).Return(folder, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.Folder")).Return(nil)

	updated, err := service.Update(context.Background(), &UpdateRequest{
		FolderID:   folder.ID,
		UserID:     userID,
		MoveToRoot: true,
	})

	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func TestDelete(t *testing.T) {
	service, repo := newTestService()
	userID := uuid.New()
	folder := models.NewFolder(userID, "f", "", nil)

	repo.On("GetByID", mock.Anything, folder.ID).Return(folder, nil)
	repo.On("Delete", mock.Anything, folder.ID, userID).Return(nil)

	err := service.Delete(context.Background(), folder.ID, userID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDelete_NotOwner(t *testing.T) {
	service, repo := newTestService()
	folder := models.NewFolder(uuid.New(), "f", "", nil)

	repo.On("GetByID", mock.Anything, folder.ID).Return(folder, nil)

	err := service.Delete(context.Background(), folder.ID, uuid.New())

	assert.ErrorIs(t, err, services.ErrFolderNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
