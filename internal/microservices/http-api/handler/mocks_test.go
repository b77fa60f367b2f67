package handler

import (
	"context"

	"comichub/internal/catalog"
	"comichub/internal/history"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"
	"comichub/internal/upload"

	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.TokenPair, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	return m.Called(ctx, token, password, confirm).Error(0)
}

type MockComicService struct {
	mock.Mock
}

func (m *MockComicService) Home(ctx context.Context, page pagination.Page) (*service.CardPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CardPage), args.Error(1)
}

func (m *MockComicService) Search(ctx context.Context, q catalog.Query) (*catalog.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Result), args.Error(1)
}

func (m *MockComicService) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockComicService) CategoryComics(ctx context.Context, slug string, q catalog.Query) (*service.CategoryComics, error) {
	args := m.Called(ctx, slug, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CategoryComics), args.Error(1)
}

func (m *MockComicService) Detail(ctx context.Context, slug string, viewer service.Viewer) (*service.ComicDetail, error) {
	args := m.Called(ctx, slug, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ComicDetail), args.Error(1)
}

func (m *MockComicService) Chapter(ctx context.Context, slug, chapterSlug string) (*service.ChapterView, error) {
	args := m.Called(ctx, slug, chapterSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChapterView), args.Error(1)
}

func (m *MockComicService) RecordRead(ctx context.Context, slug, chapterSlug string, viewer service.Viewer) (*history.Item, error) {
	args := m.Called(ctx, slug, chapterSlug, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Item), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) List(ctx context.Context, mode history.Mode, owner string, page pagination.Page) (*service.HistoryPage, error) {
	args := m.Called(ctx, mode, owner, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryPage), args.Error(1)
}

func (m *MockHistoryService) Remove(ctx context.Context, mode history.Mode, owner, slug string) error {
	return m.Called(ctx, mode, owner, slug).Error(0)
}

func (m *MockHistoryService) Clear(ctx context.Context, mode history.Mode, owner string) error {
	return m.Called(ctx, mode, owner).Error(0)
}

func (m *MockHistoryService) SyncDevice(ctx context.Context, userID, deviceID string) (int, error) {
	args := m.Called(ctx, userID, deviceID)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryService) Items(ctx context.Context, viewer service.Viewer) ([]history.Item, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.Item), args.Error(1)
}

func (m *MockHistoryService) Record(ctx context.Context, viewer service.Viewer, item history.Item) (history.Item, error) {
	args := m.Called(ctx, viewer, item)
	return args.Get(0).(history.Item), args.Error(1)
}

func (m *MockHistoryService) LastRead(ctx context.Context, viewer service.Viewer, slug, title string) (*history.Item, error) {
	args := m.Called(ctx, viewer, slug, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Item), args.Error(1)
}

type MockFollowService struct {
	mock.Mock
}

func (m *MockFollowService) Follow(ctx context.Context, userID, slug string) (*models.Follow, error) {
	args := m.Called(ctx, userID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Follow), args.Error(1)
}

func (m *MockFollowService) Unfollow(ctx context.Context, userID, slug string) error {
	return m.Called(ctx, userID, slug).Error(0)
}

func (m *MockFollowService) IsFollowed(ctx context.Context, userID, slug string) (bool, error) {
	args := m.Called(ctx, userID, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowService) List(ctx context.Context, userID string, page pagination.Page) (*service.FollowPage, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FollowPage), args.Error(1)
}

func (m *MockFollowService) TouchLastRead(ctx context.Context, userID, slug string) error {
	return m.Called(ctx, userID, slug).Error(0)
}

func (m *MockFollowService) FollowerCount(ctx context.Context, slug string) (int64, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*models.User, error) {
	return m.user(m.Called(ctx, userID, in))
}

func (m *MockUserService) UploadAvatar(ctx context.Context, userID string, f upload.File) (*models.User, error) {
	return m.user(m.Called(ctx, userID, f))
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	return m.Called(ctx, userID, current, next, confirm).Error(0)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter repository.UserFilter, page pagination.Page) ([]models.User, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) SetStatus(ctx context.Context, actorID, userID, status string) (*models.User, error) {
	return m.user(m.Called(ctx, actorID, userID, status))
}

func (m *MockUserService) SetRole(ctx context.Context, actorID, userID, role string) (*models.User, error) {
	return m.user(m.Called(ctx, actorID, userID, role))
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Stats(ctx context.Context) (*service.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardStats), args.Error(1)
}

func (m *MockAdminService) ListCategories(ctx context.Context, page pagination.Page) ([]models.Category, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.Category), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdminService) category(args mock.Arguments) (*models.Category, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockAdminService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	return m.category(m.Called(ctx, name, slug))
}

func (m *MockAdminService) UpdateCategory(ctx context.Context, id int64, name, slug string) (*models.Category, error) {
	return m.category(m.Called(ctx, id, name, slug))
}

func (m *MockAdminService) DeleteCategory(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) ListComics(ctx context.Context, search string, page pagination.Page) ([]models.Comic, int64, error) {
	args := m.Called(ctx, search, page)
	return args.Get(0).([]models.Comic), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdminService) comic(args mock.Arguments) (*models.Comic, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1)
}

func (m *MockAdminService) GetComic(ctx context.Context, slug string) (*models.Comic, error) {
	return m.comic(m.Called(ctx, slug))
}

func (m *MockAdminService) CreateComic(ctx context.Context, in service.ComicInput, cover *upload.File) (*models.Comic, error) {
	return m.comic(m.Called(ctx, in, cover))
}

func (m *MockAdminService) UpdateComic(ctx context.Context, slug string, in service.ComicInput, cover *upload.File) (*models.Comic, error) {
	return m.comic(m.Called(ctx, slug, in, cover))
}

func (m *MockAdminService) DeleteComic(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockAdminService) ListChapters(ctx context.Context, slug string) ([]service.ChapterLink, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ChapterLink), args.Error(1)
}

func (m *MockAdminService) chapter(args mock.Arguments) (*models.Chapter, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *MockAdminService) GetChapter(ctx context.Context, slug string, id int64) (*models.Chapter, error) {
	return m.chapter(m.Called(ctx, slug, id))
}

func (m *MockAdminService) CreateChapter(ctx context.Context, slug, title string, images []upload.File) (*models.Chapter, error) {
	return m.chapter(m.Called(ctx, slug, title, images))
}

func (m *MockAdminService) UpdateChapter(ctx context.Context, slug string, id int64, in service.ChapterUpdate) (*models.Chapter, error) {
	return m.chapter(m.Called(ctx, slug, id, in))
}

func (m *MockAdminService) DeleteChapter(ctx context.Context, slug, ref string) error {
	return m.Called(ctx, slug, ref).Error(0)
}
