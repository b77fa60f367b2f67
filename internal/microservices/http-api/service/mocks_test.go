package service

import (
	"context"
	"time"

	"comichub/internal/catalog"
	"comichub/internal/history"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/pagination"
	"comichub/internal/upload"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, page pagination.Page) ([]models.User, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPasswordResetRepository struct {
	mock.Mock
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	return m.Called(ctx, reset).Error(0)
}

func (m *MockPasswordResetRepository) FindByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordReset), args.Error(1)
}

func (m *MockPasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPasswordResetRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

type MockComicRepository struct {
	mock.Mock
}

func (m *MockComicRepository) Create(ctx context.Context, c *models.Comic) error {
	args := m.Called(ctx, c)
	if c.ID == 0 {
		c.ID = 1
	}
	return args.Error(0)
}

func (m *MockComicRepository) Update(ctx context.Context, c *models.Comic) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockComicRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockComicRepository) FindBySlug(ctx context.Context, slug string) (*models.Comic, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1)
}

func (m *MockComicRepository) ListLatest(ctx context.Context, page pagination.Page) ([]models.Comic, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Comic), args.Get(1).(int64), args.Error(2)
}

func (m *MockComicRepository) SearchByTitle(ctx context.Context, title string, page pagination.Page) ([]models.Comic, int64, error) {
	args := m.Called(ctx, title, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Comic), args.Get(1).(int64), args.Error(2)
}

func (m *MockComicRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Comic, error) {
	args := m.Called(ctx, slugs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comic), args.Error(1)
}

func (m *MockComicRepository) CatalogEntries(ctx context.Context) ([]catalog.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Entry), args.Error(1)
}

func (m *MockComicRepository) Stats(ctx context.Context, ids []int64) (map[int64]models.ComicStats, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]models.ComicStats), args.Error(1)
}

func (m *MockComicRepository) ReplaceCategories(ctx context.Context, c *models.Comic, ids []int64) error {
	return m.Called(ctx, c, ids).Error(0)
}

func (m *MockComicRepository) TouchUpdatedAt(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockComicRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockChapterRepository struct {
	mock.Mock
}

func (m *MockChapterRepository) ListByComic(ctx context.Context, comicID int64) ([]models.Chapter, error) {
	args := m.Called(ctx, comicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Chapter), args.Error(1)
}

func (m *MockChapterRepository) Latest(ctx context.Context, comicIDs []int64, perComic int) (map[int64][]models.Chapter, error) {
	args := m.Called(ctx, comicIDs, perComic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]models.Chapter), args.Error(1)
}

func (m *MockChapterRepository) FindByID(ctx context.Context, comicID, id int64) (*models.Chapter, error) {
	args := m.Called(ctx, comicID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *MockChapterRepository) FindByNumber(ctx context.Context, comicID int64, number float64) (*models.Chapter, error) {
	args := m.Called(ctx, comicID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *MockChapterRepository) FindByTitle(ctx context.Context, comicID int64, title string) (*models.Chapter, error) {
	args := m.Called(ctx, comicID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *MockChapterRepository) Create(ctx context.Context, ch *models.Chapter) error {
	return m.Called(ctx, ch).Error(0)
}

func (m *MockChapterRepository) Update(ctx context.Context, ch *models.Chapter) error {
	return m.Called(ctx, ch).Error(0)
}

func (m *MockChapterRepository) Delete(ctx context.Context, comicID, id int64) error {
	return m.Called(ctx, comicID, id).Error(0)
}

func (m *MockChapterRepository) IncrementViews(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockChapterRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChapterRepository) TotalViews(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListPaged(ctx context.Context, page pagination.Page) ([]models.Category, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Category), args.Get(1).(int64), args.Error(2)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Category, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) FirstOrCreateBySlug(ctx context.Context, name, slug string) (*models.Category, error) {
	args := m.Called(ctx, name, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) Create(ctx context.Context, f *models.Follow) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFollowRepository) Delete(ctx context.Context, userID, slug string) (bool, error) {
	args := m.Called(ctx, userID, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) Find(ctx context.Context, userID, slug string) (*models.Follow, error) {
	args := m.Called(ctx, userID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Follow), args.Error(1)
}

func (m *MockFollowRepository) ListByUser(ctx context.Context, userID string, page pagination.Page) ([]models.Follow, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Follow), args.Get(1).(int64), args.Error(2)
}

func (m *MockFollowRepository) CountBySlug(ctx context.Context, slug string) (int64, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFollowRepository) TouchLastRead(ctx context.Context, userID, slug string, at time.Time) error {
	return m.Called(ctx, userID, slug, at).Error(0)
}

func (m *MockFollowRepository) UpdateComicInfo(ctx context.Context, oldSlug string, c *models.Comic) error {
	return m.Called(ctx, oldSlug, c).Error(0)
}

func (m *MockFollowRepository) SetLatestChapter(ctx context.Context, slug, title string) error {
	return m.Called(ctx, slug, title).Error(0)
}

type MockViewStatRepository struct {
	mock.Mock
}

func (m *MockViewStatRepository) Increment(ctx context.Context, day string) error {
	return m.Called(ctx, day).Error(0)
}

func (m *MockViewStatRepository) Days(ctx context.Context, days []string) (map[string]int64, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) List(ctx context.Context, owner string) ([]history.Item, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.Item), args.Error(1)
}

func (m *MockHistoryStore) Add(ctx context.Context, owner string, item history.Item) (history.Item, error) {
	args := m.Called(ctx, owner, item)
	return args.Get(0).(history.Item), args.Error(1)
}

func (m *MockHistoryStore) Remove(ctx context.Context, owner, slug string) error {
	return m.Called(ctx, owner, slug).Error(0)
}

func (m *MockHistoryStore) Clear(ctx context.Context, owner string) error {
	return m.Called(ctx, owner).Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadCover(ctx context.Context, slug string, f upload.File) (string, error) {
	args := m.Called(ctx, slug, f)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) UploadChapterImages(ctx context.Context, slug, title string, files []upload.File) ([]string, error) {
	args := m.Called(ctx, slug, title, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUploader) UploadAvatar(ctx context.Context, userID string, f upload.File) (string, error) {
	args := m.Called(ctx, userID, f)
	return args.String(0), args.Error(1)
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

func (m *MockFollowService) List(ctx context.Context, userID string, page pagination.Page) (*FollowPage, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FollowPage), args.Error(1)
}

func (m *MockFollowService) TouchLastRead(ctx context.Context, userID, slug string) error {
	return m.Called(ctx, userID, slug).Error(0)
}

func (m *MockFollowService) FollowerCount(ctx context.Context, slug string) (int64, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(int64), args.Error(1)
}
