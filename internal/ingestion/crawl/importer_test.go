package crawl

import (
	"context"
	"strings"
	"testing"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockComics struct {
	repository.ComicRepository
	mock.Mock
}

func (m *mockComics) FindBySlug(ctx context.Context, slug string) (*models.Comic, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1)
}

func (m *mockComics) Create(ctx context.Context, c *models.Comic) error {
	args := m.Called(ctx, c)
	c.ID = 10
	return args.Error(0)
}

func (m *mockComics) Update(ctx context.Context, c *models.Comic) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockComics) ReplaceCategories(ctx context.Context, c *models.Comic, ids []int64) error {
	return m.Called(ctx, c, ids).Error(0)
}

type mockChapters struct {
	repository.ChapterRepository
	mock.Mock
}

func (m *mockChapters) ListByComic(ctx context.Context, comicID int64) ([]models.Chapter, error) {
	args := m.Called(ctx, comicID)
	return args.Get(0).([]models.Chapter), args.Error(1)
}

func (m *mockChapters) Create(ctx context.Context, ch *models.Chapter) error {
	return m.Called(ctx, ch).Error(0)
}

type mockCategories struct {
	repository.CategoryRepository
	mock.Mock
}

func (m *mockCategories) FirstOrCreateBySlug(ctx context.Context, name, slug string) (*models.Category, error) {
	args := m.Called(ctx, name, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

const export = `[
  {
    "title": "Đảo Hải Tặc",
    "cover": "images/dao-hai-tac/cover.jpg",
    "genres": ["Hành Động", "Phiêu Lưu"],
    "updated_at": "[Cập nhật lúc: 2024-03-02 00:30:00]",
    "chapters": [
      {"title": "Chapter 1", "local_images": ["images/dao-hai-tac/chapter-1/1.jpg", "https://cdn.example/2.jpg"]},
      {"title": "Chapter 2", "local_images": ["x.jpg"]},
      {"title": "Ngoại truyện", "local_images": ["y.jpg"]},
      {"title": "Chapter 3", "local_images": []}
    ]
  }
]`

func TestLoad(t *testing.T) {
	comics, err := Load(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, comics, 1)
	assert.Equal(t, "Đảo Hải Tặc", comics[0].Title)
	assert.Len(t, comics[0].Chapters, 4)

	_, err = Load(strings.NewReader(`{"title": 1}`))
	assert.Error(t, err)
}

func TestImport_CreatesComicAndNewChapters(t *testing.T) {
	comics, err := Load(strings.NewReader(export))
	require.NoError(t, err)

	comicRepo := new(mockComics)
	chapterRepo := new(mockChapters)
	categoryRepo := new(mockCategories)

	categoryRepo.On("FirstOrCreateBySlug", mock.Anything, "Hành Động", "hanh-dong").Return(&models.Category{ID: 1}, nil)
	categoryRepo.On("FirstOrCreateBySlug", mock.Anything, "Phiêu Lưu", "phieu-luu").Return(&models.Category{ID: 2}, nil)

	comicRepo.On("FindBySlug", mock.Anything, "dao-hai-tac").Return(nil, gorm.ErrRecordNotFound)
	comicRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Comic) bool {
		return c.Slug == "dao-hai-tac" &&
			c.Author == defaultAuthor &&
			c.Status == defaultStatus &&
			c.CoverURL == "https://img.example/images/dao-hai-tac/cover.jpg" &&
			c.Link == "https://source.example/truyen/dao-hai-tac" &&
			c.UpdatedAt.Hour() == 17
	})).Return(nil)
	comicRepo.On("ReplaceCategories", mock.Anything, mock.Anything, []int64{1, 2}).Return(nil)

	chapterRepo.On("ListByComic", mock.Anything, int64(10)).Return([]models.Chapter{{Title: "Chapter 2", Number: 2}}, nil)
	chapterRepo.On("Create", mock.Anything, mock.MatchedBy(func(ch *models.Chapter) bool {
		return ch.Title == "Chapter 1" && ch.Slug == "chuong-1" && ch.ComicID == 10 &&
			len(ch.Images) == 2 &&
			ch.Images[0].URL == "https://img.example/images/dao-hai-tac/chapter-1/1.jpg" &&
			ch.Images[1].URL == "https://cdn.example/2.jpg" &&
			ch.Images[1].Position == 2
	})).Return(nil).Once()

	im := NewImporter(comicRepo, chapterRepo, categoryRepo, repository.NewCache(nil, 0), Options{
		SourceURL:    "https://source.example/truyen/",
		ImageBaseURL: "https://img.example",
		Workers:      2,
	}, zap.NewNop())

	report, err := im.Import(context.Background(), comics)
	require.NoError(t, err)
	assert.Equal(t, &Report{Categories: 2, ComicsCreated: 1, ChaptersCreated: 1, ChaptersSkipped: 3}, report)

	comicRepo.AssertExpectations(t)
	chapterRepo.AssertExpectations(t)
	categoryRepo.AssertExpectations(t)
}

func TestImport_UpdatesExistingAndCountsFailures(t *testing.T) {
	comics := []Comic{
		{Title: "Conan", Slug: "conan", Author: "Gosho", Link: "https://elsewhere/conan"},
		{Title: "cover.png"},
	}

	comicRepo := new(mockComics)
	chapterRepo := new(mockChapters)

	existing := &models.Comic{ID: 7, Slug: "conan", Title: "Old"}
	comicRepo.On("FindBySlug", mock.Anything, "conan").Return(existing, nil)
	comicRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Comic) bool {
		return c.ID == 7 && c.Title == "Conan" && c.Author == "Gosho" && c.Link == "https://elsewhere/conan"
	})).Return(nil)
	comicRepo.On("ReplaceCategories", mock.Anything, existing, []int64{}).Return(nil)
	chapterRepo.On("ListByComic", mock.Anything, int64(7)).Return([]models.Chapter{}, nil)

	im := NewImporter(comicRepo, chapterRepo, new(mockCategories), repository.NewCache(nil, 0), Options{}, zap.NewNop())
	report, err := im.Import(context.Background(), comics)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ComicsUpdated)
	assert.Equal(t, 1, report.Failed)
	comicRepo.AssertExpectations(t)
}

func TestImport_SkipsChapterNumbersAlreadyStored(t *testing.T) {
	comics := []Comic{{
		Title: "Conan", Slug: "conan",
		Chapters: []Chapter{
			{Title: "Chương 1", LocalImages: []string{"a.jpg"}},
			{Title: "Chapter 1.5", LocalImages: []string{"b.jpg"}},
			{Title: "Chuong 1.5", LocalImages: []string{"c.jpg"}},
		},
	}}

	comicRepo := new(mockComics)
	chapterRepo := new(mockChapters)
	existing := &models.Comic{ID: 7, Slug: "conan", Title: "Conan"}
	comicRepo.On("FindBySlug", mock.Anything, "conan").Return(existing, nil)
	comicRepo.On("Update", mock.Anything, existing).Return(nil)
	comicRepo.On("ReplaceCategories", mock.Anything, existing, []int64{}).Return(nil)
	chapterRepo.On("ListByComic", mock.Anything, int64(7)).Return([]models.Chapter{{Title: "Chapter 1", Number: 1}}, nil)
	chapterRepo.On("Create", mock.Anything, mock.MatchedBy(func(ch *models.Chapter) bool {
		return ch.Title == "Chapter 1.5" && ch.Number == 1.5
	})).Return(nil).Once()

	im := NewImporter(comicRepo, chapterRepo, new(mockCategories), repository.NewCache(nil, 0), Options{}, zap.NewNop())
	report, err := im.Import(context.Background(), comics)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ChaptersCreated)
	assert.Equal(t, 2, report.ChaptersSkipped)
	chapterRepo.AssertExpectations(t)
}

func TestImport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	im := NewImporter(new(mockComics), new(mockChapters), new(mockCategories), repository.NewCache(nil, 0), Options{}, zap.NewNop())
	_, err := im.Import(ctx, []Comic{{Title: "Conan"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageURL(t *testing.T) {
	im := NewImporter(nil, nil, nil, nil, Options{ImageBaseURL: "https://img.example/"}, zap.NewNop())
	assert.Equal(t, "https://img.example/a/b.jpg", im.imageURL("./a/b.jpg"))
	assert.Equal(t, "https://img.example/a/b.jpg", im.imageURL(`a\b.jpg`))
	assert.Equal(t, "http://x/y.jpg", im.imageURL("http://x/y.jpg"))
	assert.Equal(t, "", im.imageURL(" "))
}
