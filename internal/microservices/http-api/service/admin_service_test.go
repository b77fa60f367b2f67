package service

import (
	"context"
	"testing"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adminFixture struct {
	users      *MockUserRepository
	comics     *MockComicRepository
	chapters   *MockChapterRepository
	categories *MockCategoryRepository
	follows    *MockFollowRepository
	views      *MockViewStatRepository
	uploader   *MockUploader
	svc        AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		users:      new(MockUserRepository),
		comics:     new(MockComicRepository),
		chapters:   new(MockChapterRepository),
		categories: new(MockCategoryRepository),
		follows:    new(MockFollowRepository),
		views:      new(MockViewStatRepository),
		uploader:   new(MockUploader),
	}
	f.svc = NewAdminService(f.users, f.comics, f.chapters, f.categories, f.follows, f.views, f.uploader,
		repository.NewCache(nil, 0), "https://source.example/truyen/", zap.NewNop())
	return f
}

// expectLatestRefresh stubs the follow refresh that runs after chapter edits.
func (f *adminFixture) expectLatestRefresh(comicID int64, latest string) {
	chs := map[int64][]models.Chapter{}
	if latest != "" {
		chs[comicID] = []models.Chapter{{Title: latest}}
	}
	f.chapters.On("Latest", mock.Anything, []int64{comicID}, 1).Return(chs, nil)
	f.follows.On("SetLatestChapter", mock.Anything, mock.Anything, latest).Return(nil)
}

func TestStats_SevenDays(t *testing.T) {
	f := newAdminFixture()
	f.users.On("Count", mock.Anything).Return(int64(3), nil)
	f.comics.On("Count", mock.Anything).Return(int64(10), nil)
	f.chapters.On("Count", mock.Anything).Return(int64(120), nil)
	f.chapters.On("TotalViews", mock.Anything).Return(int64(5000), nil)
	f.views.On("Days", mock.Anything, mock.MatchedBy(func(d []string) bool { return len(d) == 7 })).
		Return(map[string]int64{}, nil)

	st, err := f.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Users)
	assert.Equal(t, int64(5000), st.TotalViews)
	require.Len(t, st.Daily, 7)
	assert.Less(t, st.Daily[0].Day, st.Daily[6].Day)
	assert.Zero(t, st.Daily[6].Count)
}

func TestCreateComic_Defaults(t *testing.T) {
	f := newAdminFixture()
	cover := &upload.File{Name: "cover.png", Data: []byte("png")}
	created := &models.Comic{ID: 1, Slug: "dao-hai-tac"}

	f.comics.On("FindBySlug", mock.Anything, "dao-hai-tac").Return(nil, gorm.ErrRecordNotFound).Once()
	f.uploader.On("UploadCover", mock.Anything, "dao-hai-tac", *cover).Return("https://img/cover.png", nil)
	f.comics.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Comic) bool {
		return c.Author == DefaultAuthor && c.Status == DefaultStatus &&
			c.Link == "https://source.example/truyen/dao-hai-tac" && c.CoverURL == "https://img/cover.png"
	})).Return(nil)
	f.categories.On("FindByIDs", mock.Anything, []int64{2}).Return([]models.Category{{ID: 2}}, nil)
	f.comics.On("ReplaceCategories", mock.Anything, mock.Anything, []int64{2}).Return(nil)
	f.comics.On("FindBySlug", mock.Anything, "dao-hai-tac").Return(created, nil)

	got, err := f.svc.CreateComic(context.Background(), ComicInput{Title: " Đảo Hải Tặc ", CategoryIDs: []int64{2}}, cover)

	require.NoError(t, err)
	assert.Equal(t, created, got)
	f.comics.AssertExpectations(t)
}

func TestCreateComic_Rejects(t *testing.T) {
	cover := &upload.File{Name: "c.png", Data: []byte("x")}

	t.Run("file name as title", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.CreateComic(context.Background(), ComicInput{Title: "cover.jpg"}, cover)
		assert.Equal(t, ErrInvalidTitle, err)
	})
	t.Run("missing cover", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.CreateComic(context.Background(), ComicInput{Title: "Naruto"}, nil)
		assert.Equal(t, ErrCoverRequired, err)
	})
	t.Run("slug taken", func(t *testing.T) {
		f := newAdminFixture()
		f.comics.On("FindBySlug", mock.Anything, "naruto").Return(&models.Comic{ID: 9}, nil)
		_, err := f.svc.CreateComic(context.Background(), ComicInput{Title: "Naruto"}, cover)
		assert.Equal(t, ErrSlugTaken, err)
		f.uploader.AssertNotCalled(t, "UploadCover", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateComic_RenamePropagatesToFollows(t *testing.T) {
	f := newAdminFixture()
	comic := &models.Comic{ID: 4, Slug: "old", Title: "Old"}
	f.comics.On("FindBySlug", mock.Anything, "old").Return(comic, nil)
	f.comics.On("FindBySlug", mock.Anything, "new-name").Return(nil, gorm.ErrRecordNotFound).Once()
	f.comics.On("Update", mock.Anything, comic).Return(nil)
	f.follows.On("UpdateComicInfo", mock.Anything, "old", comic).Return(nil)
	f.comics.On("FindBySlug", mock.Anything, "new-name").Return(comic, nil)

	got, err := f.svc.UpdateComic(context.Background(), "old", ComicInput{Slug: "New Name", Status: "Hoàn thành"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "new-name", got.Slug)
	assert.Equal(t, "Hoàn thành", got.Status)
	assert.Equal(t, "https://source.example/truyen/new-name", got.Link)
	f.follows.AssertExpectations(t)
}

func TestCreateChapter(t *testing.T) {
	f := newAdminFixture()
	comic := &models.Comic{ID: 7, Slug: "naruto"}
	files := []upload.File{{Name: "1.png"}, {Name: "2.png"}}

	f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
	f.chapters.On("FindByTitle", mock.Anything, int64(7), "Chapter 4").Return(nil, gorm.ErrRecordNotFound)
	f.chapters.On("FindByNumber", mock.Anything, int64(7), float64(4)).Return(nil, gorm.ErrRecordNotFound)
	f.uploader.On("UploadChapterImages", mock.Anything, "naruto", "Chapter 4", files).Return([]string{"u1", "u2"}, nil)
	f.chapters.On("Create", mock.Anything, mock.AnythingOfType("*models.Chapter")).Return(nil)
	f.comics.On("TouchUpdatedAt", mock.Anything, int64(7), mock.Anything).Return(nil)
	f.expectLatestRefresh(7, "Chapter 4")

	ch, err := f.svc.CreateChapter(context.Background(), "naruto", "  Chapter   4 ", files)

	require.NoError(t, err)
	assert.Equal(t, "Chapter 4", ch.Title)
	assert.Equal(t, float64(4), ch.Number)
	assert.Equal(t, "chuong-4", ch.Slug)
	assert.Equal(t, []string{"u1", "u2"}, ch.ImageURLs())
	assert.Equal(t, 2, ch.Images[1].Position)
	f.comics.AssertExpectations(t)
	f.follows.AssertExpectations(t)
}

func TestCreateChapter_Rejects(t *testing.T) {
	comic := &models.Comic{ID: 7, Slug: "naruto"}

	t.Run("bad title", func(t *testing.T) {
		f := newAdminFixture()
		f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
		_, err := f.svc.CreateChapter(context.Background(), "naruto", "Chap 4", []upload.File{{Name: "1.png"}})
		assert.Equal(t, ErrInvalidChapterTitle, err)
	})
	t.Run("duplicate", func(t *testing.T) {
		f := newAdminFixture()
		f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
		f.chapters.On("FindByTitle", mock.Anything, int64(7), "Chapter 4").Return(&models.Chapter{ID: 40}, nil)
		_, err := f.svc.CreateChapter(context.Background(), "naruto", "Chapter 4", []upload.File{{Name: "1.png"}})
		assert.Equal(t, ErrChapterExists, err)
	})
	t.Run("same number under another name", func(t *testing.T) {
		f := newAdminFixture()
		f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
		f.chapters.On("FindByTitle", mock.Anything, int64(7), "Chương 4").Return(nil, gorm.ErrRecordNotFound)
		f.chapters.On("FindByNumber", mock.Anything, int64(7), float64(4)).Return(&models.Chapter{ID: 40, Title: "Chapter 4"}, nil)
		_, err := f.svc.CreateChapter(context.Background(), "naruto", "Chương 4", []upload.File{{Name: "1.png"}})
		assert.Equal(t, ErrChapterExists, err)
		f.uploader.AssertNotCalled(t, "UploadChapterImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
	t.Run("no images", func(t *testing.T) {
		f := newAdminFixture()
		f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
		f.chapters.On("FindByTitle", mock.Anything, int64(7), "Chapter 4").Return(nil, gorm.ErrRecordNotFound)
		f.chapters.On("FindByNumber", mock.Anything, int64(7), float64(4)).Return(nil, gorm.ErrRecordNotFound)
		_, err := f.svc.CreateChapter(context.Background(), "naruto", "Chapter 4", nil)
		assert.Equal(t, ErrNoImages, err)
	})
}

func TestUpdateChapter_KeepsKnownImagesInOrder(t *testing.T) {
	f := newAdminFixture()
	comic := &models.Comic{ID: 7, Slug: "naruto"}
	ch := &models.Chapter{ID: 40, ComicID: 7, Title: "Chapter 4", Images: []models.ChapterImage{
		{Position: 1, URL: "a"}, {Position: 2, URL: "b"}, {Position: 3, URL: "c"},
	}}
	newFiles := []upload.File{{Name: "d.png"}}

	f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
	f.chapters.On("FindByID", mock.Anything, int64(7), int64(40)).Return(ch, nil)
	f.uploader.On("UploadChapterImages", mock.Anything, "naruto", "Chapter 4", newFiles).Return([]string{"d"}, nil)
	f.chapters.On("Update", mock.Anything, ch).Return(nil)
	f.expectLatestRefresh(7, "Chapter 4")

	got, err := f.svc.UpdateChapter(context.Background(), "naruto", 40, ChapterUpdate{
		KeepImages: []string{"c", "evil", "a", "c"},
		NewImages:  newFiles,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "d"}, got.ImageURLs())
}

func TestDeleteChapter_ByTitle(t *testing.T) {
	f := newAdminFixture()
	comic := &models.Comic{ID: 7, Slug: "naruto"}
	f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
	f.chapters.On("FindByTitle", mock.Anything, int64(7), "Chapter 4").Return(&models.Chapter{ID: 40}, nil)
	f.chapters.On("Delete", mock.Anything, int64(7), int64(40)).Return(nil)
	f.expectLatestRefresh(7, "Chapter 3")

	require.NoError(t, f.svc.DeleteChapter(context.Background(), "naruto", "Chapter 4"))
	f.chapters.AssertCalled(t, "Delete", mock.Anything, int64(7), int64(40))
}

func TestDeleteChapter_LastOneClearsFollows(t *testing.T) {
	f := newAdminFixture()
	comic := &models.Comic{ID: 7, Slug: "naruto"}
	f.comics.On("FindBySlug", mock.Anything, "naruto").Return(comic, nil)
	f.chapters.On("Delete", mock.Anything, int64(7), int64(11)).Return(nil)
	f.expectLatestRefresh(7, "")

	require.NoError(t, f.svc.DeleteChapter(context.Background(), "naruto", "11"))
	f.follows.AssertCalled(t, "SetLatestChapter", mock.Anything, "naruto", "")
}

func TestDeleteChapter_Unknown(t *testing.T) {
	f := newAdminFixture()
	f.comics.On("FindBySlug", mock.Anything, "naruto").Return(&models.Comic{ID: 7}, nil)
	f.chapters.On("Delete", mock.Anything, int64(7), int64(99)).Return(gorm.ErrRecordNotFound)

	assert.Equal(t, ErrChapterNotFound, f.svc.DeleteChapter(context.Background(), "naruto", "99"))
}

func TestCategoryMutations(t *testing.T) {
	t.Run("slug taken", func(t *testing.T) {
		f := newAdminFixture()
		f.categories.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
		_, err := f.svc.CreateCategory(context.Background(), "Hành Động", "hanh-dong")
		assert.Equal(t, ErrCategorySlugTaken, err)
	})
	t.Run("slug normalized", func(t *testing.T) {
		f := newAdminFixture()
		f.categories.On("Create", mock.Anything, mock.Anything).Return(nil)
		cat, err := f.svc.CreateCategory(context.Background(), "Hành Động", "Hành Động")
		require.NoError(t, err)
		assert.Equal(t, "hanh-dong", cat.Slug)
	})
	t.Run("invalid", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.CreateCategory(context.Background(), " ", "x")
		assert.Equal(t, ErrCategoryInvalid, err)
	})
	t.Run("delete missing", func(t *testing.T) {
		f := newAdminFixture()
		f.categories.On("Delete", mock.Anything, int64(5)).Return(gorm.ErrRecordNotFound)
		assert.Equal(t, ErrCategoryNotFound, f.svc.DeleteCategory(context.Background(), 5))
	})
}
