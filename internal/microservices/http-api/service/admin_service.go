package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/pagination"
	"comichub/internal/textutil"
	"comichub/internal/upload"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults applied to comics created without these fields.
const (
	DefaultAuthor = "Đang Cập Nhật"
	DefaultStatus = "Đang Tiến Hành"
)

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type DashboardStats struct {
	Users      int64      `json:"users"`
	Comics     int64      `json:"comics"`
	Chapters   int64      `json:"chapters"`
	TotalViews int64      `json:"total_views"`
	Daily      []DayCount `json:"daily_views"`
}

// ComicInput carries admin edits. Empty strings leave a field unchanged on
// update; a nil CategoryIDs keeps the current categories.
type ComicInput struct {
	Title       string
	Slug        string
	OtherName   string
	Author      string
	Status      string
	Description string
	CategoryIDs []int64
}

// ChapterUpdate renames a chapter and rebuilds its pages: the kept URLs in
// the given order followed by the new files.
type ChapterUpdate struct {
	Title      string
	KeepImages []string
	NewImages  []upload.File
}

type AdminService interface {
	Stats(ctx context.Context) (*DashboardStats, error)

	ListCategories(ctx context.Context, page pagination.Page) ([]models.Category, int64, error)
	CreateCategory(ctx context.Context, name, slug string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, slug string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListComics(ctx context.Context, search string, page pagination.Page) ([]models.Comic, int64, error)
	GetComic(ctx context.Context, slug string) (*models.Comic, error)
	CreateComic(ctx context.Context, in ComicInput, cover *upload.File) (*models.Comic, error)
	UpdateComic(ctx context.Context, slug string, in ComicInput, cover *upload.File) (*models.Comic, error)
	DeleteComic(ctx context.Context, slug string) error

	ListChapters(ctx context.Context, slug string) ([]ChapterLink, error)
	GetChapter(ctx context.Context, slug string, id int64) (*models.Chapter, error)
	CreateChapter(ctx context.Context, slug, title string, images []upload.File) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, slug string, id int64, in ChapterUpdate) (*models.Chapter, error)
	// DeleteChapter accepts a chapter id or title.
	DeleteChapter(ctx context.Context, slug, ref string) error
}

type adminService struct {
	userRepo     repository.UserRepository
	comicRepo    repository.ComicRepository
	chapterRepo  repository.ChapterRepository
	categoryRepo repository.CategoryRepository
	followRepo   repository.FollowRepository
	viewStats    repository.ViewStatRepository
	uploader     upload.Uploader
	cache        *repository.Cache
	sourceURL    string
	log          *zap.Logger
}

func NewAdminService(
	userRepo repository.UserRepository,
	comicRepo repository.ComicRepository,
	chapterRepo repository.ChapterRepository,
	categoryRepo repository.CategoryRepository,
	followRepo repository.FollowRepository,
	viewStats repository.ViewStatRepository,
	uploader upload.Uploader,
	cache *repository.Cache,
	sourceURL string,
	log *zap.Logger,
) AdminService {
	return &adminService{
		userRepo:     userRepo,
		comicRepo:    comicRepo,
		chapterRepo:  chapterRepo,
		categoryRepo: categoryRepo,
		followRepo:   followRepo,
		viewStats:    viewStats,
		uploader:     uploader,
		cache:        cache,
		sourceURL:    strings.TrimRight(sourceURL, "/"),
		log:          log,
	}
}

// Stats returns dashboard totals and views for the last seven days, oldest first.
func (s *adminService) Stats(ctx context.Context) (*DashboardStats, error) {
	today := time.Now().In(textutil.Vietnam)
	days := make([]string, 7)
	for i := range days {
		days[i] = today.AddDate(0, 0, i-6).Format("2006-01-02")
	}

	var (
		st     DashboardStats
		counts map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = s.userRepo.Count(gctx); return err })
	g.Go(func() (err error) { st.Comics, err = s.comicRepo.Count(gctx); return err })
	g.Go(func() (err error) { st.Chapters, err = s.chapterRepo.Count(gctx); return err })
	g.Go(func() (err error) { st.TotalViews, err = s.chapterRepo.TotalViews(gctx); return err })
	g.Go(func() (err error) { counts, err = s.viewStats.Days(gctx, days); return err })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.Daily = make([]DayCount, 0, len(days))
	for _, d := range days {
		st.Daily = append(st.Daily, DayCount{Day: d, Count: counts[d]})
	}
	return &st, nil
}

func (s *adminService) ListCategories(ctx context.Context, page pagination.Page) ([]models.Category, int64, error) {
	return s.categoryRepo.ListPaged(ctx, page)
}

func categoryFields(name, slug string) (string, string, error) {
	name = strings.TrimSpace(name)
	slug = textutil.Slugify(slug)
	if name == "" || slug == "" {
		return "", "", ErrCategoryInvalid
	}
	return name, slug, nil
}

func (s *adminService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	name, slug, err := categoryFields(name, slug)
	if err != nil {
		return nil, err
	}
	cat := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategorySlugTaken
		}
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return cat, nil
}

func (s *adminService) UpdateCategory(ctx context.Context, id int64, name, slug string) (*models.Category, error) {
	name, slug, err := categoryFields(name, slug)
	if err != nil {
		return nil, err
	}
	cat, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	cat.Name, cat.Slug = name, slug
	if err := s.categoryRepo.Update(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategorySlugTaken
		}
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return cat, nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *adminService) ListComics(ctx context.Context, search string, page pagination.Page) ([]models.Comic, int64, error) {
	return s.comicRepo.SearchByTitle(ctx, search, page)
}

func (s *adminService) GetComic(ctx context.Context, slug string) (*models.Comic, error) {
	return findComic(ctx, s.comicRepo, slug)
}

func (s *adminService) CreateComic(ctx context.Context, in ComicInput, cover *upload.File) (*models.Comic, error) {
	title := strings.TrimSpace(in.Title)
	if !textutil.ValidComicTitle(title) {
		return nil, ErrInvalidTitle
	}
	if cover == nil {
		return nil, ErrCoverRequired
	}
	slug := textutil.Slugify(in.Slug)
	if slug == "" {
		slug = textutil.Slugify(title)
	}
	if slug == "" {
		return nil, ErrInvalidTitle
	}
	if _, err := s.comicRepo.FindBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	coverURL, err := s.uploader.UploadCover(ctx, slug, *cover)
	if err != nil {
		return nil, err
	}

	comic := &models.Comic{
		Slug:        slug,
		Title:       title,
		OtherName:   strings.TrimSpace(in.OtherName),
		Link:        s.sourceURL + "/" + slug,
		CoverURL:    coverURL,
		Author:      orDefault(in.Author, DefaultAuthor),
		Status:      orDefault(in.Status, DefaultStatus),
		Description: strings.TrimSpace(in.Description),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.comicRepo.Create(ctx, comic); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	if len(in.CategoryIDs) > 0 {
		if err := s.setCategories(ctx, comic, in.CategoryIDs); err != nil {
			return nil, err
		}
	}
	s.invalidateCatalog(ctx)
	return s.GetComic(ctx, slug)
}

func (s *adminService) UpdateComic(ctx context.Context, slug string, in ComicInput, cover *upload.File) (*models.Comic, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	oldSlug := comic.Slug

	if t := strings.TrimSpace(in.Title); t != "" {
		if !textutil.ValidComicTitle(t) {
			return nil, ErrInvalidTitle
		}
		comic.Title = t
	}
	if ns := textutil.Slugify(in.Slug); ns != "" && ns != comic.Slug {
		if _, err := s.comicRepo.FindBySlug(ctx, ns); err == nil {
			return nil, ErrSlugTaken
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
		comic.Slug = ns
		comic.Link = s.sourceURL + "/" + ns
	}
	setIfGiven(&comic.OtherName, in.OtherName)
	setIfGiven(&comic.Author, in.Author)
	setIfGiven(&comic.Status, in.Status)
	setIfGiven(&comic.Description, in.Description)

	if cover != nil {
		url, err := s.uploader.UploadCover(ctx, comic.Slug, *cover)
		if err != nil {
			return nil, err
		}
		comic.CoverURL = url
	}
	comic.UpdatedAt = time.Now().UTC()

	if err := s.comicRepo.Update(ctx, comic); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	if in.CategoryIDs != nil {
		if err := s.setCategories(ctx, comic, in.CategoryIDs); err != nil {
			return nil, err
		}
	}
	if err := s.followRepo.UpdateComicInfo(ctx, oldSlug, comic); err != nil {
		s.log.Warn("refresh follows", zap.String("slug", oldSlug), zap.Error(err))
	}
	s.invalidateCatalog(ctx, repository.FollowersKey(oldSlug))
	return s.GetComic(ctx, comic.Slug)
}

func (s *adminService) setCategories(ctx context.Context, comic *models.Comic, ids []int64) error {
	cats, err := s.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(cats) != len(slices.Compact(slices.Sorted(slices.Values(ids)))) {
		return ErrCategoryNotFound
	}
	found := make([]int64, 0, len(cats))
	for _, c := range cats {
		found = append(found, c.ID)
	}
	return s.comicRepo.ReplaceCategories(ctx, comic, found)
}

func (s *adminService) DeleteComic(ctx context.Context, slug string) error {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return err
	}
	if err := s.comicRepo.Delete(ctx, comic.ID); err != nil {
		return err
	}
	s.invalidateCatalog(ctx, repository.FollowersKey(slug))
	return nil
}

func (s *adminService) ListChapters(ctx context.Context, slug string) ([]ChapterLink, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	chapters, err := s.chapterRepo.ListByComic(ctx, comic.ID)
	if err != nil {
		return nil, err
	}
	return chapterLinks(chapters), nil
}

func (s *adminService) GetChapter(ctx context.Context, slug string, id int64) (*models.Chapter, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	return s.chapterByID(ctx, comic.ID, id)
}

func (s *adminService) chapterByID(ctx context.Context, comicID, id int64) (*models.Chapter, error) {
	ch, err := s.chapterRepo.FindByID(ctx, comicID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}
	return ch, nil
}

// checkChapterTitle validates title and makes sure no other chapter of the
// comic already uses it or its number. Chapters are addressed by number in
// the reader, so "Chương 1" collides with "Chapter 1".
func (s *adminService) checkChapterTitle(ctx context.Context, comicID int64, title string, selfID int64) error {
	if !textutil.ValidChapterTitle(title) {
		return ErrInvalidChapterTitle
	}
	existing, err := s.chapterRepo.FindByTitle(ctx, comicID, title)
	if err == nil && existing.ID != selfID {
		return ErrChapterExists
	}
	if err != nil && !repository.IsNotFound(err) {
		return err
	}

	number, _ := textutil.ChapterNumber(title)
	existing, err = s.chapterRepo.FindByNumber(ctx, comicID, number)
	if err == nil && existing.ID != selfID {
		return ErrChapterExists
	}
	if err != nil && !repository.IsNotFound(err) {
		return err
	}
	return nil
}

func buildImages(urls []string) []models.ChapterImage {
	images := make([]models.ChapterImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, models.ChapterImage{Position: i + 1, URL: u})
	}
	return images
}

// CreateChapter uploads the pages in order and bumps the comic's update time.
func (s *adminService) CreateChapter(ctx context.Context, slug, title string, images []upload.File) (*models.Chapter, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	title = strings.Join(strings.Fields(title), " ")
	if err := s.checkChapterTitle(ctx, comic.ID, title, 0); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	urls, err := s.uploader.UploadChapterImages(ctx, comic.Slug, title, images)
	if err != nil {
		return nil, err
	}

	number, _ := textutil.ChapterNumber(title)
	ch := &models.Chapter{
		ComicID: comic.ID,
		Title:   title,
		Number:  number,
		Slug:    textutil.ChapterSlug(title),
		Images:  buildImages(urls),
	}
	if err := s.chapterRepo.Create(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChapterExists
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.comicRepo.TouchUpdatedAt(ctx, comic.ID, now); err != nil {
		s.log.Warn("bump comic update time", zap.String("slug", comic.Slug), zap.Error(err))
	}
	s.refreshLatestChapter(ctx, comic)
	s.invalidateCatalog(ctx)
	return ch, nil
}

func (s *adminService) UpdateChapter(ctx context.Context, slug string, id int64, in ChapterUpdate) (*models.Chapter, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	ch, err := s.chapterByID(ctx, comic.ID, id)
	if err != nil {
		return nil, err
	}

	if title := strings.Join(strings.Fields(in.Title), " "); title != "" && title != ch.Title {
		if err := s.checkChapterTitle(ctx, comic.ID, title, ch.ID); err != nil {
			return nil, err
		}
		ch.Title = title
		ch.Number, _ = textutil.ChapterNumber(title)
		ch.Slug = textutil.ChapterSlug(title)
	}

	current := ch.ImageURLs()
	urls := make([]string, 0, len(in.KeepImages)+len(in.NewImages))
	for _, u := range in.KeepImages {
		if slices.Contains(current, u) && !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	if len(in.NewImages) > 0 {
		uploaded, err := s.uploader.UploadChapterImages(ctx, comic.Slug, ch.Title, in.NewImages)
		if err != nil {
			return nil, err
		}
		urls = append(urls, uploaded...)
	}
	if len(urls) == 0 {
		return nil, ErrNoImages
	}
	ch.Images = buildImages(urls)

	if err := s.chapterRepo.Update(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChapterExists
		}
		return nil, err
	}
	s.refreshLatestChapter(ctx, comic)
	s.invalidateCatalog(ctx)
	return ch, nil
}

func (s *adminService) DeleteChapter(ctx context.Context, slug, ref string) error {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		ch, err := s.chapterRepo.FindByTitle(ctx, comic.ID, strings.TrimSpace(ref))
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrChapterNotFound
			}
			return err
		}
		id = ch.ID
	}

	if err := s.chapterRepo.Delete(ctx, comic.ID, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrChapterNotFound
		}
		return fmt.Errorf("delete chapter %s: %w", ref, err)
	}
	s.refreshLatestChapter(ctx, comic)
	s.invalidateCatalog(ctx)
	return nil
}

// refreshLatestChapter copies the comic's newest chapter title onto its follows.
func (s *adminService) refreshLatestChapter(ctx context.Context, comic *models.Comic) {
	latest, err := s.chapterRepo.Latest(ctx, []int64{comic.ID}, 1)
	if err != nil {
		s.log.Warn("load latest chapter", zap.String("slug", comic.Slug), zap.Error(err))
		return
	}
	title := ""
	if chs := latest[comic.ID]; len(chs) > 0 {
		title = chs[0].Title
	}
	if err := s.followRepo.SetLatestChapter(ctx, comic.Slug, title); err != nil {
		s.log.Warn("refresh follows", zap.String("slug", comic.Slug), zap.Error(err))
	}
}

func (s *adminService) invalidateCatalog(ctx context.Context, extra ...string) {
	keys := append([]string{repository.CatalogEntriesKey}, extra...)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("invalidate catalog cache", zap.Error(err))
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func setIfGiven(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
