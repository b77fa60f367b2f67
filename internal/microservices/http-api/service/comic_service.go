package service

import (
	"context"
	"slices"
	"time"

	"comichub/internal/catalog"
	"comichub/internal/history"
	"comichub/internal/metrics"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/pagination"
	"comichub/internal/textutil"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ChapterLink is a chapter without its images.
type ChapterLink struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Number    float64   `json:"number"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

func chapterLink(ch models.Chapter) ChapterLink {
	return ChapterLink{ID: ch.ID, Title: ch.Title, Slug: ch.Slug, Number: ch.Number, Views: ch.Views, CreatedAt: ch.CreatedAt}
}

func chapterLinks(chs []models.Chapter) []ChapterLink {
	out := make([]ChapterLink, 0, len(chs))
	for _, ch := range chs {
		out = append(out, chapterLink(ch))
	}
	return out
}

// ComicCard is a comic as shown on the home feed.
type ComicCard struct {
	ID             int64         `json:"id"`
	Slug           string        `json:"slug"`
	Title          string        `json:"title"`
	CoverURL       string        `json:"cover_url"`
	Status         string        `json:"status"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Followers      int64         `json:"followers"`
	Views          int64         `json:"views"`
	ChapterCount   int           `json:"chapter_count"`
	LatestChapters []ChapterLink `json:"latest_chapters"`
}

type CardPage struct {
	Items      []ComicCard `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Pages      []string    `json:"pages"`
}

type CategoryView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ComicDetail struct {
	Comic        *models.Comic  `json:"comic"`
	UpdatedLabel string         `json:"updated_label"`
	Categories   []CategoryView `json:"categories"`
	Chapters     []ChapterLink  `json:"chapters"`
	Followers    int64          `json:"followers"`
	Views        int64          `json:"views"`
	IsFollowed   bool           `json:"is_followed"`
	ReadChapters []string       `json:"read_chapters"`
	LastRead     *history.Item  `json:"last_read,omitempty"`
}

type ChapterView struct {
	ComicSlug  string        `json:"comic_slug"`
	ComicTitle string        `json:"comic_title"`
	Chapter    ChapterLink   `json:"chapter"`
	Images     []string      `json:"images"`
	Prev       string        `json:"prev,omitempty"`
	Next       string        `json:"next,omitempty"`
	Chapters   []ChapterLink `json:"chapters"`
}

type CategoryComics struct {
	Category CategoryView   `json:"category"`
	Result   catalog.Result `json:"result"`
}

type ComicService interface {
	Home(ctx context.Context, page pagination.Page) (*CardPage, error)
	Search(ctx context.Context, q catalog.Query) (*catalog.Result, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryComics(ctx context.Context, slug string, q catalog.Query) (*CategoryComics, error)
	Detail(ctx context.Context, slug string, viewer Viewer) (*ComicDetail, error)
	Chapter(ctx context.Context, slug, chapterSlug string) (*ChapterView, error)
	RecordRead(ctx context.Context, slug, chapterSlug string, viewer Viewer) (*history.Item, error)
}

type comicService struct {
	comicRepo    repository.ComicRepository
	chapterRepo  repository.ChapterRepository
	categoryRepo repository.CategoryRepository
	viewStats    repository.ViewStatRepository
	follows      FollowService
	histories    HistoryService
	cache        *repository.Cache
	dedupeWindow time.Duration
	log          *zap.Logger
}

func NewComicService(
	comicRepo repository.ComicRepository,
	chapterRepo repository.ChapterRepository,
	categoryRepo repository.CategoryRepository,
	viewStats repository.ViewStatRepository,
	follows FollowService,
	histories HistoryService,
	cache *repository.Cache,
	dedupeWindow time.Duration,
	log *zap.Logger,
) ComicService {
	return &comicService{
		comicRepo:    comicRepo,
		chapterRepo:  chapterRepo,
		categoryRepo: categoryRepo,
		viewStats:    viewStats,
		follows:      follows,
		histories:    histories,
		cache:        cache,
		dedupeWindow: dedupeWindow,
		log:          log,
	}
}

// Home lists complete comics by last update with their three newest chapters.
func (s *comicService) Home(ctx context.Context, page pagination.Page) (*CardPage, error) {
	comics, total, err := s.comicRepo.ListLatest(ctx, page)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(comics))
	for _, c := range comics {
		ids = append(ids, c.ID)
	}

	var (
		stats  map[int64]models.ComicStats
		latest map[int64][]models.Chapter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.comicRepo.Stats(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		latest, err = s.chapterRepo.Latest(gctx, ids, 3)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cards := make([]ComicCard, 0, len(comics))
	for _, c := range comics {
		st := stats[c.ID]
		cards = append(cards, ComicCard{
			ID:             c.ID,
			Slug:           c.Slug,
			Title:          c.Title,
			CoverURL:       c.CoverURL,
			Status:         c.Status,
			UpdatedAt:      c.UpdatedAt,
			Followers:      st.Followers,
			Views:          st.Views,
			ChapterCount:   st.ChapterCount,
			LatestChapters: chapterLinks(latest[c.ID]),
		})
	}

	totalPages := pagination.TotalPages(total, page.Size)
	return &CardPage{
		Items:      cards,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
		Pages:      pagination.Range(page.Number, totalPages),
	}, nil
}

// entries returns the searchable catalog, cached in Redis for CACHE_TTL.
func (s *comicService) entries(ctx context.Context) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	ok, err := s.cache.GetJSON(ctx, "catalog", repository.CatalogEntriesKey, &entries)
	if err != nil {
		s.log.Warn("read catalog cache", zap.Error(err))
	}
	if ok {
		return entries, nil
	}

	entries, err = s.comicRepo.CatalogEntries(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, repository.CatalogEntriesKey, entries); err != nil {
		s.log.Warn("write catalog cache", zap.Error(err))
	}
	return entries, nil
}

func (s *comicService) Search(ctx context.Context, q catalog.Query) (*catalog.Result, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	res := catalog.Search(entries, q)
	return &res, nil
}

func (s *comicService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *comicService) CategoryComics(ctx context.Context, slug string, q catalog.Query) (*CategoryComics, error) {
	cats, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]string, len(cats))
	for _, c := range cats {
		known[c.Slug] = c.Name
	}
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}

	q.Category = slug
	return &CategoryComics{
		Category: CategoryView{Name: catalog.CategoryLabel(slug, known, entries), Slug: slug},
		Result:   catalog.Search(entries, q),
	}, nil
}

// Detail gathers a comic page: chapters, counters and what the viewer has read.
func (s *comicService) Detail(ctx context.Context, slug string, viewer Viewer) (*ComicDetail, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}

	var (
		chapters  []models.Chapter
		stats     map[int64]models.ComicStats
		followers int64
		followed  bool
		items     []history.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chapters, err = s.chapterRepo.ListByComic(gctx, comic.ID)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.comicRepo.Stats(gctx, []int64{comic.ID})
		return err
	})
	g.Go(func() (err error) {
		followers, err = s.follows.FollowerCount(gctx, comic.Slug)
		return err
	})
	g.Go(func() (err error) {
		followed, err = s.follows.IsFollowed(gctx, viewer.UserID, comic.Slug)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.histories.Items(gctx, viewer)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cats := make([]CategoryView, 0, len(comic.Categories))
	for _, c := range comic.Categories {
		cats = append(cats, CategoryView{Name: c.Name, Slug: c.Slug})
	}

	detail := &ComicDetail{
		Comic:        comic,
		UpdatedLabel: textutil.FormatUpdatedAt(comic.UpdatedAt),
		Categories:   cats,
		Chapters:     chapterLinks(chapters),
		Followers:    followers,
		Views:        stats[comic.ID].Views,
		IsFollowed:   followed,
		ReadChapters: []string{},
	}
	if last, ok := history.LastRead(items, comic.Slug, comic.Title); ok {
		detail.ReadChapters = last.ChaptersRead
		detail.LastRead = &last
	}
	return detail, nil
}

func (s *comicService) findChapter(ctx context.Context, comic *models.Comic, chapterSlug string) (*models.Chapter, error) {
	n, ok := textutil.ParseChapterSlug(chapterSlug)
	if !ok {
		return nil, ErrChapterNotFound
	}
	ch, err := s.chapterRepo.FindByNumber(ctx, comic.ID, n)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}
	return ch, nil
}

// Chapter returns the reader view; prev and next follow ascending chapter numbers.
func (s *comicService) Chapter(ctx context.Context, slug, chapterSlug string) (*ChapterView, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	ch, err := s.findChapter(ctx, comic, chapterSlug)
	if err != nil {
		return nil, err
	}
	all, err := s.chapterRepo.ListByComic(ctx, comic.ID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(all)

	view := &ChapterView{
		ComicSlug:  comic.Slug,
		ComicTitle: comic.Title,
		Chapter:    chapterLink(*ch),
		Images:     ch.ImageURLs(),
		Chapters:   chapterLinks(all),
	}
	idx := slices.IndexFunc(all, func(c models.Chapter) bool { return c.ID == ch.ID })
	if idx > 0 {
		view.Prev = all[idx-1].Slug
	}
	if idx >= 0 && idx < len(all)-1 {
		view.Next = all[idx+1].Slug
	}
	return view, nil
}

// RecordRead counts a view once per viewer and chapter within the dedupe
// window, then updates the viewer's history and follow.
func (s *comicService) RecordRead(ctx context.Context, slug, chapterSlug string, viewer Viewer) (*history.Item, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	ch, err := s.findChapter(ctx, comic, chapterSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	first := true
	if key := viewer.key(); key != "" {
		if first, err = s.cache.FirstSeen(ctx, repository.ViewSeenKey(key, ch.ID), s.dedupeWindow); err != nil {
			s.log.Warn("view dedupe unavailable", zap.Error(err))
		}
	}
	if first {
		if err := s.chapterRepo.IncrementViews(ctx, ch.ID); err != nil {
			return nil, err
		}
		if err := s.viewStats.Increment(ctx, now.In(textutil.Vietnam).Format("2006-01-02")); err != nil {
			s.log.Warn("daily view stat", zap.Error(err))
		}
		metrics.ObserveChapterRead()
	}

	item, err := s.histories.Record(ctx, viewer, history.Item{
		Slug:         comic.Slug,
		Title:        comic.Title,
		Cover:        comic.CoverURL,
		Chapter:      ch.Title,
		ChaptersRead: []string{ch.Title},
		ReadAt:       now.UTC(),
	})
	if err != nil {
		return nil, err
	}

	if viewer.Authenticated() {
		if err := s.follows.TouchLastRead(ctx, viewer.UserID, comic.Slug); err != nil {
			s.log.Warn("touch follow", zap.String("slug", comic.Slug), zap.Error(err))
		}
	}
	return &item, nil
}
