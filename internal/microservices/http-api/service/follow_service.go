package service

import (
	"context"
	"time"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/pagination"

	"go.uber.org/zap"
)

// FollowPage is one page of a user's follows, newest first.
type FollowPage struct {
	Items      []models.Follow `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Pages      []string        `json:"pages"`
}

type FollowService interface {
	Follow(ctx context.Context, userID, slug string) (*models.Follow, error)
	Unfollow(ctx context.Context, userID, slug string) error
	IsFollowed(ctx context.Context, userID, slug string) (bool, error)
	List(ctx context.Context, userID string, page pagination.Page) (*FollowPage, error)
	TouchLastRead(ctx context.Context, userID, slug string) error
	FollowerCount(ctx context.Context, slug string) (int64, error)
}

type followService struct {
	followRepo  repository.FollowRepository
	comicRepo   repository.ComicRepository
	chapterRepo repository.ChapterRepository
	cache       *repository.Cache
	log         *zap.Logger
}

func NewFollowService(
	followRepo repository.FollowRepository,
	comicRepo repository.ComicRepository,
	chapterRepo repository.ChapterRepository,
	cache *repository.Cache,
	log *zap.Logger,
) FollowService {
	return &followService{followRepo: followRepo, comicRepo: comicRepo, chapterRepo: chapterRepo, cache: cache, log: log}
}

// Follow records the follow; following an already followed comic is a no-op.
func (s *followService) Follow(ctx context.Context, userID, slug string) (*models.Follow, error) {
	comic, err := findComic(ctx, s.comicRepo, slug)
	if err != nil {
		return nil, err
	}
	if existing, err := s.followRepo.Find(ctx, userID, slug); err == nil {
		return existing, nil
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	f := &models.Follow{
		UserID:    userID,
		ComicSlug: comic.Slug,
		Title:     comic.Title,
		CoverURL:  comic.CoverURL,
		CreatedAt: time.Now().UTC(),
	}
	latest, err := s.chapterRepo.Latest(ctx, []int64{comic.ID}, 1)
	if err != nil {
		return nil, err
	}
	if chs := latest[comic.ID]; len(chs) > 0 {
		f.LatestChapter = chs[0].Title
	}
	if err := s.followRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	s.invalidate(ctx, slug)
	return f, nil
}

func (s *followService) Unfollow(ctx context.Context, userID, slug string) error {
	deleted, err := s.followRepo.Delete(ctx, userID, slug)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFollowing
	}
	s.invalidate(ctx, slug)
	return nil
}

func (s *followService) IsFollowed(ctx context.Context, userID, slug string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	_, err := s.followRepo.Find(ctx, userID, slug)
	if err == nil {
		return true, nil
	}
	if repository.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// List pages through a user's follows with the latest chapter read fresh
// from the catalog.
func (s *followService) List(ctx context.Context, userID string, page pagination.Page) (*FollowPage, error) {
	follows, total, err := s.followRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(follows))
	for _, f := range follows {
		slugs = append(slugs, f.ComicSlug)
	}
	comics, err := s.comicRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]models.Comic, len(comics))
	ids := make([]int64, 0, len(comics))
	for _, c := range comics {
		bySlug[c.Slug] = c
		ids = append(ids, c.ID)
	}
	latest, err := s.chapterRepo.Latest(ctx, ids, 1)
	if err != nil {
		return nil, err
	}
	for i := range follows {
		c, ok := bySlug[follows[i].ComicSlug]
		if !ok {
			continue
		}
		follows[i].Title = c.Title
		follows[i].CoverURL = c.CoverURL
		if chs := latest[c.ID]; len(chs) > 0 {
			follows[i].LatestChapter = chs[0].Title
		}
	}

	totalPages := pagination.TotalPages(total, page.Size)
	return &FollowPage{
		Items:      follows,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
		Pages:      pagination.Range(page.Number, totalPages),
	}, nil
}

func (s *followService) TouchLastRead(ctx context.Context, userID, slug string) error {
	return s.followRepo.TouchLastRead(ctx, userID, slug, time.Now().UTC())
}

// FollowerCount is cached for CACHE_TTL and dropped on follow changes.
func (s *followService) FollowerCount(ctx context.Context, slug string) (int64, error) {
	key := repository.FollowersKey(slug)
	var cached int64
	if ok, err := s.cache.GetJSON(ctx, "followers", key, &cached); err == nil && ok {
		return cached, nil
	}
	n, err := s.followRepo.CountBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetJSON(ctx, key, n); err != nil {
		s.log.Warn("cache follower count", zap.String("slug", slug), zap.Error(err))
	}
	return n, nil
}

func (s *followService) invalidate(ctx context.Context, slug string) {
	if err := s.cache.Delete(ctx, repository.FollowersKey(slug), repository.CatalogEntriesKey); err != nil {
		s.log.Warn("invalidate follower cache", zap.String("slug", slug), zap.Error(err))
	}
}

func findComic(ctx context.Context, repo repository.ComicRepository, slug string) (*models.Comic, error) {
	c, err := repo.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrComicNotFound
		}
		return nil, err
	}
	return c, nil
}
