package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"comichub/internal/catalog"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/pagination"

	"gorm.io/gorm"
)

// ComicRepository stores comics and their category links.
type ComicRepository interface {
	Create(ctx context.Context, c *models.Comic) error
	Update(ctx context.Context, c *models.Comic) error
	Delete(ctx context.Context, id int64) error
	FindBySlug(ctx context.Context, slug string) (*models.Comic, error)
	ListLatest(ctx context.Context, page pagination.Page) ([]models.Comic, int64, error)
	SearchByTitle(ctx context.Context, title string, page pagination.Page) ([]models.Comic, int64, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Comic, error)
	CatalogEntries(ctx context.Context) ([]catalog.Entry, error)
	Stats(ctx context.Context, ids []int64) (map[int64]models.ComicStats, error)
	ReplaceCategories(ctx context.Context, c *models.Comic, categoryIDs []int64) error
	TouchUpdatedAt(ctx context.Context, id int64, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type comicRepository struct {
	db *gorm.DB
}

func NewComicRepository(db *gorm.DB) ComicRepository {
	return &comicRepository{db: db}
}

// publicComics limits a query to comics complete enough to list publicly.
func publicComics(db *gorm.DB) *gorm.DB {
	return db.Where("comics.title <> '' AND comics.slug <> '' AND comics.cover_url <> '' AND comics.status <> ''").
		Where("EXISTS (SELECT 1 FROM comic_categories cc WHERE cc.comic_id = comics.id)")
}

func (r *comicRepository) Create(ctx context.Context, c *models.Comic) error {
	if err := r.db.WithContext(ctx).Omit("Chapters").Create(c).Error; err != nil {
		return fmt.Errorf("create comic: %w", translate(err))
	}
	return nil
}

func (r *comicRepository) Update(ctx context.Context, c *models.Comic) error {
	err := r.db.WithContext(ctx).Model(c).Select(
		"Slug", "Title", "OtherName", "Link", "CoverURL", "Author", "Status", "Description", "UpdatedAt",
	).Updates(c).Error
	if err != nil {
		return fmt.Errorf("update comic: %w", translate(err))
	}
	return nil
}

func (r *comicRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comic models.Comic
		if err := tx.First(&comic, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&comic).Association("Categories").Clear(); err != nil {
			return fmt.Errorf("detach categories: %w", err)
		}
		if err := tx.Where("comic_slug = ?", comic.Slug).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("delete follows: %w", err)
		}
		// chapters and images go with the comic through ON DELETE CASCADE
		if err := tx.Delete(&comic).Error; err != nil {
			return fmt.Errorf("delete comic: %w", err)
		}
		return nil
	})
}

func (r *comicRepository) FindBySlug(ctx context.Context, slug string) (*models.Comic, error) {
	var c models.Comic
	if err := r.db.WithContext(ctx).Preload("Categories").Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListLatest returns public comics, most recently updated first.
func (r *comicRepository) ListLatest(ctx context.Context, page pagination.Page) ([]models.Comic, int64, error) {
	var total int64
	if err := publicComics(r.db.WithContext(ctx).Model(&models.Comic{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comics: %w", err)
	}

	var list []models.Comic
	if err := publicComics(r.db.WithContext(ctx)).
		Preload("Categories").
		Order("updated_at desc").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list comics: %w", err)
	}
	return list, total, nil
}

// SearchByTitle performs case-insensitive partial match on title, other name and slug.
// Every whitespace-separated token must appear in at least one of the fields.
func (r *comicRepository) SearchByTitle(ctx context.Context, title string, page pagination.Page) ([]models.Comic, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Comic{})
	for _, t := range strings.Fields(title) {
		p := "%" + t + "%"
		q = q.Where("(title ILIKE ? OR other_name ILIKE ? OR slug ILIKE ?)", p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comics: %w", err)
	}
	var list []models.Comic
	if err := q.Preload("Categories").Order("updated_at desc").Limit(page.Size).Offset(page.Offset()).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("search comics by title: %w", err)
	}
	return list, total, nil
}

// FindBySlugs loads comics for a page of catalog results. Order is not kept.
func (r *comicRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Comic, error) {
	if len(slugs) == 0 {
		return []models.Comic{}, nil
	}
	var list []models.Comic
	if err := r.db.WithContext(ctx).Preload("Categories").Where("slug IN ?", slugs).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find comics by slug: %w", err)
	}
	return list, nil
}

type entryRow struct {
	ID           int64
	Slug         string
	Title        string
	OtherName    string
	CoverURL     string
	Status       string
	UpdatedAt    time.Time
	Followers    int64
	Views        int64
	ChapterCount int
}

type categoryLinkRow struct {
	ComicID int64
	Name    string
	Slug    string
}

const statsColumns = `
	(SELECT COUNT(*) FROM follows f WHERE f.comic_slug = comics.slug) AS followers,
	(SELECT COALESCE(SUM(ch.views), 0) FROM chapters ch WHERE ch.comic_id = comics.id) AS views,
	(SELECT COUNT(*) FROM chapters ch WHERE ch.comic_id = comics.id) AS chapter_count`

// CatalogEntries loads the searchable summary of every public comic,
// ordered by update time.
func (r *comicRepository) CatalogEntries(ctx context.Context) ([]catalog.Entry, error) {
	var rows []entryRow
	if err := publicComics(r.db.WithContext(ctx).Model(&models.Comic{})).
		Select("comics.id, comics.slug, comics.title, comics.other_name, comics.cover_url, comics.status, comics.updated_at," + statsColumns).
		Order("comics.updated_at desc").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load catalog entries: %w", err)
	}

	var links []categoryLinkRow
	if err := r.db.WithContext(ctx).
		Table("comic_categories cc").
		Select("cc.comic_id, cat.name, cat.slug").
		Joins("JOIN categories cat ON cat.id = cc.category_id").
		Order("cat.id").
		Scan(&links).Error; err != nil {
		return nil, fmt.Errorf("load comic categories: %w", err)
	}
	names := make(map[int64][]string)
	slugs := make(map[int64][]string)
	for _, l := range links {
		names[l.ComicID] = append(names[l.ComicID], l.Name)
		slugs[l.ComicID] = append(slugs[l.ComicID], l.Slug)
	}

	entries := make([]catalog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, catalog.Entry{
			ID:           row.ID,
			Slug:         row.Slug,
			Title:        row.Title,
			OtherName:    row.OtherName,
			CoverURL:     row.CoverURL,
			Status:       row.Status,
			Categories:   names[row.ID],
			CategorySlug: slugs[row.ID],
			Followers:    row.Followers,
			Views:        row.Views,
			ChapterCount: row.ChapterCount,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return entries, nil
}

// Stats returns follower, view and chapter aggregates keyed by comic id.
func (r *comicRepository) Stats(ctx context.Context, ids []int64) (map[int64]models.ComicStats, error) {
	out := make(map[int64]models.ComicStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []entryRow
	if err := r.db.WithContext(ctx).Model(&models.Comic{}).
		Select("comics.id,"+statsColumns).
		Where("comics.id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load comic stats: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = models.ComicStats{
			ComicID:      row.ID,
			Followers:    row.Followers,
			Views:        row.Views,
			ChapterCount: row.ChapterCount,
		}
	}
	return out, nil
}

func (r *comicRepository) ReplaceCategories(ctx context.Context, c *models.Comic, categoryIDs []int64) error {
	cats := make([]models.Category, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		cats = append(cats, models.Category{ID: id})
	}
	if err := r.db.WithContext(ctx).Model(c).Association("Categories").Replace(cats); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	return nil
}

func (r *comicRepository) TouchUpdatedAt(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Comic{}).Where("id = ?", id).UpdateColumn("updated_at", at).Error
}

func (r *comicRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comic{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count comics: %w", err)
	}
	return total, nil
}
