package repository

import (
	"context"
	"fmt"

	"comichub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ChapterRepository interface {
	ListByComic(ctx context.Context, comicID int64) ([]models.Chapter, error)
	Latest(ctx context.Context, comicIDs []int64, perComic int) (map[int64][]models.Chapter, error)
	FindByID(ctx context.Context, comicID, id int64) (*models.Chapter, error)
	FindByNumber(ctx context.Context, comicID int64, number float64) (*models.Chapter, error)
	FindByTitle(ctx context.Context, comicID int64, title string) (*models.Chapter, error)
	Create(ctx context.Context, ch *models.Chapter) error
	Update(ctx context.Context, ch *models.Chapter) error
	Delete(ctx context.Context, comicID, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	TotalViews(ctx context.Context) (int64, error)
}

type chapterRepository struct {
	db *gorm.DB
}

func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// ListByComic returns chapters without images, highest number first.
func (r *chapterRepository) ListByComic(ctx context.Context, comicID int64) ([]models.Chapter, error) {
	var list []models.Chapter
	if err := r.db.WithContext(ctx).
		Where("comic_id = ?", comicID).
		Order("number desc, id desc").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return list, nil
}

// Latest returns up to perComic newest chapters for each comic.
func (r *chapterRepository) Latest(ctx context.Context, comicIDs []int64, perComic int) (map[int64][]models.Chapter, error) {
	out := make(map[int64][]models.Chapter, len(comicIDs))
	if len(comicIDs) == 0 {
		return out, nil
	}
	var list []models.Chapter
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, comic_id, title, number, slug, views, created_at, updated_at FROM (
			SELECT ch.*, ROW_NUMBER() OVER (PARTITION BY comic_id ORDER BY number DESC, id DESC) AS rn
			FROM chapters ch WHERE comic_id IN ?
		) ranked WHERE rn <= ? ORDER BY comic_id, number DESC, id DESC`, comicIDs, perComic).
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("latest chapters: %w", err)
	}
	for _, ch := range list {
		out[ch.ComicID] = append(out[ch.ComicID], ch)
	}
	return out, nil
}

func (r *chapterRepository) FindByID(ctx context.Context, comicID, id int64) (*models.Chapter, error) {
	var ch models.Chapter
	if err := r.db.WithContext(ctx).Preload("Images", orderedImages).
		Where("comic_id = ? AND id = ?", comicID, id).First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *chapterRepository) FindByNumber(ctx context.Context, comicID int64, number float64) (*models.Chapter, error) {
	var ch models.Chapter
	if err := r.db.WithContext(ctx).Preload("Images", orderedImages).
		Where("comic_id = ? AND number = ?", comicID, number).
		Order("id asc").First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *chapterRepository) FindByTitle(ctx context.Context, comicID int64, title string) (*models.Chapter, error) {
	var ch models.Chapter
	if err := r.db.WithContext(ctx).Where("comic_id = ? AND LOWER(title) = LOWER(?)", comicID, title).First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

// Create inserts the chapter and its images in one transaction.
func (r *chapterRepository) Create(ctx context.Context, ch *models.Chapter) error {
	if err := r.db.WithContext(ctx).Create(ch).Error; err != nil {
		return fmt.Errorf("create chapter: %w", translate(err))
	}
	return nil
}

// Update saves title, number and slug and replaces the image list.
func (r *chapterRepository) Update(ctx context.Context, ch *models.Chapter) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(ch).Select("Title", "Number", "Slug").Updates(ch).Error; err != nil {
			return fmt.Errorf("update chapter: %w", translate(err))
		}
		if err := tx.Where("chapter_id = ?", ch.ID).Delete(&models.ChapterImage{}).Error; err != nil {
			return fmt.Errorf("clear chapter images: %w", err)
		}
		if len(ch.Images) == 0 {
			return nil
		}
		for i := range ch.Images {
			ch.Images[i].ID = 0
			ch.Images[i].ChapterID = ch.ID
		}
		if err := tx.Create(&ch.Images).Error; err != nil {
			return fmt.Errorf("save chapter images: %w", err)
		}
		return nil
	})
}

func (r *chapterRepository) Delete(ctx context.Context, comicID, id int64) error {
	res := r.db.WithContext(ctx).Where("comic_id = ? AND id = ?", comicID, id).Delete(&models.Chapter{})
	if res.Error != nil {
		return fmt.Errorf("delete chapter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *chapterRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Chapter{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *chapterRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Chapter{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count chapters: %w", err)
	}
	return total, nil
}

func (r *chapterRepository) TotalViews(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Chapter{}).Select("COALESCE(SUM(views), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum chapter views: %w", err)
	}
	return total, nil
}
