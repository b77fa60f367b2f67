package repository

import (
	"context"
	"fmt"
	"time"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository interface {
	// Create inserts the follow; following twice is not an error.
	Create(ctx context.Context, f *models.Follow) error
	Delete(ctx context.Context, userID, slug string) (bool, error)
	Find(ctx context.Context, userID, slug string) (*models.Follow, error)
	ListByUser(ctx context.Context, userID string, page pagination.Page) ([]models.Follow, int64, error)
	CountBySlug(ctx context.Context, slug string) (int64, error)
	TouchLastRead(ctx context.Context, userID, slug string, at time.Time) error
	UpdateComicInfo(ctx context.Context, oldSlug string, c *models.Comic) error
	SetLatestChapter(ctx context.Context, slug, title string) error
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, f *models.Follow) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comic_slug"}},
		DoNothing: true,
	}).Create(f).Error
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, userID, slug string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND comic_slug = ?", userID, slug).Delete(&models.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Find(ctx context.Context, userID, slug string) (*models.Follow, error) {
	var f models.Follow
	if err := r.db.WithContext(ctx).Where("user_id = ? AND comic_slug = ?", userID, slug).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *followRepository) ListByUser(ctx context.Context, userID string, page pagination.Page) ([]models.Follow, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}
	var list []models.Follow
	if err := q.Order("created_at desc, id desc").Limit(page.Size).Offset(page.Offset()).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	return list, total, nil
}

func (r *followRepository) CountBySlug(ctx context.Context, slug string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("comic_slug = ?", slug).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return n, nil
}

func (r *followRepository) TouchLastRead(ctx context.Context, userID, slug string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND comic_slug = ?", userID, slug).
		Update("last_read_at", at).Error
}

// UpdateComicInfo refreshes the copied comic fields on every follow of a comic,
// including a slug rename.
func (r *followRepository) UpdateComicInfo(ctx context.Context, oldSlug string, c *models.Comic) error {
	fields := map[string]any{
		"comic_slug": c.Slug,
		"title":      c.Title,
		"cover_url":  c.CoverURL,
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("comic_slug = ?", oldSlug).Updates(fields).Error; err != nil {
		return fmt.Errorf("update follows for %s: %w", oldSlug, err)
	}
	return nil
}

// SetLatestChapter stores title as the newest chapter on every follow of slug.
// An empty title clears it.
func (r *followRepository) SetLatestChapter(ctx context.Context, slug, title string) error {
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("comic_slug = ?", slug).
		Update("latest_chapter", title).Error; err != nil {
		return fmt.Errorf("set latest chapter for %s: %w", slug, err)
	}
	return nil
}
