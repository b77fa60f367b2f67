package repository

import (
	"context"
	"errors"
	"fmt"

	"comichub/internal/history"
	"comichub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryStore is the storage contract shared by account and device history.
type HistoryStore interface {
	List(ctx context.Context, owner string) ([]history.Item, error)
	Add(ctx context.Context, owner string, item history.Item) (history.Item, error)
	Remove(ctx context.Context, owner, slug string) error
	Clear(ctx context.Context, owner string) error
}

// accountHistoryRepository keeps signed-in users' history in Postgres. owner is the user id.
type accountHistoryRepository struct {
	db *gorm.DB
}

func NewAccountHistoryRepository(db *gorm.DB) HistoryStore {
	return &accountHistoryRepository{db: db}
}

func toItem(h models.ReadingHistory) history.Item {
	return history.Item{
		Slug:         h.ComicSlug,
		Title:        h.Title,
		Cover:        h.CoverURL,
		Chapter:      h.Chapter,
		ChaptersRead: []string(h.ChaptersRead),
		ReadAt:       h.ReadAt,
	}
}

func (r *accountHistoryRepository) List(ctx context.Context, userID string) ([]history.Item, error) {
	var rows []models.ReadingHistory
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("read_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	items := make([]history.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	return items, nil
}

// Add merges item into the stored entry for the same comic under a row lock.
func (r *accountHistoryRepository) Add(ctx context.Context, userID string, item history.Item) (history.Item, error) {
	var merged history.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ReadingHistory
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND comic_slug = ?", userID, item.Slug).
			First(&row).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			merged = history.AddChapter(nil, item)[0]
			row = models.ReadingHistory{UserID: userID, ComicSlug: item.Slug}
		case err != nil:
			return err
		default:
			merged = history.AddChapter([]history.Item{toItem(row)}, item)[0]
		}

		row.Title = merged.Title
		row.CoverURL = merged.Cover
		row.Chapter = merged.Chapter
		row.ChaptersRead = models.StringList(merged.ChaptersRead)
		row.ReadAt = merged.ReadAt
		return tx.Save(&row).Error
	})
	if err != nil {
		return history.Item{}, fmt.Errorf("add history: %w", translate(err))
	}
	return merged, nil
}

func (r *accountHistoryRepository) Remove(ctx context.Context, userID, slug string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND comic_slug = ?", userID, slug).Delete(&models.ReadingHistory{})
	if res.Error != nil {
		return fmt.Errorf("remove history: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHistoryItemNotFound
	}
	return nil
}

func (r *accountHistoryRepository) Clear(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ReadingHistory{}).Error; err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
