package repository

import (
	"context"
	"fmt"

	"comichub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewStatRepository keeps the per-day read counters shown on the dashboard.
type ViewStatRepository interface {
	Increment(ctx context.Context, day string) error
	Days(ctx context.Context, days []string) (map[string]int64, error)
}

type viewStatRepository struct {
	db *gorm.DB
}

func NewViewStatRepository(db *gorm.DB) ViewStatRepository {
	return &viewStatRepository{db: db}
}

func (r *viewStatRepository) Increment(ctx context.Context, day string) error {
	stat := models.ViewStat{Day: day, Count: 1}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("view_stats.count + 1")}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("increment view stat: %w", err)
	}
	return nil
}

// Days returns counts for the given days; missing days are absent from the map.
func (r *viewStatRepository) Days(ctx context.Context, days []string) (map[string]int64, error) {
	out := make(map[string]int64, len(days))
	if len(days) == 0 {
		return out, nil
	}
	var stats []models.ViewStat
	if err := r.db.WithContext(ctx).Where("day IN ?", days).Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("load view stats: %w", err)
	}
	for _, s := range stats {
		out[s.Day] = s.Count
	}
	return out, nil
}
