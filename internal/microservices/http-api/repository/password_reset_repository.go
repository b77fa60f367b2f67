package repository

import (
	"context"
	"fmt"
	"time"

	"comichub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	FindByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if err := r.db.WithContext(ctx).Create(reset).Error; err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) FindByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", time.Now().UTC()).Error
}

// CountSince counts reset requests issued to a user since the given time.
func (r *passwordResetRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count password resets: %w", err)
	}
	return n, nil
}
