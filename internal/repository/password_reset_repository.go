package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PasswordResetRepository) WithTx(tx *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: tx}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

// GetUsableByTokenHash returns an unused, unexpired reset matching the hash
func (r *PasswordResetRepository) GetUsableByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.PasswordReset, error) {
	var reset domain.PasswordReset
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		Order("created_at DESC").
		First(&reset).Error
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// MarkUsed consumes a reset. It only succeeds once; a second call returns gorm.ErrRecordNotFound.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if result.Error != nil {
		return fmt.Errorf("failed to mark password reset used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InvalidateForUser marks all outstanding resets of a user as used
func (r *PasswordResetRepository) InvalidateForUser(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.PasswordReset{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		Update("used_at", at).Error
}

// DeleteExpired removes resets that expired or were used before the cutoff
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", before, before).
		Delete(&domain.PasswordReset{})
	return result.RowsAffected, result.Error
}
