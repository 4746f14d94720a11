package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users, optionally restricted to one role, newest first
func (r *UserRepository) List(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	var users []domain.User
	query := r.db.WithContext(ctx).Model(&domain.User{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	err := query.Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Upsert creates the user or, if the email exists, resets its name, role and password
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)

	var existing domain.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(user).Error
	}
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"name":          user.Name,
		"role":          user.Role,
		"password_hash": user.PasswordHash,
		"updated_at":    time.Now().UTC(),
	}).Error
	if err != nil {
		return err
	}
	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	return nil
}
