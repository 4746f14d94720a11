package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// ApplicationStatusUpdate describes one approval decision. Nil pointers leave columns untouched.
type ApplicationStatusUpdate struct {
	Status          domain.ApplicationStatus
	AdminNotes      *string
	RejectionReason *string
	ApprovalDate    *time.Time
}

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ApplicationRepository) WithTx(tx *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: tx}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// GetLatestByVendorID returns the vendor's most recently created application
func (r *ApplicationRepository) GetLatestByVendorID(ctx context.Context, vendorID uint) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetLatestByVendorIDs returns the latest application per vendor, keyed by vendor ID
func (r *ApplicationRepository) GetLatestByVendorIDs(ctx context.Context, vendorIDs []uint) (map[uint]*domain.Application, error) {
	result := make(map[uint]*domain.Application, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return result, nil
	}

	var apps []domain.Application
	err := r.db.WithContext(ctx).
		Where("vendor_id IN ?", vendorIDs).
		Order("vendor_id ASC, created_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	for i := range apps {
		if _, seen := result[apps[i].VendorID]; !seen {
			result[apps[i].VendorID] = &apps[i]
		}
	}
	return result, nil
}

// ApplyStatus writes an approval decision onto a single application row
func (r *ApplicationRepository) ApplyStatus(ctx context.Context, id uint, update ApplicationStatusUpdate) error {
	updates := map[string]interface{}{
		"status":     update.Status,
		"updated_at": time.Now().UTC(),
	}
	if update.AdminNotes != nil {
		updates["admin_notes"] = *update.AdminNotes
	}
	if update.RejectionReason != nil {
		updates["rejection_reason"] = *update.RejectionReason
	}
	if update.ApprovalDate != nil {
		updates["approval_date"] = *update.ApprovalDate
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
