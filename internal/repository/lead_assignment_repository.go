package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// LeadAssignmentRepository handles the lead_assignments table. Rows are never deleted;
// reassignment moves the previous active row to cancelled.
type LeadAssignmentRepository struct {
	db *gorm.DB
}

func NewLeadAssignmentRepository(db *gorm.DB) *LeadAssignmentRepository {
	return &LeadAssignmentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LeadAssignmentRepository) WithTx(tx *gorm.DB) *LeadAssignmentRepository {
	return &LeadAssignmentRepository{db: tx}
}

func (r *LeadAssignmentRepository) Create(ctx context.Context, a *domain.LeadAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *LeadAssignmentRepository) GetByID(ctx context.Context, id uint) (*domain.LeadAssignment, error) {
	var a domain.LeadAssignment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByIDForVendor loads an assignment only if it belongs to the vendor.
// A mismatched vendor is indistinguishable from a missing row.
func (r *LeadAssignmentRepository) GetByIDForVendor(ctx context.Context, id, vendorID uint) (*domain.LeadAssignment, error) {
	var a domain.LeadAssignment
	err := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CancelActiveForLead moves every non-terminal assignment of the lead to cancelled
// and returns how many rows changed
func (r *LeadAssignmentRepository) CancelActiveForLead(ctx context.Context, leadID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.LeadAssignment{}).
		Where("lead_id = ? AND status IN ?", leadID, domain.ActiveAssignmentStatuses).
		Updates(map[string]interface{}{
			"status":     domain.AssignmentStatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel active assignments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateStatus sets one assignment's status, scoped to the owning vendor
func (r *LeadAssignmentRepository) UpdateStatus(ctx context.Context, id, vendorID uint, status domain.AssignmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.LeadAssignment{}).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByLeadID returns the full assignment history of a lead, oldest first
func (r *LeadAssignmentRepository) ListByLeadID(ctx context.Context, leadID uint) ([]domain.LeadAssignment, error) {
	var assignments []domain.LeadAssignment
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("assigned_at ASC, id ASC").
		Find(&assignments).Error
	return assignments, err
}

// CountActiveByLeadID returns the number of non-terminal assignments for a lead
func (r *LeadAssignmentRepository) CountActiveByLeadID(ctx context.Context, leadID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LeadAssignment{}).
		Where("lead_id = ? AND status IN ?", leadID, domain.ActiveAssignmentStatuses).
		Count(&count).Error
	return count, err
}

// GetActiveByLeadIDs returns the active assignment per lead with its vendor preloaded
func (r *LeadAssignmentRepository) GetActiveByLeadIDs(ctx context.Context, leadIDs []uint) (map[uint]*domain.LeadAssignment, error) {
	result := make(map[uint]*domain.LeadAssignment, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	var assignments []domain.LeadAssignment
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Where("lead_id IN ? AND status IN ?", leadIDs, domain.ActiveAssignmentStatuses).
		Order("assigned_at DESC, id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	for i := range assignments {
		if _, seen := result[assignments[i].LeadID]; !seen {
			result[assignments[i].LeadID] = &assignments[i]
		}
	}
	return result, nil
}

// ListByVendorID returns the vendor's assignments (any status) with leads preloaded, newest first
func (r *LeadAssignmentRepository) ListByVendorID(ctx context.Context, vendorID uint) ([]domain.LeadAssignment, error) {
	var assignments []domain.LeadAssignment
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Where("vendor_id = ?", vendorID).
		Order("assigned_at DESC, id DESC").
		Find(&assignments).Error
	return assignments, err
}

// ListUnacknowledged returns assignments still in "assigned" that were made before the cutoff
func (r *LeadAssignmentRepository) ListUnacknowledged(ctx context.Context, before time.Time) ([]domain.LeadAssignment, error) {
	var assignments []domain.LeadAssignment
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Vendor").
		Where("status = ? AND assigned_at < ?", domain.AssignmentStatusAssigned, before).
		Order("assigned_at ASC, id ASC").
		Find(&assignments).Error
	return assignments, err
}
