package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// LeadFilter narrows the admin lead list
type LeadFilter struct {
	Status *domain.LeadStatus
	// Query matches lead number, customer name, phone or email
	Query string
}

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LeadRepository) WithTx(tx *gorm.DB) *LeadRepository {
	return &LeadRepository{db: tx}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uint) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByIDForUpdate loads a lead and locks its row. Every writer that touches a lead's
// assignments takes this lock first so concurrent reassignments serialize per lead.
func (r *LeadRepository) GetByIDForUpdate(ctx context.Context, id uint) (*domain.Lead, error) {
	var lead domain.Lead
	err := forUpdate(r.db.WithContext(ctx)).First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateStatus sets the lead status. Returns gorm.ErrRecordNotFound when no row matched.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id uint, status domain.LeadStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update lead status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns leads newest first
func (r *LeadRepository) List(ctx context.Context, filter *LeadFilter, page Page) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if strings.TrimSpace(filter.Query) != "" {
			pattern := likePattern(filter.Query)
			query = query.Where(
				`(LOWER(lead_number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\'
				OR LOWER(customer_phone) LIKE ? ESCAPE '\' OR LOWER(customer_email) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern, pattern,
			)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := page.apply(query.Order("created_at DESC, id DESC")).Find(&leads).Error
	return leads, total, err
}
