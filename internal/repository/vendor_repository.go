package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// VendorFilter narrows the admin vendor list
type VendorFilter struct {
	Status *domain.VendorStatus
	// Query matches company name, email, phone, GST or PAN (case-insensitive substring)
	Query string
	City  string
	State string
}

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *VendorRepository) WithTx(tx *gorm.DB) *VendorRepository {
	return &VendorRepository{db: tx}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *VendorRepository) GetByID(ctx context.Context, id uint) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetByIDForUpdate loads a vendor and locks its row until the transaction ends
func (r *VendorRepository) GetByIDForUpdate(ctx context.Context, id uint) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := forUpdate(r.db.WithContext(ctx)).First(&vendor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *VendorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Vendor{}).
		Where("email = ?", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus sets the vendor status. Returns gorm.ErrRecordNotFound when no row matched.
func (r *VendorRepository) UpdateStatus(ctx context.Context, id uint, status domain.VendorStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Vendor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update vendor status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns vendors newest first
func (r *VendorRepository) List(ctx context.Context, filter *VendorFilter, page Page) ([]domain.Vendor, int64, error) {
	var vendors []domain.Vendor
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Vendor{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := page.apply(query.Order("created_at DESC, id DESC")).Find(&vendors).Error
	return vendors, total, err
}

func (r *VendorRepository) applyFilters(query *gorm.DB, filter *VendorFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(filter.City)))
	}
	if filter.State != "" {
		query = query.Where("LOWER(state) = ?", strings.ToLower(strings.TrimSpace(filter.State)))
	}
	if strings.TrimSpace(filter.Query) != "" {
		pattern := likePattern(filter.Query)
		query = query.Where(
			`(LOWER(company_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\'
			OR LOWER(gst_number) LIKE ? ESCAPE '\' OR LOWER(pan_number) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	return query
}

// CountByStatus returns the number of vendors in each status
func (r *VendorRepository) CountByStatus(ctx context.Context) (map[domain.VendorStatus]int64, error) {
	type result struct {
		Status domain.VendorStatus
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&domain.Vendor{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.VendorStatus]int64)
	for _, row := range results {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
