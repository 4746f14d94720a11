package repository

import (
	"context"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.VendorDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*domain.VendorDocument, error) {
	var doc domain.VendorDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByVendor(ctx context.Context, vendorID uint) ([]domain.VendorDocument, error) {
	var docs []domain.VendorDocument
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("upload_date DESC, id DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) CountByVendor(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.VendorDocument{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	return count, err
}
