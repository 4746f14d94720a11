package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/mapper"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AllowedDocumentTypes are the content types accepted for KYC uploads
var AllowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// DocumentService stores vendor KYC documents
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	vendorRepo   *repository.VendorRepository
	auditRepo    *repository.AuditLogRepository
	storage      storage.Storage
	logger       *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	vendorRepo *repository.VendorRepository,
	auditRepo *repository.AuditLogRepository,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		vendorRepo:   vendorRepo,
		auditRepo:    auditRepo,
		storage:      store,
		logger:       logger,
	}
}

// Upload stores a document for the calling vendor
func (s *DocumentService) Upload(ctx context.Context, p *auth.Principal, docType domain.DocumentType, filename, contentType string, data io.Reader) (*domain.DocumentDTO, error) {
	if err := requireRole(p, domain.RoleVendor); err != nil {
		return nil, err
	}
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !AllowedDocumentTypes[contentType] {
		return nil, fmt.Errorf("%w: content type %q is not allowed", ErrInvalidInput, contentType)
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	key, size, err := s.storage.Upload(ctx, p.ID, filename, contentType, data)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	doc := &domain.VendorDocument{
		VendorID:     p.ID,
		DocumentType: docType,
		Filename:     filename,
		ContentType:  contentType,
		Size:         size,
		StoragePath:  key,
		UploadDate:   time.Now().UTC(),
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// The blob is orphaned without its row
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned document", zap.String("key", key), zap.Error(delErr))
		}
		return nil, translateStoreError(err, "create document")
	}

	entry := newAuditLog(p, domain.AuditActionDocumentUploaded, uintPtr(p.ID), nil, map[string]interface{}{
		"documentId":   doc.ID,
		"documentType": docType,
		"filename":     filename,
	})
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write document audit log", zap.Uint("document_id", doc.ID), zap.Error(err))
	}

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// ListForVendor returns a vendor's documents. Admin or staff.
func (s *DocumentService) ListForVendor(ctx context.Context, p *auth.Principal, vendorID uint) ([]domain.DocumentDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}

	if _, err := s.vendorRepo.GetByID(ctx, vendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, vendorID)
		}
		return nil, translateStoreError(err, "load vendor")
	}

	docs, err := s.documentRepo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, translateStoreError(err, "list documents")
	}
	return mapper.ToDocumentDTOs(docs), nil
}

// Download opens a stored document. Admin or staff. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, p *auth.Principal, id uint) (*domain.DocumentDTO, io.ReadCloser, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, nil, err
	}

	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
		}
		return nil, nil, translateStoreError(err, "load document")
	}

	body, err := s.storage.Download(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: document %d content", ErrNotFound, id)
		}
		return nil, nil, err
	}

	dto := mapper.ToDocumentDTO(doc)
	return &dto, body, nil
}
