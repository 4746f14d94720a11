package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"github.com/straye-as/vendor-portal-api/internal/storage"
	"github.com/straye-as/vendor-portal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createDocumentService(t *testing.T, db *gorm.DB, maxBytes int64) *service.DocumentService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), maxBytes)
	require.NoError(t, err)

	return service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewVendorRepository(db),
		repository.NewAuditLogRepository(db),
		store,
		zap.NewNop(),
	)
}

func TestDocumentService_UploadAndDownload(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := createDocumentService(t, db, 1024)
	vendor := testutil.CreateVendor(t, db, domain.VendorStatusPending)
	admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))

	content := []byte("%PDF-1.4 gst certificate")

	doc, err := svc.Upload(ctx, testutil.VendorPrincipal(vendor), domain.DocumentTypeGSTCertificate,
		"../../gst.pdf", "application/pdf; charset=binary", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, doc.VendorID)
	assert.Equal(t, "gst.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, int64(len(content)), doc.Size)
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.AuditLog{}, "action = ?", domain.AuditActionDocumentUploaded))

	t.Run("admin lists and downloads", func(t *testing.T) {
		docs, err := svc.ListForVendor(ctx, admin, vendor.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)

		meta, body, err := svc.Download(ctx, admin, docs[0].ID)
		require.NoError(t, err)
		defer body.Close()

		got, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, content, got)
		assert.Equal(t, "gst.pdf", meta.Filename)
	})

	t.Run("vendors cannot download", func(t *testing.T) {
		_, _, err := svc.Download(ctx, testutil.VendorPrincipal(vendor), doc.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, _, err := svc.Download(ctx, admin, 999)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		_, err := svc.ListForVendor(ctx, admin, 999)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestDocumentService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := createDocumentService(t, db, 16)
	vendor := testutil.VendorPrincipal(testutil.CreateVendor(t, db, domain.VendorStatusPending))

	t.Run("content type not allowed", func(t *testing.T) {
		_, err := svc.Upload(ctx, vendor, domain.DocumentTypeOther, "a.exe", "application/x-msdownload", strings.NewReader("x"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown document type", func(t *testing.T) {
		_, err := svc.Upload(ctx, vendor, domain.DocumentType("passport"), "a.pdf", "application/pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := svc.Upload(ctx, vendor, domain.DocumentTypePANCard, "pan.png", "image/png", strings.NewReader(strings.Repeat("x", 64)))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.VendorDocument{}, ""))
	})
}
