package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/mapper"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	"github.com/straye-as/vendor-portal-api/internal/notify"
	"github.com/straye-as/vendor-portal-api/internal/phone"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VendorService owns vendor registration and the vendor application state machine
type VendorService struct {
	db                *gorm.DB
	vendorRepo        *repository.VendorRepository
	applicationRepo   *repository.ApplicationRepository
	documentRepo      *repository.DocumentRepository
	auditRepo         *repository.AuditLogRepository
	sequences         *NumberSequenceService
	tokens            *auth.TokenManager
	notifier          notify.Notifier
	metrics           *metrics.Metrics
	logger            *zap.Logger
	minPasswordLength int
	now               func() time.Time
}

// NewVendorService creates a new vendor service
func NewVendorService(
	db *gorm.DB,
	vendorRepo *repository.VendorRepository,
	applicationRepo *repository.ApplicationRepository,
	documentRepo *repository.DocumentRepository,
	auditRepo *repository.AuditLogRepository,
	sequences *NumberSequenceService,
	tokens *auth.TokenManager,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	minPasswordLength int,
) *VendorService {
	return &VendorService{
		db:                db,
		vendorRepo:        vendorRepo,
		applicationRepo:   applicationRepo,
		documentRepo:      documentRepo,
		auditRepo:         auditRepo,
		sequences:         sequences,
		tokens:            tokens,
		notifier:          notifier,
		metrics:           m,
		logger:            logger,
		minPasswordLength: minPasswordLength,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a pending vendor and its submitted application. A nil principal is a
// public self-registration; otherwise the caller must be admin or staff.
func (s *VendorService) Register(ctx context.Context, p *auth.Principal, req *domain.RegisterVendorRequest) (*domain.VendorWithApplicationDTO, error) {
	channel := "self"
	action := domain.AuditActionVendorRegistered
	if p != nil {
		if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
			return nil, err
		}
		channel = "staff"
		action = domain.AuditActionStaffVendorRegistered
	}

	vendor, err := s.newVendor(req)
	if err != nil {
		return nil, err
	}
	vendor.RegisteredByUserID = p.UserID()

	exists, err := s.vendorRepo.ExistsByEmail(ctx, vendor.Email)
	if err != nil {
		return nil, translateStoreError(err, "check vendor email")
	}
	if exists {
		return nil, ErrEmailTaken
	}

	var app *domain.Application
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.sequences.WithTx(tx).GenerateApplicationNumber(ctx)
		if err != nil {
			return err
		}

		if err := s.vendorRepo.WithTx(tx).Create(ctx, vendor); err != nil {
			if errors.Is(translateStoreError(err, "create vendor"), ErrConflict) {
				return ErrEmailTaken
			}
			return translateStoreError(err, "create vendor")
		}

		app = &domain.Application{
			VendorID:          vendor.ID,
			ApplicationNumber: number,
			Status:            domain.ApplicationStatusSubmitted,
			SubmissionDate:    vendor.SubmittedAt,
		}
		if err := s.applicationRepo.WithTx(tx).Create(ctx, app); err != nil {
			return translateStoreError(err, "create application")
		}

		entry := newAuditLog(p, action, uintPtr(vendor.ID), nil, map[string]interface{}{
			"email":             vendor.Email,
			"companyName":       vendor.CompanyName,
			"applicationNumber": number,
		})
		if err := s.auditRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return translateStoreError(err, "write audit log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveVendorRegistered(channel)
	s.logger.Info("vendor registered",
		zap.Uint("vendor_id", vendor.ID),
		zap.String("application_number", app.ApplicationNumber),
		zap.String("channel", channel))

	s.notifier.NotifyVendorRegistered(ctx, vendor)

	dto := mapper.ToVendorWithApplicationDTO(vendor, app)
	return &dto, nil
}

func (s *VendorService) newVendor(req *domain.RegisterVendorRequest) (*domain.Vendor, error) {
	if len(req.Password) < s.minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.minPasswordLength)
	}

	phoneNumber, err := phone.Normalize(req.Phone, phone.DefaultRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: phone: %v", ErrInvalidInput, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &domain.Vendor{
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      hash,
		CompanyName:       strings.TrimSpace(req.CompanyName),
		GSTNumber:         strings.ToUpper(strings.TrimSpace(req.GSTNumber)),
		PANNumber:         strings.ToUpper(strings.TrimSpace(req.PANNumber)),
		AccountHolderName: strings.TrimSpace(req.AccountHolderName),
		AccountNumber:     strings.TrimSpace(req.AccountNumber),
		IFSCCode:          strings.ToUpper(strings.TrimSpace(req.IFSCCode)),
		BankName:          strings.TrimSpace(req.BankName),
		Address:           strings.TrimSpace(req.Address),
		City:              strings.TrimSpace(req.City),
		State:             strings.TrimSpace(req.State),
		ZipCode:           strings.TrimSpace(req.ZipCode),
		Phone:             phoneNumber,
		ContactPersonName: strings.TrimSpace(req.ContactPersonName),
		Status:            domain.VendorStatusPending,
		SubmittedAt:       now,
	}, nil
}

// Login authenticates a vendor and issues a vendor session token
func (s *VendorService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.VendorLoginResponse, error) {
	vendor, err := s.vendorRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveLogin("vendor", false)
			return nil, ErrInvalidCredentials
		}
		return nil, translateStoreError(err, "load vendor")
	}
	if !auth.CheckPassword(vendor.PasswordHash, req.Password) {
		s.metrics.ObserveLogin("vendor", false)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(&auth.Principal{
		ID:    vendor.ID,
		Role:  domain.RoleVendor,
		Email: vendor.Email,
		Name:  vendor.CompanyName,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin("vendor", true)
	return &domain.VendorLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Vendor:    mapper.ToVendorDTO(vendor),
	}, nil
}

// Profile returns the calling vendor's own record, latest application and documents
func (s *VendorService) Profile(ctx context.Context, p *auth.Principal) (*domain.VendorProfileDTO, error) {
	if err := requireRole(p, domain.RoleVendor); err != nil {
		return nil, err
	}

	vendor, err := s.vendorRepo.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, p.ID)
		}
		return nil, translateStoreError(err, "load vendor")
	}

	app, err := s.latestApplication(ctx, s.applicationRepo, vendor.ID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documentRepo.ListByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, translateStoreError(err, "list documents")
	}

	dto := mapper.ToVendorProfileDTO(vendor, app, docs)
	return &dto, nil
}

// Get returns a vendor with its latest application. Admin or staff.
func (s *VendorService) Get(ctx context.Context, p *auth.Principal, id uint) (*domain.VendorWithApplicationDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}

	vendor, err := s.vendorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, id)
		}
		return nil, translateStoreError(err, "load vendor")
	}

	app, err := s.latestApplication(ctx, s.applicationRepo, vendor.ID)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToVendorWithApplicationDTO(vendor, app)
	return &dto, nil
}

// List returns vendors newest first with their latest application. Admin or staff.
func (s *VendorService) List(ctx context.Context, p *auth.Principal, filter *repository.VendorFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	if filter != nil && filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown vendor status %q", ErrInvalidInput, *filter.Status)
	}

	vendors, total, err := s.vendorRepo.List(ctx, filter, page)
	if err != nil {
		return nil, translateStoreError(err, "list vendors")
	}

	ids := make([]uint, len(vendors))
	for i := range vendors {
		ids[i] = vendors[i].ID
	}
	apps, err := s.applicationRepo.GetLatestByVendorIDs(ctx, ids)
	if err != nil {
		return nil, translateStoreError(err, "load applications")
	}

	dtos := make([]domain.VendorWithApplicationDTO, len(vendors))
	for i := range vendors {
		dtos[i] = mapper.ToVendorWithApplicationDTO(&vendors[i], apps[vendors[i].ID])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// SetVendorStatus moves a vendor through pending/approved/rejected and mirrors the decision
// onto the latest application in the same transaction. The vendor is notified after commit.
func (s *VendorService) SetVendorStatus(ctx context.Context, p *auth.Principal, vendorID uint, req *domain.UpdateVendorStatusRequest) (*domain.VendorWithApplicationDTO, error) {
	if err := requireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: status must be one of pending, approved, rejected", ErrInvalidInput)
	}

	var (
		vendor *domain.Vendor
		app    *domain.Application
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vendorRepo := s.vendorRepo.WithTx(tx)
		appRepo := s.applicationRepo.WithTx(tx)

		var err error
		vendor, err = vendorRepo.GetByIDForUpdate(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: vendor %d", ErrNotFound, vendorID)
			}
			return translateStoreError(err, "load vendor")
		}
		previous := vendor.Status

		if err := vendorRepo.UpdateStatus(ctx, vendorID, req.Status); err != nil {
			return translateStoreError(err, "update vendor status")
		}

		latest, err := s.latestApplication(ctx, appRepo, vendorID)
		if err != nil {
			return err
		}
		if latest != nil {
			update := repository.ApplicationStatusUpdate{
				Status:          domain.ApplicationStatusFor(req.Status),
				AdminNotes:      req.Notes,
				RejectionReason: req.RejectionReason,
			}
			if req.Status == domain.VendorStatusApproved {
				approvedAt := s.now()
				update.ApprovalDate = &approvedAt
			}
			if err := appRepo.ApplyStatus(ctx, latest.ID, update); err != nil {
				return translateStoreError(err, "update application")
			}
		}

		details := map[string]interface{}{
			"from": previous,
			"to":   req.Status,
		}
		if req.Notes != nil {
			details["notes"] = *req.Notes
		}
		if req.RejectionReason != nil {
			details["rejectionReason"] = *req.RejectionReason
		}
		entry := newAuditLog(p, domain.AuditActionVendorStatusUpdated, uintPtr(vendorID), nil, details)
		if err := s.auditRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return translateStoreError(err, "write audit log")
		}

		// Re-read so the response reflects the committed row values
		if vendor, err = vendorRepo.GetByID(ctx, vendorID); err != nil {
			return translateStoreError(err, "reload vendor")
		}
		app, err = s.latestApplication(ctx, appRepo, vendorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveVendorStatus(string(req.Status))
	s.logger.Info("vendor status updated",
		zap.Uint("vendor_id", vendorID),
		zap.String("status", string(req.Status)),
		zap.Uint("admin_id", p.ID))

	reason := ""
	if req.RejectionReason != nil {
		reason = strings.TrimSpace(*req.RejectionReason)
	}
	s.notifier.NotifyVendorStatus(ctx, vendor, req.Status, domain.VendorStatusMessage(req.Status, reason))

	dto := mapper.ToVendorWithApplicationDTO(vendor, app)
	return &dto, nil
}

// latestApplication returns nil without error when the vendor has no application
func (s *VendorService) latestApplication(ctx context.Context, repo *repository.ApplicationRepository, vendorID uint) (*domain.Application, error) {
	app, err := repo.GetLatestByVendorID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateStoreError(err, "load application")
	}
	return app, nil
}
