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

// ErrAssignmentClosed is returned when a vendor updates an assignment that was completed,
// cancelled, or superseded by a reassignment
var ErrAssignmentClosed = fmt.Errorf("%w: assignment is closed", ErrConflict)

// LeadService is the lead assignment engine. It is the only writer of lead status.
type LeadService struct {
	db             *gorm.DB
	leadRepo       *repository.LeadRepository
	assignmentRepo *repository.LeadAssignmentRepository
	eventRepo      *repository.LeadEventRepository
	vendorRepo     *repository.VendorRepository
	auditRepo      *repository.AuditLogRepository
	sequences      *NumberSequenceService
	notifier       notify.Notifier
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewLeadService creates a new lead service
func NewLeadService(
	db *gorm.DB,
	leadRepo *repository.LeadRepository,
	assignmentRepo *repository.LeadAssignmentRepository,
	eventRepo *repository.LeadEventRepository,
	vendorRepo *repository.VendorRepository,
	auditRepo *repository.AuditLogRepository,
	sequences *NumberSequenceService,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		db:             db,
		leadRepo:       leadRepo,
		assignmentRepo: assignmentRepo,
		eventRepo:      eventRepo,
		vendorRepo:     vendorRepo,
		auditRepo:      auditRepo,
		sequences:      sequences,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// txRepos groups the repositories bound to one transaction
type txRepos struct {
	leads       *repository.LeadRepository
	assignments *repository.LeadAssignmentRepository
	events      *repository.LeadEventRepository
	vendors     *repository.VendorRepository
	audit       *repository.AuditLogRepository
}

func (s *LeadService) withTx(tx *gorm.DB) txRepos {
	return txRepos{
		leads:       s.leadRepo.WithTx(tx),
		assignments: s.assignmentRepo.WithTx(tx),
		events:      s.eventRepo.WithTx(tx),
		vendors:     s.vendorRepo.WithTx(tx),
		audit:       s.auditRepo.WithTx(tx),
	}
}

// CreateLead inserts a lead with a fresh lead number. With a vendor the lead starts
// assigned and gets an assignment plus an "assigned" event; without one it starts new
// with a "created" event. The vendor is notified after commit.
func (s *LeadService) CreateLead(ctx context.Context, p *auth.Principal, req *domain.CreateLeadRequest) (*domain.LeadWithAssignmentDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		return nil, fmt.Errorf("%w: customerName is required", ErrInvalidInput)
	}
	if req.VendorID != nil && *req.VendorID == 0 {
		return nil, fmt.Errorf("%w: vendorId must be positive", ErrInvalidInput)
	}

	lead := &domain.Lead{
		CustomerName:    customerName,
		CustomerPhone:   phone.NormalizeOrKeep(req.CustomerPhone, phone.DefaultRegion),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		Location:        strings.TrimSpace(req.Location),
		Details:         strings.TrimSpace(req.Details),
		Status:          domain.LeadStatusNew,
		CreatedByUserID: p.UserID(),
	}
	if req.VendorID != nil {
		lead.Status = domain.LeadStatusAssigned
	}

	var (
		assignment *domain.LeadAssignment
		vendor     *domain.Vendor
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.withTx(tx)

		number, err := s.sequences.WithTx(tx).GenerateLeadNumber(ctx)
		if err != nil {
			return err
		}
		lead.LeadNumber = number

		if err := repos.leads.Create(ctx, lead); err != nil {
			return translateStoreError(err, "create lead")
		}

		if req.VendorID == nil {
			if _, err := repos.events.Record(ctx, lead.ID, p.ActorType(), p.ActorID(),
				domain.EventTypeCreated, "Lead created"); err != nil {
				return translateStoreError(err, "record lead event")
			}
		} else {
			vendor, err = s.assignableVendor(ctx, repos.vendors, *req.VendorID)
			if err != nil {
				return err
			}

			assignment, err = s.assign(ctx, repos, p, lead.ID, vendor.ID)
			if err != nil {
				return err
			}

			if _, err := repos.events.Record(ctx, lead.ID, p.ActorType(), p.ActorID(),
				domain.EventTypeAssigned, fmt.Sprintf("Lead assigned to %s", vendor.CompanyName)); err != nil {
				return translateStoreError(err, "record lead event")
			}
		}

		details := map[string]interface{}{"leadNumber": lead.LeadNumber}
		if vendor != nil {
			details["vendorId"] = vendor.ID
		}
		if err := repos.audit.Create(ctx, newAuditLog(p, domain.AuditActionLeadCreated, vendorIDOf(vendor), uintPtr(lead.ID), details)); err != nil {
			return translateStoreError(err, "write audit log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLeadCreated(assignment != nil)
	s.logger.Info("lead created",
		zap.Uint("lead_id", lead.ID),
		zap.String("lead_number", lead.LeadNumber),
		zap.String("status", string(lead.Status)))

	if vendor != nil {
		s.notifier.NotifyLeadAssigned(ctx, vendor, lead, assignedByName(p))
	}

	dto := mapper.ToLeadWithAssignmentDTO(lead, assignment)
	return &dto, nil
}

// ReassignLead cancels every active assignment of the lead and assigns it to vendorID.
// The lead row is locked for the duration so concurrent reassignments serialise.
func (s *LeadService) ReassignLead(ctx context.Context, p *auth.Principal, leadID, vendorID uint) (*domain.LeadWithAssignmentDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	if vendorID == 0 {
		return nil, fmt.Errorf("%w: vendorId is required", ErrInvalidInput)
	}

	var (
		lead       *domain.Lead
		vendor     *domain.Vendor
		assignment *domain.LeadAssignment
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.withTx(tx)

		var err error
		lead, err = repos.leads.GetByIDForUpdate(ctx, leadID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lead %d", ErrNotFound, leadID)
			}
			return translateStoreError(err, "load lead")
		}

		vendor, err = s.assignableVendor(ctx, repos.vendors, vendorID)
		if err != nil {
			return err
		}

		cancelled, err := repos.assignments.CancelActiveForLead(ctx, leadID)
		if err != nil {
			return translateStoreError(err, "cancel active assignments")
		}

		assignment, err = s.assign(ctx, repos, p, leadID, vendorID)
		if err != nil {
			return err
		}

		if err := repos.leads.UpdateStatus(ctx, leadID, domain.LeadStatusAssigned); err != nil {
			return translateStoreError(err, "update lead status")
		}
		lead.Status = domain.LeadStatusAssigned
		lead.UpdatedAt = s.now()

		if _, err := repos.events.Record(ctx, leadID, p.ActorType(), p.ActorID(),
			domain.EventTypeReassigned, fmt.Sprintf("Lead reassigned to %s", vendor.CompanyName)); err != nil {
			return translateStoreError(err, "record lead event")
		}

		entry := newAuditLog(p, domain.AuditActionLeadReassigned, uintPtr(vendorID), uintPtr(leadID), map[string]interface{}{
			"leadNumber":           lead.LeadNumber,
			"cancelledAssignments": cancelled,
		})
		if err := repos.audit.Create(ctx, entry); err != nil {
			return translateStoreError(err, "write audit log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLeadReassigned()
	s.logger.Info("lead reassigned",
		zap.Uint("lead_id", leadID),
		zap.Uint("vendor_id", vendorID),
		zap.Uint("assignment_id", assignment.ID))

	s.notifier.NotifyLeadAssigned(ctx, vendor, lead, assignedByName(p))

	dto := mapper.ToLeadWithAssignmentDTO(lead, assignment)
	return &dto, nil
}

// UpdateAssignmentStatus lets a vendor move its own assignment forward. The lead status
// follows through domain.LeadStatusForAssignment and a status_change event is appended.
func (s *LeadService) UpdateAssignmentStatus(ctx context.Context, p *auth.Principal, assignmentID uint, status domain.AssignmentStatus) (*domain.AssignmentDTO, error) {
	if err := requireRole(p, domain.RoleVendor); err != nil {
		return nil, err
	}
	if !status.IsVendorSettable() {
		return nil, fmt.Errorf("%w: status must be one of accepted, in_progress, completed, cancelled", ErrInvalidInput)
	}

	var assignment *domain.LeadAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.withTx(tx)

		// Ownership and existence are one lookup
		current, err := repos.assignments.GetByIDForVendor(ctx, assignmentID, p.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
			}
			return translateStoreError(err, "load assignment")
		}

		if _, err := repos.leads.GetByIDForUpdate(ctx, current.LeadID); err != nil {
			return translateStoreError(err, "lock lead")
		}

		// Re-read under the lead lock; a concurrent reassignment may have cancelled it
		current, err = repos.assignments.GetByIDForVendor(ctx, assignmentID, p.ID)
		if err != nil {
			return translateStoreError(err, "load assignment")
		}
		if current.Status.IsTerminal() {
			return ErrAssignmentClosed
		}
		previous := current.Status

		if err := repos.assignments.UpdateStatus(ctx, assignmentID, p.ID, status); err != nil {
			return translateStoreError(err, "update assignment status")
		}

		leadStatus := domain.LeadStatusForAssignment(status)
		if err := repos.leads.UpdateStatus(ctx, current.LeadID, leadStatus); err != nil {
			return translateStoreError(err, "update lead status")
		}

		if _, err := repos.events.Record(ctx, current.LeadID, domain.ActorVendor, p.ActorID(),
			domain.EventTypeStatusChange, fmt.Sprintf("Status changed from %s to %s", previous, status)); err != nil {
			return translateStoreError(err, "record lead event")
		}

		assignment, err = repos.assignments.GetByID(ctx, assignmentID)
		return translateStoreError(err, "reload assignment")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAssignmentTransition(string(status))
	s.logger.Info("assignment status updated",
		zap.Uint("assignment_id", assignmentID),
		zap.Uint("vendor_id", p.ID),
		zap.String("status", string(status)))

	return mapper.ToAssignmentDTO(assignment), nil
}

// ListEvents returns the lead timeline, newest first
func (s *LeadService) ListEvents(ctx context.Context, p *auth.Principal, leadID uint) ([]domain.LeadEventDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}

	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %d", ErrNotFound, leadID)
		}
		return nil, translateStoreError(err, "load lead")
	}

	events, err := s.eventRepo.ListByLeadID(ctx, leadID)
	if err != nil {
		return nil, translateStoreError(err, "list lead events")
	}
	return mapper.ToLeadEventDTOs(events), nil
}

// GetLead returns one lead with its active assignment. Admin or staff.
func (s *LeadService) GetLead(ctx context.Context, p *auth.Principal, leadID uint) (*domain.AdminLeadDTO, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %d", ErrNotFound, leadID)
		}
		return nil, translateStoreError(err, "load lead")
	}

	active, err := s.assignmentRepo.GetActiveByLeadIDs(ctx, []uint{leadID})
	if err != nil {
		return nil, translateStoreError(err, "load assignment")
	}

	dto := mapper.ToAdminLeadDTO(lead, active[leadID])
	return &dto, nil
}

// ListLeads returns leads newest first with their active assignment and vendor. Admin or staff.
func (s *LeadService) ListLeads(ctx context.Context, p *auth.Principal, filter *repository.LeadFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if err := requireRole(p, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	if filter != nil && filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown lead status %q", ErrInvalidInput, *filter.Status)
	}

	leads, total, err := s.leadRepo.List(ctx, filter, page)
	if err != nil {
		return nil, translateStoreError(err, "list leads")
	}

	ids := make([]uint, len(leads))
	for i := range leads {
		ids[i] = leads[i].ID
	}
	active, err := s.assignmentRepo.GetActiveByLeadIDs(ctx, ids)
	if err != nil {
		return nil, translateStoreError(err, "load assignments")
	}

	dtos := make([]domain.AdminLeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToAdminLeadDTO(&leads[i], active[leads[i].ID])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ListVendorLeads returns every lead ever assigned to the calling vendor, newest assignment first
func (s *LeadService) ListVendorLeads(ctx context.Context, p *auth.Principal) ([]domain.VendorLeadDTO, error) {
	if err := requireRole(p, domain.RoleVendor); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.ListByVendorID(ctx, p.ID)
	if err != nil {
		return nil, translateStoreError(err, "list vendor leads")
	}

	dtos := make([]domain.VendorLeadDTO, 0, len(assignments))
	for i := range assignments {
		if assignments[i].Lead == nil {
			continue
		}
		dtos = append(dtos, mapper.ToVendorLeadDTO(&assignments[i]))
	}
	return dtos, nil
}

// RemindStaleAssignments notifies vendors about assignments still waiting for acceptance
// after olderThan. It changes no state and returns how many reminders were queued.
func (s *LeadService) RemindStaleAssignments(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)

	assignments, err := s.assignmentRepo.ListUnacknowledged(ctx, cutoff)
	if err != nil {
		return 0, translateStoreError(err, "list unacknowledged assignments")
	}

	sent := 0
	for i := range assignments {
		a := &assignments[i]
		if a.Vendor == nil || a.Lead == nil {
			continue
		}
		s.notifier.NotifyAssignmentReminder(ctx, a.Vendor, a.Lead, a.AssignedAt)
		sent++
	}
	return sent, nil
}

// assignableVendor loads the target of an assignment inside the transaction
func (s *LeadService) assignableVendor(ctx context.Context, vendors *repository.VendorRepository, vendorID uint) (*domain.Vendor, error) {
	vendor, err := vendors.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vendor %d does not exist", ErrInvalidReference, vendorID)
		}
		return nil, translateStoreError(err, "load vendor")
	}
	if vendor.Status != domain.VendorStatusApproved {
		return nil, fmt.Errorf("%w: vendor %d is %s", ErrVendorNotApproved, vendorID, vendor.Status)
	}
	return vendor, nil
}

func (s *LeadService) assign(ctx context.Context, repos txRepos, p *auth.Principal, leadID, vendorID uint) (*domain.LeadAssignment, error) {
	now := s.now()
	assignment := &domain.LeadAssignment{
		LeadID:           leadID,
		VendorID:         vendorID,
		AssignedByUserID: p.UserID(),
		Status:           domain.AssignmentStatusAssigned,
		AssignedAt:       now,
		UpdatedAt:        now,
	}
	if err := repos.assignments.Create(ctx, assignment); err != nil {
		return nil, translateStoreError(err, "create assignment")
	}
	return assignment, nil
}

func assignedByName(p *auth.Principal) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

func vendorIDOf(v *domain.Vendor) *uint {
	if v == nil {
		return nil
	}
	return uintPtr(v.ID)
}
