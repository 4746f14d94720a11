package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/mapper"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService reads the audit trail. Rows are written by the workflow services
// inside their own transactions through newAuditLog.
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// List returns audit rows newest first. Admin only.
func (s *AuditLogService) List(ctx context.Context, p *auth.Principal, filter *repository.AuditLogFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if err := requireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}

	logs, total, err := s.auditRepo.List(ctx, filter, page)
	if err != nil {
		return nil, translateStoreError(err, "list audit logs")
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// newAuditLog builds an audit row attributed to p. details is JSON encoded.
func newAuditLog(p *auth.Principal, action domain.AuditAction, vendorID, leadID *uint, details map[string]interface{}) *domain.AuditLog {
	entry := &domain.AuditLog{
		VendorID:  vendorID,
		LeadID:    leadID,
		ActorType: p.ActorType(),
		ActorID:   p.ActorID(),
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	return entry
}

func uintPtr(v uint) *uint {
	return &v
}
