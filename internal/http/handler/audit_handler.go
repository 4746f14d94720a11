package handler

import (
	"net/http"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries with optional filters
// @Tags Audit
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 200)"
// @Param vendorId query int false "Filter by vendor ID"
// @Param leadId query int false "Filter by lead ID"
// @Param actorType query string false "Filter by actor type" Enums(admin, staff, vendor, system)
// @Param action query string false "Filter by action type"
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := &repository.AuditLogFilter{}

	var err error
	if filter.VendorID, err = parseUintQuery(r, "vendorId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.LeadID, err = parseUintQuery(r, "leadId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if actorType := query.Get("actorType"); actorType != "" {
		at := domain.ActorType(actorType)
		filter.ActorType = &at
	}
	if action := query.Get("action"); action != "" {
		a := domain.AuditAction(action)
		filter.Action = &a
	}

	// Unparseable time bounds are ignored
	if startStr := query.Get("startTime"); startStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startStr); err == nil {
			filter.StartTime = &startTime
		}
	}
	if endStr := query.Get("endTime"); endStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	page := repository.NewPage(parseIntQuery(r, "page", 1), parseIntQuery(r, "pageSize", repository.DefaultPageSize))

	p, _ := auth.FromContext(r.Context())
	result, err := h.auditService.List(r.Context(), p, filter, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
