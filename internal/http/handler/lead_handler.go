package handler

import (
	"net/http"
	"strings"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

// LeadHandler serves lead intake, routing and history for admin and staff
type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// List godoc
// @Summary List leads
// @Description Paginated lead list with the active assignment of each lead, newest first
// @Tags Leads
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 200)"
// @Param status query string false "Filter by status" Enums(new, assigned, in_progress, completed, cancelled)
// @Param q query string false "Search lead number, customer name, phone or email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AdminLeadDTO}
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := &repository.LeadFilter{Query: strings.TrimSpace(query.Get("q"))}
	if status := query.Get("status"); status != "" && status != "all" {
		s := domain.LeadStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid status filter: "+status)
			return
		}
		filter.Status = &s
	}
	page := repository.NewPage(parseIntQuery(r, "page", 1), parseIntQuery(r, "pageSize", repository.DefaultPageSize))

	p, _ := auth.FromContext(r.Context())
	result, err := h.leadService.ListLeads(r.Context(), p, filter, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "list leads")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Get godoc
// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} domain.AdminLeadDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/leads/{id} [get]
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.FromContext(r.Context())
	lead, err := h.leadService.GetLead(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// Create godoc
// @Summary Create a lead
// @Description Creates a lead with a generated lead number. When vendorId is given the lead is
// @Description assigned to that (approved) vendor in the same transaction and the vendor is emailed.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead"
// @Success 201 {object} domain.LeadWithAssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Unknown vendor"
// @Security BearerAuth
// @Router /admin/leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, _ := auth.FromContext(r.Context())
	result, err := h.leadService.CreateLead(r.Context(), p, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create lead")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Reassign godoc
// @Summary Reassign a lead
// @Description Cancels the lead's open assignments and assigns it to another vendor
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body domain.ReassignLeadRequest true "Target vendor"
// @Success 200 {object} domain.LeadWithAssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Unknown vendor"
// @Security BearerAuth
// @Router /admin/leads/{id}/reassign [post]
func (h *LeadHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.ReassignLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, _ := auth.FromContext(r.Context())
	result, err := h.leadService.ReassignLead(r.Context(), p, id, req.VendorID)
	if err != nil {
		respondServiceError(w, h.logger, err, "reassign lead")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Events godoc
// @Summary Lead history
// @Description Event log of a lead, newest first
// @Tags Leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {array} domain.LeadEventDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/leads/{id}/events [get]
func (h *LeadHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.FromContext(r.Context())
	events, err := h.leadService.ListEvents(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list lead events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}
