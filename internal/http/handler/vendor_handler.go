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

// VendorHandler serves vendor registration, vendor sessions and the admin vendor views
type VendorHandler struct {
	vendorService *service.VendorService
	logger        *zap.Logger
}

func NewVendorHandler(vendorService *service.VendorService, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
		logger:        logger,
	}
}

// Register godoc
// @Summary Register as a vendor
// @Description Public self-registration. Creates a pending vendor and a submitted application.
// @Tags Vendors
// @Accept json
// @Produce json
// @Param request body domain.RegisterVendorRequest true "Vendor details"
// @Success 201 {object} domain.VendorWithApplicationDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Email already registered"
// @Router /vendors/register [post]
func (h *VendorHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, nil)
}

// RegisterByStaff godoc
// @Summary Register a vendor on their behalf
// @Description Staff-assisted registration, recorded against the calling user
// @Tags Admin Vendors
// @Accept json
// @Produce json
// @Param request body domain.RegisterVendorRequest true "Vendor details"
// @Success 201 {object} domain.VendorWithApplicationDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Email already registered"
// @Security BearerAuth
// @Router /admin/vendors [post]
func (h *VendorHandler) RegisterByStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.register(w, r, p)
}

func (h *VendorHandler) register(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req domain.RegisterVendorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.vendorService.Register(r.Context(), p, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "register vendor")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Login godoc
// @Summary Vendor login
// @Description Authenticates a vendor and returns a bearer token (30 day lifetime)
// @Tags Vendors
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.VendorLoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /vendors/login [post]
func (h *VendorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.vendorService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "vendor login")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Profile godoc
// @Summary Own vendor profile
// @Description Returns the calling vendor with its latest application and uploaded documents
// @Tags Vendor Portal
// @Produce json
// @Success 200 {object} domain.VendorProfileDTO
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /vendor/profile [get]
func (h *VendorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	profile, err := h.vendorService.Profile(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger, err, "vendor profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// List godoc
// @Summary List vendors
// @Description Paginated vendor list with latest application, newest first
// @Tags Admin Vendors
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 200)"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Param q query string false "Search company, email, phone, GST or PAN"
// @Param city query string false "Filter by city"
// @Param state query string false "Filter by state"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.VendorWithApplicationDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/vendors [get]
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := &repository.VendorFilter{
		Query: strings.TrimSpace(query.Get("q")),
		City:  strings.TrimSpace(query.Get("city")),
		State: strings.TrimSpace(query.Get("state")),
	}
	if status := query.Get("status"); status != "" && status != "all" {
		s := domain.VendorStatus(status)
		filter.Status = &s
	}
	page := repository.NewPage(parseIntQuery(r, "page", 1), parseIntQuery(r, "pageSize", repository.DefaultPageSize))

	p, _ := auth.FromContext(r.Context())
	result, err := h.vendorService.List(r.Context(), p, filter, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "list vendors")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Get godoc
// @Summary Get vendor
// @Tags Admin Vendors
// @Produce json
// @Param id path int true "Vendor ID"
// @Success 200 {object} domain.VendorWithApplicationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/vendors/{id} [get]
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.FromContext(r.Context())
	vendor, err := h.vendorService.Get(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get vendor")
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// UpdateStatus godoc
// @Summary Set vendor status
// @Description Approves, rejects or returns a vendor to pending. The latest application mirrors
// @Description the decision and the vendor is emailed after commit.
// @Tags Admin Vendors
// @Accept json
// @Produce json
// @Param id path int true "Vendor ID"
// @Param request body domain.UpdateVendorStatusRequest true "Decision"
// @Success 200 {object} domain.VendorWithApplicationDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/vendors/{id}/status [patch]
func (h *VendorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateVendorStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, _ := auth.FromContext(r.Context())
	result, err := h.vendorService.SetVendorStatus(r.Context(), p, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "set vendor status")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
