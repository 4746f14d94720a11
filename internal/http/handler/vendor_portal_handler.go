package handler

import (
	"fmt"
	"net/http"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

// VendorPortalHandler serves the authenticated vendor's leads, assignments and documents
type VendorPortalHandler struct {
	leadService     *service.LeadService
	documentService *service.DocumentService
	maxUploadMB     int64
	logger          *zap.Logger
}

func NewVendorPortalHandler(leadService *service.LeadService, documentService *service.DocumentService, maxUploadMB int64, logger *zap.Logger) *VendorPortalHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &VendorPortalHandler{
		leadService:     leadService,
		documentService: documentService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// Leads godoc
// @Summary List own leads
// @Description Leads assigned to the calling vendor, most recent assignment first
// @Tags Vendor Portal
// @Produce json
// @Success 200 {array} domain.VendorLeadDTO
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /vendor/leads [get]
func (h *VendorPortalHandler) Leads(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	leads, err := h.leadService.ListVendorLeads(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger, err, "list vendor leads")
		return
	}
	respondJSON(w, http.StatusOK, leads)
}

// UpdateAssignment godoc
// @Summary Update an assignment
// @Description Moves one of the caller's assignments to accepted, in_progress, completed or cancelled.
// @Description The lead status follows and a status_change event is recorded.
// @Tags Vendor Portal
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param request body domain.UpdateAssignmentStatusRequest true "New status"
// @Success 200 {object} domain.AssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Assignment not found for this vendor"
// @Failure 409 {object} domain.APIError "Assignment already closed"
// @Security BearerAuth
// @Router /vendor/assignments/{id} [patch]
func (h *VendorPortalHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateAssignmentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, _ := auth.FromContext(r.Context())
	assignment, err := h.leadService.UpdateAssignmentStatus(r.Context(), p, id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update assignment status")
		return
	}
	respondJSON(w, http.StatusOK, assignment)
}

// UploadDocument godoc
// @Summary Upload a KYC document
// @Description Multipart upload of a PDF, JPEG or PNG document for the calling vendor
// @Tags Vendor Portal
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param documentType formData string true "Document type" Enums(gst_certificate, pan_card, cancelled_cheque, other)
// @Success 201 {object} domain.DocumentDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /vendor/documents [post]
func (h *VendorPortalHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := h.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	docType := domain.DocumentType(r.FormValue("documentType"))
	if docType == "" {
		docType = domain.DocumentTypeOther
	}

	p, _ := auth.FromContext(r.Context())
	doc, err := h.documentService.Upload(r.Context(), p, docType, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload document")
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}
