package handler

import (
	"io"
	"mime"
	"net/http"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

// DocumentHandler serves vendor documents to admin and staff
type DocumentHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// ListForVendor godoc
// @Summary List a vendor's documents
// @Tags Admin Vendors
// @Produce json
// @Param id path int true "Vendor ID"
// @Success 200 {array} domain.DocumentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/vendors/{id}/documents [get]
func (h *DocumentHandler) ListForVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.FromContext(r.Context())
	docs, err := h.documentService.ListForVendor(r.Context(), p, vendorID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list vendor documents")
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// Download godoc
// @Summary Download a document
// @Tags Admin Vendors
// @Produce octet-stream
// @Param id path int true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/documents/{id}/download [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.FromContext(r.Context())
	doc, body, err := h.documentService.Download(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "download document")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Type", doc.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("document download interrupted", zap.Uint("document_id", id), zap.Error(err))
	}
}
