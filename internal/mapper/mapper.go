package mapper

import (
	"encoding/json"

	"github.com/straye-as/vendor-portal-api/internal/domain"
)

// ToVendorDTO converts Vendor to VendorDTO. The password hash never leaves this package.
func ToVendorDTO(vendor *domain.Vendor) domain.VendorDTO {
	return domain.VendorDTO{
		ID:                vendor.ID,
		Email:             vendor.Email,
		CompanyName:       vendor.CompanyName,
		GSTNumber:         vendor.GSTNumber,
		PANNumber:         vendor.PANNumber,
		AccountHolderName: vendor.AccountHolderName,
		AccountNumber:     vendor.AccountNumber,
		IFSCCode:          vendor.IFSCCode,
		BankName:          vendor.BankName,
		Address:           vendor.Address,
		City:              vendor.City,
		State:             vendor.State,
		ZipCode:           vendor.ZipCode,
		Phone:             vendor.Phone,
		ContactPersonName: vendor.ContactPersonName,
		Status:            vendor.Status,
		SubmittedAt:       vendor.SubmittedAt,
		CreatedAt:         vendor.CreatedAt,
		UpdatedAt:         vendor.UpdatedAt,
	}
}

// ToApplicationDTO converts Application to ApplicationDTO
func ToApplicationDTO(app *domain.Application) *domain.ApplicationDTO {
	if app == nil {
		return nil
	}
	return &domain.ApplicationDTO{
		ID:                app.ID,
		VendorID:          app.VendorID,
		ApplicationNumber: app.ApplicationNumber,
		Status:            app.Status,
		AdminNotes:        app.AdminNotes,
		RejectionReason:   app.RejectionReason,
		ApprovalDate:      app.ApprovalDate,
		SubmissionDate:    app.SubmissionDate,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

// ToVendorWithApplicationDTO pairs a vendor with its latest application
func ToVendorWithApplicationDTO(vendor *domain.Vendor, app *domain.Application) domain.VendorWithApplicationDTO {
	return domain.VendorWithApplicationDTO{
		Vendor:      ToVendorDTO(vendor),
		Application: ToApplicationDTO(app),
	}
}

// ToVendorProfileDTO builds the vendor's own profile view
func ToVendorProfileDTO(vendor *domain.Vendor, app *domain.Application, docs []domain.VendorDocument) domain.VendorProfileDTO {
	return domain.VendorProfileDTO{
		Vendor:      ToVendorDTO(vendor),
		Application: ToApplicationDTO(app),
		Documents:   ToDocumentDTOs(docs),
	}
}

// ToDocumentDTO converts VendorDocument to DocumentDTO
func ToDocumentDTO(doc *domain.VendorDocument) domain.DocumentDTO {
	return domain.DocumentDTO{
		ID:           doc.ID,
		VendorID:     doc.VendorID,
		DocumentType: doc.DocumentType,
		Filename:     doc.Filename,
		ContentType:  doc.ContentType,
		Size:         doc.Size,
		UploadDate:   doc.UploadDate,
	}
}

func ToDocumentDTOs(docs []domain.VendorDocument) []domain.DocumentDTO {
	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = ToDocumentDTO(&docs[i])
	}
	return dtos
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	return domain.LeadDTO{
		ID:              lead.ID,
		LeadNumber:      lead.LeadNumber,
		CustomerName:    lead.CustomerName,
		CustomerPhone:   lead.CustomerPhone,
		CustomerEmail:   lead.CustomerEmail,
		Location:        lead.Location,
		Details:         lead.Details,
		Status:          lead.Status,
		CreatedByUserID: lead.CreatedByUserID,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// ToAssignmentDTO converts LeadAssignment to AssignmentDTO
func ToAssignmentDTO(a *domain.LeadAssignment) *domain.AssignmentDTO {
	if a == nil {
		return nil
	}
	return &domain.AssignmentDTO{
		ID:               a.ID,
		LeadID:           a.LeadID,
		VendorID:         a.VendorID,
		AssignedByUserID: a.AssignedByUserID,
		Status:           a.Status,
		AssignedAt:       a.AssignedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func ToLeadWithAssignmentDTO(lead *domain.Lead, a *domain.LeadAssignment) domain.LeadWithAssignmentDTO {
	return domain.LeadWithAssignmentDTO{
		Lead:       ToLeadDTO(lead),
		Assignment: ToAssignmentDTO(a),
	}
}

// ToAdminLeadDTO flattens a lead and its active assignment (which may be nil)
func ToAdminLeadDTO(lead *domain.Lead, active *domain.LeadAssignment) domain.AdminLeadDTO {
	dto := domain.AdminLeadDTO{LeadDTO: ToLeadDTO(lead)}
	if active == nil {
		return dto
	}

	id := active.ID
	vendorID := active.VendorID
	status := active.Status
	assignedAt := active.AssignedAt
	dto.AssignmentID = &id
	dto.VendorID = &vendorID
	dto.AssignmentStatus = &status
	dto.AssignedAt = &assignedAt
	if active.Vendor != nil {
		dto.VendorCompanyName = active.Vendor.CompanyName
	}
	return dto
}

// ToVendorLeadDTO converts an assignment with its preloaded lead
func ToVendorLeadDTO(a *domain.LeadAssignment) domain.VendorLeadDTO {
	dto := domain.VendorLeadDTO{
		AssignmentID:        a.ID,
		AssignmentStatus:    a.Status,
		AssignedAt:          a.AssignedAt,
		AssignmentUpdatedAt: a.UpdatedAt,
	}
	if a.Lead != nil {
		dto.LeadDTO = ToLeadDTO(a.Lead)
	}
	return dto
}

// ToLeadEventDTO converts LeadEvent to LeadEventDTO
func ToLeadEventDTO(e *domain.LeadEvent) domain.LeadEventDTO {
	return domain.LeadEventDTO{
		ID:        e.ID,
		LeadID:    e.LeadID,
		ActorType: e.ActorType,
		ActorID:   e.ActorID,
		EventType: e.EventType,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}

func ToLeadEventDTOs(events []domain.LeadEvent) []domain.LeadEventDTO {
	dtos := make([]domain.LeadEventDTO, len(events))
	for i := range events {
		dtos[i] = ToLeadEventDTO(&events[i])
	}
	return dtos
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func ToUserDTOs(users []domain.User) []domain.UserDTO {
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = ToUserDTO(&users[i])
	}
	return dtos
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO, decoding the stored details JSON
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	dto := domain.AuditLogDTO{
		ID:        log.ID,
		VendorID:  log.VendorID,
		LeadID:    log.LeadID,
		ActorType: log.ActorType,
		ActorID:   log.ActorID,
		Action:    log.Action,
		CreatedAt: log.CreatedAt,
	}
	if log.Details != "" {
		_ = json.Unmarshal([]byte(log.Details), &dto.Details)
	}
	return dto
}
