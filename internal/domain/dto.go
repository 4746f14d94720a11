package domain

import "time"

// ============================================================================
// Vendor DTOs
// ============================================================================

type VendorDTO struct {
	ID                uint         `json:"id"`
	Email             string       `json:"email"`
	CompanyName       string       `json:"companyName"`
	GSTNumber         string       `json:"gstNumber"`
	PANNumber         string       `json:"panNumber"`
	AccountHolderName string       `json:"accountHolderName"`
	AccountNumber     string       `json:"accountNumber"`
	IFSCCode          string       `json:"ifscCode"`
	BankName          string       `json:"bankName"`
	Address           string       `json:"address"`
	City              string       `json:"city"`
	State             string       `json:"state"`
	ZipCode           string       `json:"zipCode"`
	Phone             string       `json:"phone"`
	ContactPersonName string       `json:"contactPersonName"`
	Status            VendorStatus `json:"status"`
	SubmittedAt       time.Time    `json:"submittedAt"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

type ApplicationDTO struct {
	ID                uint              `json:"id"`
	VendorID          uint              `json:"vendorId"`
	ApplicationNumber string            `json:"applicationNumber"`
	Status            ApplicationStatus `json:"status"`
	AdminNotes        *string           `json:"adminNotes,omitempty"`
	RejectionReason   *string           `json:"rejectionReason,omitempty"`
	ApprovalDate      *time.Time        `json:"approvalDate,omitempty"`
	SubmissionDate    time.Time         `json:"submissionDate"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// VendorWithApplicationDTO is returned by registration and status updates
type VendorWithApplicationDTO struct {
	Vendor      VendorDTO       `json:"vendor"`
	Application *ApplicationDTO `json:"application,omitempty"`
}

// VendorProfileDTO is the vendor's own view of their onboarding state
type VendorProfileDTO struct {
	Vendor      VendorDTO       `json:"vendor"`
	Application *ApplicationDTO `json:"application,omitempty"`
	Documents   []DocumentDTO   `json:"documents"`
}

type DocumentDTO struct {
	ID           uint         `json:"id"`
	VendorID     uint         `json:"vendorId"`
	DocumentType DocumentType `json:"documentType"`
	Filename     string       `json:"filename"`
	ContentType  string       `json:"contentType"`
	Size         int64        `json:"size"`
	UploadDate   time.Time    `json:"uploadDate"`
}

// ============================================================================
// Lead DTOs
// ============================================================================

type LeadDTO struct {
	ID              uint       `json:"id"`
	LeadNumber      string     `json:"leadNumber"`
	CustomerName    string     `json:"customerName"`
	CustomerPhone   string     `json:"customerPhone,omitempty"`
	CustomerEmail   string     `json:"customerEmail,omitempty"`
	Location        string     `json:"location,omitempty"`
	Details         string     `json:"details,omitempty"`
	Status          LeadStatus `json:"status"`
	CreatedByUserID *uint      `json:"createdByUserId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type AssignmentDTO struct {
	ID               uint             `json:"id"`
	LeadID           uint             `json:"leadId"`
	VendorID         uint             `json:"vendorId"`
	AssignedByUserID *uint            `json:"assignedByUserId,omitempty"`
	Status           AssignmentStatus `json:"status"`
	AssignedAt       time.Time        `json:"assignedAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// LeadWithAssignmentDTO is returned by lead creation and reassignment
type LeadWithAssignmentDTO struct {
	Lead       LeadDTO        `json:"lead"`
	Assignment *AssignmentDTO `json:"assignment,omitempty"`
}

// AdminLeadDTO is a lead row in the admin list, with its active assignment if any
type AdminLeadDTO struct {
	LeadDTO
	AssignmentID      *uint             `json:"assignmentId,omitempty"`
	VendorID          *uint             `json:"vendorId,omitempty"`
	VendorCompanyName string            `json:"vendorCompanyName,omitempty"`
	AssignmentStatus  *AssignmentStatus `json:"assignmentStatus,omitempty"`
	AssignedAt        *time.Time        `json:"assignedAt,omitempty"`
}

// VendorLeadDTO is a lead as seen by the vendor it was assigned to
type VendorLeadDTO struct {
	LeadDTO
	AssignmentID        uint             `json:"assignmentId"`
	AssignmentStatus    AssignmentStatus `json:"assignmentStatus"`
	AssignedAt          time.Time        `json:"assignedAt"`
	AssignmentUpdatedAt time.Time        `json:"assignmentUpdatedAt"`
}

type LeadEventDTO struct {
	ID        uint      `json:"id"`
	LeadID    uint      `json:"leadId"`
	ActorType ActorType `json:"actorType"`
	ActorID   *uint     `json:"actorId,omitempty"`
	EventType EventType `json:"eventType"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditLogDTO is one audit trail row
type AuditLogDTO struct {
	ID        uint                   `json:"id"`
	VendorID  *uint                  `json:"vendorId,omitempty"`
	LeadID    *uint                  `json:"leadId,omitempty"`
	ActorType ActorType              `json:"actorType"`
	ActorID   *uint                  `json:"actorId,omitempty"`
	Action    AuditAction            `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ============================================================================
// User and session DTOs
// ============================================================================

type UserDTO struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatedUserDTO carries the generated temporary password. It is only returned once.
type CreatedUserDTO struct {
	User              UserDTO `json:"user"`
	TemporaryPassword string  `json:"temporaryPassword"`
}

type PrincipalDTO struct {
	ID    uint   `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type UserLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

type VendorLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Vendor    VendorDTO `json:"vendor"`
}

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ============================================================================
// Requests
// ============================================================================

type RegisterVendorRequest struct {
	Email             string `json:"email" validate:"required,email,max=255"`
	Password          string `json:"password" validate:"required,min=6,max=72"`
	CompanyName       string `json:"companyName" validate:"required,max=255"`
	GSTNumber         string `json:"gstNumber" validate:"required,gstin"`
	PANNumber         string `json:"panNumber" validate:"required,pan"`
	AccountHolderName string `json:"accountHolderName" validate:"required,max=255"`
	AccountNumber     string `json:"accountNumber" validate:"required,numeric,min=6,max=20"`
	IFSCCode          string `json:"ifscCode" validate:"required,ifsc"`
	BankName          string `json:"bankName" validate:"required,max=255"`
	Address           string `json:"address" validate:"required"`
	City              string `json:"city" validate:"required,max=100"`
	State             string `json:"state" validate:"required,max=100"`
	ZipCode           string `json:"zipCode" validate:"required,max=20"`
	Phone             string `json:"phone" validate:"required,max=20"`
	ContactPersonName string `json:"contactPersonName" validate:"required,max=255"`
}

type UpdateVendorStatusRequest struct {
	Status          VendorStatus `json:"status" validate:"required"`
	Notes           *string      `json:"notes,omitempty"`
	RejectionReason *string      `json:"rejectionReason,omitempty"`
}

type CreateLeadRequest struct {
	CustomerName  string `json:"customerName" validate:"required,max=255"`
	CustomerPhone string `json:"customerPhone,omitempty" validate:"max=20"`
	CustomerEmail string `json:"customerEmail,omitempty" validate:"omitempty,email,max=255"`
	Location      string `json:"location,omitempty" validate:"max=255"`
	Details       string `json:"details,omitempty"`
	VendorID      *uint  `json:"vendorId,omitempty"`
}

type ReassignLeadRequest struct {
	VendorID uint `json:"vendorId" validate:"required,gt=0"`
}

type UpdateAssignmentStatusRequest struct {
	Status AssignmentStatus `json:"status" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email   string `json:"email" validate:"required,email"`
	ForRole Role   `json:"forRole,omitempty" validate:"omitempty,oneof=admin staff"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=255"`
	Role  Role   `json:"role" validate:"required,oneof=admin staff"`
}
