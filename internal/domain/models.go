package domain

import (
	"time"
)

// Role is the authorization role carried by a session token
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleVendor Role = "vendor"
)

// IsValid checks if the Role is a valid enum value
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleVendor:
		return true
	}
	return false
}

// IsUserRole reports whether the role belongs to an internal (users table) account
func (r Role) IsUserRole() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Vendor represents a business entity seeking to receive leads
type Vendor struct {
	ID                 uint         `gorm:"primaryKey"`
	Email              string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash       string       `gorm:"type:varchar(255);not null;column:password_hash"`
	CompanyName        string       `gorm:"type:varchar(255);not null;column:company_name;index"`
	GSTNumber          string       `gorm:"type:varchar(20);not null;column:gst_number"`
	PANNumber          string       `gorm:"type:varchar(20);not null;column:pan_number"`
	AccountHolderName  string       `gorm:"type:varchar(255);not null;column:account_holder_name"`
	AccountNumber      string       `gorm:"type:varchar(50);not null;column:account_number"`
	IFSCCode           string       `gorm:"type:varchar(20);not null;column:ifsc_code"`
	BankName           string       `gorm:"type:varchar(255);not null;column:bank_name"`
	Address            string       `gorm:"type:text;not null"`
	City               string       `gorm:"type:varchar(100);not null;index"`
	State              string       `gorm:"type:varchar(100);not null;index"`
	ZipCode            string       `gorm:"type:varchar(20);not null;column:zip_code"`
	Phone              string       `gorm:"type:varchar(20);not null"`
	ContactPersonName  string       `gorm:"type:varchar(255);not null;column:contact_person_name"`
	Status             VendorStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	RegisteredByUserID *uint        `gorm:"column:registered_by_user_id"`
	RegisteredBy       *User        `gorm:"foreignKey:RegisteredByUserID"`
	SubmittedAt        time.Time    `gorm:"not null;column:submitted_at"`
	CreatedAt          time.Time    `gorm:"not null"`
	UpdatedAt          time.Time    `gorm:"not null"`
}

// Application is the approval-workflow record accompanying a Vendor
type Application struct {
	ID                uint              `gorm:"primaryKey"`
	VendorID          uint              `gorm:"not null;index;column:vendor_id"`
	Vendor            *Vendor           `gorm:"foreignKey:VendorID"`
	ApplicationNumber string            `gorm:"type:varchar(50);not null;uniqueIndex;column:application_number"`
	Status            ApplicationStatus `gorm:"type:varchar(20);not null;default:'submitted'"`
	AdminNotes        *string           `gorm:"type:text;column:admin_notes"`
	RejectionReason   *string           `gorm:"type:text;column:rejection_reason"`
	ApprovalDate      *time.Time        `gorm:"column:approval_date"`
	SubmissionDate    time.Time         `gorm:"not null;column:submission_date"`
	CreatedAt         time.Time         `gorm:"not null;index"`
	UpdatedAt         time.Time         `gorm:"not null"`
}

// Lead represents a customer service request to be fulfilled by a vendor
type Lead struct {
	ID              uint       `gorm:"primaryKey"`
	LeadNumber      string     `gorm:"type:varchar(50);not null;uniqueIndex;column:lead_number"`
	CustomerName    string     `gorm:"type:varchar(255);not null;column:customer_name"`
	CustomerPhone   string     `gorm:"type:varchar(20);column:customer_phone"`
	CustomerEmail   string     `gorm:"type:varchar(255);column:customer_email"`
	Location        string     `gorm:"type:varchar(255)"`
	Details         string     `gorm:"type:text"`
	Status          LeadStatus `gorm:"type:varchar(20);not null;default:'new';index"`
	CreatedByUserID *uint      `gorm:"column:created_by_user_id"`
	CreatedBy       *User      `gorm:"foreignKey:CreatedByUserID"`
	CreatedAt       time.Time  `gorm:"not null;index"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// LeadAssignment binds a Lead to a Vendor at a point in time
type LeadAssignment struct {
	ID               uint             `gorm:"primaryKey"`
	LeadID           uint             `gorm:"not null;index;column:lead_id"`
	Lead             *Lead            `gorm:"foreignKey:LeadID"`
	VendorID         uint             `gorm:"not null;index;column:vendor_id"`
	Vendor           *Vendor          `gorm:"foreignKey:VendorID"`
	AssignedByUserID *uint            `gorm:"column:assigned_by_user_id"`
	AssignedBy       *User            `gorm:"foreignKey:AssignedByUserID"`
	Status           AssignmentStatus `gorm:"type:varchar(20);not null;default:'assigned';index"`
	AssignedAt       time.Time        `gorm:"not null;column:assigned_at"`
	UpdatedAt        time.Time        `gorm:"not null"`
}

// TableName overrides the default table name to match the migration
func (LeadAssignment) TableName() string {
	return "lead_assignments"
}

// LeadEvent is an append-only timeline entry for a Lead
type LeadEvent struct {
	ID        uint      `gorm:"primaryKey"`
	LeadID    uint      `gorm:"not null;index;column:lead_id"`
	Lead      *Lead     `gorm:"foreignKey:LeadID"`
	ActorType ActorType `gorm:"type:varchar(20);not null;column:actor_type"`
	ActorID   *uint     `gorm:"column:actor_id"`
	EventType EventType `gorm:"type:varchar(50);not null;column:event_type"`
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName overrides the default table name to match the migration
func (LeadEvent) TableName() string {
	return "lead_events"
}

// User represents an admin or staff account
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Role         Role      `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// PasswordReset is a single-use reset token record. Only the SHA-256 of the token is stored.
type PasswordReset struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"not null;index;column:user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	TokenHash string     `gorm:"type:varchar(64);not null;index;column:token_hash"`
	ExpiresAt time.Time  `gorm:"not null;column:expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"not null"`
}

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionVendorRegistered      AuditAction = "vendor_registered"
	AuditActionStaffVendorRegistered AuditAction = "staff_vendor_registered"
	AuditActionVendorStatusUpdated   AuditAction = "vendor_status_updated"
	AuditActionLeadCreated           AuditAction = "lead_created"
	AuditActionLeadReassigned        AuditAction = "lead_reassigned"
	AuditActionUserCreated           AuditAction = "user_created"
	AuditActionDocumentUploaded      AuditAction = "document_uploaded"
)

// AuditLog is an append-only record of administrative actions
type AuditLog struct {
	ID        uint        `gorm:"primaryKey"`
	VendorID  *uint       `gorm:"index;column:vendor_id"`
	LeadID    *uint       `gorm:"index;column:lead_id"`
	ActorType ActorType   `gorm:"type:varchar(20);not null;column:actor_type"`
	ActorID   *uint       `gorm:"column:actor_id"`
	Action    AuditAction `gorm:"type:varchar(50);not null;index"`
	Details   string      `gorm:"type:text"`
	CreatedAt time.Time   `gorm:"not null;index"`
}

// DocumentType classifies vendor KYC documents
type DocumentType string

const (
	DocumentTypeGSTCertificate  DocumentType = "gst_certificate"
	DocumentTypePANCard         DocumentType = "pan_card"
	DocumentTypeCancelledCheque DocumentType = "cancelled_cheque"
	DocumentTypeOther           DocumentType = "other"
)

// IsValid checks if the DocumentType is a valid enum value
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeGSTCertificate, DocumentTypePANCard, DocumentTypeCancelledCheque, DocumentTypeOther:
		return true
	}
	return false
}

// VendorDocument is an uploaded KYC document
type VendorDocument struct {
	ID           uint         `gorm:"primaryKey"`
	VendorID     uint         `gorm:"not null;index;column:vendor_id"`
	Vendor       *Vendor      `gorm:"foreignKey:VendorID"`
	DocumentType DocumentType `gorm:"type:varchar(50);not null;column:document_type"`
	Filename     string       `gorm:"type:varchar(255);not null"`
	ContentType  string       `gorm:"type:varchar(100);not null;column:content_type"`
	Size         int64        `gorm:"not null"`
	StoragePath  string       `gorm:"type:varchar(500);not null;column:storage_path"`
	UploadDate   time.Time    `gorm:"not null;column:upload_date"`
}

// TableName overrides the default table name to match the migration
func (VendorDocument) TableName() string {
	return "documents"
}

// NumberSequence tracks the last issued number per prefix and year
type NumberSequence struct {
	Prefix       string    `gorm:"type:varchar(10);primaryKey"`
	Year         int       `gorm:"primaryKey"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
