package domain

// VendorStatus represents a vendor's approval lifecycle state
type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

// IsValid checks if the VendorStatus is a valid enum value
func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusPending, VendorStatusApproved, VendorStatusRejected:
		return true
	}
	return false
}

// ApplicationStatus mirrors VendorStatus, plus the initial submitted state
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// ApplicationStatusFor returns the application status matching a vendor status
func ApplicationStatusFor(s VendorStatus) ApplicationStatus {
	return ApplicationStatus(s)
}

// VendorStatusMessage is the human-readable message sent to a vendor after a status change
func VendorStatusMessage(s VendorStatus, rejectionReason string) string {
	switch s {
	case VendorStatusApproved:
		return "Congratulations! Your application is approved. You can now receive and manage leads."
	case VendorStatusRejected:
		if rejectionReason != "" {
			return rejectionReason
		}
		return "Your application was rejected."
	default:
		return "Your application is under review."
	}
}

// LeadStatus is derived from the lead's current assignment
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusAssigned   LeadStatus = "assigned"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusCompleted  LeadStatus = "completed"
	LeadStatusCancelled  LeadStatus = "cancelled"
)

// IsValid checks if the LeadStatus is a valid enum value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusAssigned, LeadStatusInProgress, LeadStatusCompleted, LeadStatusCancelled:
		return true
	}
	return false
}

// AssignmentStatus is the lifecycle state of a single lead assignment
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusAccepted   AssignmentStatus = "accepted"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

// TerminalAssignmentStatuses are retained for history and never change again through reassignment
var TerminalAssignmentStatuses = []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusCancelled}

// ActiveAssignmentStatuses are the non-terminal states; a lead has at most one assignment in them
var ActiveAssignmentStatuses = []AssignmentStatus{AssignmentStatusAssigned, AssignmentStatusAccepted, AssignmentStatusInProgress}

// IsValid checks if the AssignmentStatus is a valid enum value
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusAssigned, AssignmentStatusAccepted, AssignmentStatusInProgress,
		AssignmentStatusCompleted, AssignmentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the assignment can no longer be active
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}

// IsVendorSettable reports whether a vendor may move an assignment into this status
func (s AssignmentStatus) IsVendorSettable() bool {
	switch s {
	case AssignmentStatusAccepted, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusCancelled:
		return true
	}
	return false
}

// LeadStatusForAssignment maps an assignment status onto its lead's status.
// This is the only place lead status is derived from assignment state.
func LeadStatusForAssignment(s AssignmentStatus) LeadStatus {
	switch s {
	case AssignmentStatusCompleted:
		return LeadStatusCompleted
	case AssignmentStatusInProgress:
		return LeadStatusInProgress
	case AssignmentStatusCancelled:
		return LeadStatusCancelled
	default:
		return LeadStatusAssigned
	}
}

// ActorType identifies who caused a lead event
type ActorType string

const (
	ActorSystem ActorType = "system"
	ActorAdmin  ActorType = "admin"
	ActorStaff  ActorType = "staff"
	ActorVendor ActorType = "vendor"
)

// ActorTypeForRole maps a principal role to the actor recorded on events
func ActorTypeForRole(r Role) ActorType {
	switch r {
	case RoleAdmin:
		return ActorAdmin
	case RoleStaff:
		return ActorStaff
	case RoleVendor:
		return ActorVendor
	default:
		return ActorSystem
	}
}

// EventType classifies lead timeline entries
type EventType string

const (
	EventTypeCreated      EventType = "created"
	EventTypeAssigned     EventType = "assigned"
	EventTypeReassigned   EventType = "reassigned"
	EventTypeStatusChange EventType = "status_change"
)
