package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
)

// Notifier is called by the services after a transaction commits. Implementations
// must not block on delivery and never report failures back to the caller.
type Notifier interface {
	NotifyVendorStatus(ctx context.Context, vendor *domain.Vendor, status domain.VendorStatus, message string)
	NotifyLeadAssigned(ctx context.Context, vendor *domain.Vendor, lead *domain.Lead, assignedBy string)
	NotifyVendorRegistered(ctx context.Context, vendor *domain.Vendor)
	NotifyUserCreated(ctx context.Context, user *domain.User, temporaryPassword string)
	NotifyPasswordReset(ctx context.Context, user *domain.User, token string, expiresAt time.Time)
	NotifyAssignmentReminder(ctx context.Context, vendor *domain.Vendor, lead *domain.Lead, assignedAt time.Time)
}

// Nop discards every notification
type Nop struct{}

func (Nop) NotifyVendorStatus(context.Context, *domain.Vendor, domain.VendorStatus, string) {}
func (Nop) NotifyLeadAssigned(context.Context, *domain.Vendor, *domain.Lead, string)        {}
func (Nop) NotifyVendorRegistered(context.Context, *domain.Vendor)                          {}
func (Nop) NotifyUserCreated(context.Context, *domain.User, string)                         {}
func (Nop) NotifyPasswordReset(context.Context, *domain.User, string, time.Time)            {}
func (Nop) NotifyAssignmentReminder(context.Context, *domain.Vendor, *domain.Lead, time.Time) {
}

// Composer turns workflow events into email messages
type Composer struct {
	BaseURL    string
	AdminEmail string
}

func (c Composer) link(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c Composer) VendorStatus(vendor *domain.Vendor, status domain.VendorStatus, message string) Message {
	subject := "Your vendor application is under review"
	switch status {
	case domain.VendorStatusApproved:
		subject = "Your vendor application is approved"
	case domain.VendorStatusRejected:
		subject = "Your vendor application was rejected"
	}

	text := fmt.Sprintf("Hi %s,\n\n%s\n\nCompany: %s\nStatus: %s\n\nSign in: %s",
		vendor.ContactPersonName, message, vendor.CompanyName, status, c.link("/login"))

	return Message{
		Kind:    KindVendorStatus,
		To:      vendor.Email,
		ToName:  vendor.ContactPersonName,
		Subject: subject,
		Text:    text,
	}
}

func (c Composer) LeadAssigned(vendor *domain.Vendor, lead *domain.Lead, assignedBy string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nA new lead has been assigned to %s.\n\n", vendor.ContactPersonName, vendor.CompanyName)
	fmt.Fprintf(&b, "Lead: %s\nCustomer: %s\n", lead.LeadNumber, lead.CustomerName)
	if lead.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", lead.CustomerPhone)
	}
	if lead.CustomerEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.CustomerEmail)
	}
	if lead.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", lead.Location)
	}
	if lead.Details != "" {
		fmt.Fprintf(&b, "\n%s\n", lead.Details)
	}
	if assignedBy != "" {
		fmt.Fprintf(&b, "\nAssigned by: %s\n", assignedBy)
	}
	fmt.Fprintf(&b, "\nView your leads: %s", c.link("/dashboard"))

	return Message{
		Kind:    KindLeadAssigned,
		To:      vendor.Email,
		ToName:  vendor.ContactPersonName,
		Subject: fmt.Sprintf("New lead assigned: %s", lead.LeadNumber),
		Text:    b.String(),
	}
}

// VendorRegistered returns the welcome email and, when an admin address is configured, the admin alert
func (c Composer) VendorRegistered(vendor *domain.Vendor) []Message {
	msgs := []Message{{
		Kind:    KindVendorWelcome,
		To:      vendor.Email,
		ToName:  vendor.ContactPersonName,
		Subject: "Welcome to the vendor network - registration received",
		Text: fmt.Sprintf("Hi %s,\n\nYour vendor profile has been registered.\n\nCompany: %s\nEmail: %s\nGST: %s\n\n"+
			"Your documents are now under review. Sign in: %s",
			vendor.ContactPersonName, vendor.CompanyName, vendor.Email, vendor.GSTNumber, c.link("/login")),
	}}

	if c.AdminEmail != "" {
		msgs = append(msgs, Message{
			Kind:    KindVendorRegisteredAdm,
			To:      c.AdminEmail,
			Subject: fmt.Sprintf("New vendor registration: %s", vendor.CompanyName),
			Text: fmt.Sprintf("A new vendor has registered. Please review:\n\nCompany: %s\nOwner: %s\nEmail: %s\nPhone: %s\nGST: %s\nPAN: %s\n\n%s",
				vendor.CompanyName, vendor.ContactPersonName, vendor.Email, vendor.Phone, vendor.GSTNumber, vendor.PANNumber,
				c.link("/admin/dashboard?tab=vendors")),
		})
	}
	return msgs
}

func (c Composer) UserCreated(user *domain.User, temporaryPassword string) Message {
	return Message{
		Kind:    KindUserCreated,
		To:      user.Email,
		ToName:  user.Name,
		Subject: "Your vendor portal account",
		Text: fmt.Sprintf("Hi %s,\n\nAn %s account has been created for you.\n\nEmail: %s\nTemporary password: %s\n\n"+
			"Sign in and change your password: %s",
			user.Name, user.Role, user.Email, temporaryPassword, c.link("/"+string(user.Role))),
	}
}

func (c Composer) PasswordReset(user *domain.User, token string, expiresAt time.Time) Message {
	resetURL := c.link(fmt.Sprintf("/%s/reset-password?token=%s", user.Role, token))
	return Message{
		Kind:    KindPasswordReset,
		To:      user.Email,
		ToName:  user.Name,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password.\n\n%s\n\n"+
			"This link expires at %s UTC and can be used once. If you did not request it, ignore this email.",
			user.Name, resetURL, expiresAt.UTC().Format("2006-01-02 15:04")),
	}
}

func (c Composer) AssignmentReminder(vendor *domain.Vendor, lead *domain.Lead, assignedAt time.Time) Message {
	return Message{
		Kind:    KindAssignmentReminder,
		To:      vendor.Email,
		ToName:  vendor.ContactPersonName,
		Subject: fmt.Sprintf("Reminder: lead %s is waiting for you", lead.LeadNumber),
		Text: fmt.Sprintf("Hi %s,\n\nLead %s (%s) was assigned to you on %s and has not been accepted yet.\n\n%s",
			vendor.ContactPersonName, lead.LeadNumber, lead.CustomerName,
			assignedAt.UTC().Format("2006-01-02"), c.link("/dashboard")),
	}
}
