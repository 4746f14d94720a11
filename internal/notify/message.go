package notify

import (
	"html"
	"strings"
	"time"
)

// Kind classifies an outgoing notification
type Kind string

const (
	KindVendorStatus        Kind = "vendor_status"
	KindLeadAssigned        Kind = "lead_assigned"
	KindVendorWelcome       Kind = "vendor_welcome"
	KindVendorRegisteredAdm Kind = "vendor_registered_admin"
	KindUserCreated         Kind = "user_created"
	KindPasswordReset       Kind = "password_reset"
	KindAssignmentReminder  Kind = "assignment_reminder"
)

// Message is one queued email. It is JSON encoded when the Redis queue is used.
type Message struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	To         string    `json:"to"`
	ToName     string    `json:"toName,omitempty"`
	Subject    string    `json:"subject"`
	Text       string    `json:"text"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// HTML renders the plain-text body as minimal escaped HTML
func (m Message) HTML() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, para := range strings.Split(strings.TrimSpace(m.Text), "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
