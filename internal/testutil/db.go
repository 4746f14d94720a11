// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/database"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plaintext password of every fixture account
const TestPassword = "secret123"

var (
	passwordHashOnce sync.Once
	passwordHash     string
)

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
// A single connection is used so every statement sees the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// AuthConfig returns token settings for tests
func AuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:         "test-secret-with-enough-entropy-0123456789",
		Issuer:            "vendor-portal-test",
		UserTokenTTL:      24 * 7,
		VendorTokenTTL:    24 * 30,
		PasswordResetTTL:  30,
		MinPasswordLength: 6,
	}
}

func hashedTestPassword() string {
	passwordHashOnce.Do(func() {
		h, err := auth.HashPassword(TestPassword)
		if err != nil {
			panic(err)
		}
		passwordHash = h
	})
	return passwordHash
}

// GSTIN returns a random, well-formed GST identification number
func GSTIN() string {
	return fmt.Sprintf("%02d%s%04d%s%dZ%d",
		gofakeit.Number(1, 37),
		strings.ToUpper(gofakeit.Lexify("?????")),
		gofakeit.Number(0, 9999),
		strings.ToUpper(gofakeit.Lexify("?")),
		gofakeit.Number(1, 9),
		gofakeit.Number(0, 9),
	)
}

// PAN returns a random, well-formed permanent account number
func PAN() string {
	return strings.ToUpper(gofakeit.Lexify("?????")) + gofakeit.Numerify("####") + strings.ToUpper(gofakeit.Lexify("?"))
}

// IFSC returns a random, well-formed bank branch code
func IFSC() string {
	return strings.ToUpper(gofakeit.Lexify("????")) + "0" + gofakeit.Numerify("######")
}

// IndianMobile returns a random valid Indian mobile number in national format
func IndianMobile() string {
	return "98" + gofakeit.Numerify("########")
}

// RegisterVendorRequest returns a valid registration payload
func RegisterVendorRequest() *domain.RegisterVendorRequest {
	return &domain.RegisterVendorRequest{
		Email:             strings.ToLower(gofakeit.Email()),
		Password:          TestPassword,
		CompanyName:       gofakeit.Company(),
		GSTNumber:         GSTIN(),
		PANNumber:         PAN(),
		AccountHolderName: gofakeit.Name(),
		AccountNumber:     gofakeit.Numerify("############"),
		IFSCCode:          IFSC(),
		BankName:          "State Bank of India",
		Address:           gofakeit.Street(),
		City:              "Pune",
		State:             "Maharashtra",
		ZipCode:           gofakeit.Numerify("411###"),
		Phone:             IndianMobile(),
		ContactPersonName: gofakeit.Name(),
	}
}

// CreateVendor inserts a vendor with the given status and a submitted application
func CreateVendor(t *testing.T, db *gorm.DB, status domain.VendorStatus) *domain.Vendor {
	t.Helper()
	now := time.Now().UTC()

	vendor := &domain.Vendor{
		Email:             strings.ToLower(gofakeit.Email()),
		PasswordHash:      hashedTestPassword(),
		CompanyName:       gofakeit.Company(),
		GSTNumber:         GSTIN(),
		PANNumber:         PAN(),
		AccountHolderName: gofakeit.Name(),
		AccountNumber:     gofakeit.Numerify("############"),
		IFSCCode:          IFSC(),
		BankName:          "HDFC Bank",
		Address:           gofakeit.Street(),
		City:              "Mumbai",
		State:             "Maharashtra",
		ZipCode:           "400001",
		Phone:             "+91" + IndianMobile(),
		ContactPersonName: gofakeit.Name(),
		Status:            status,
		SubmittedAt:       now,
	}
	require.NoError(t, db.Create(vendor).Error)

	app := &domain.Application{
		VendorID:          vendor.ID,
		ApplicationNumber: fmt.Sprintf("APP-TEST-%d-%s", vendor.ID, gofakeit.LetterN(6)),
		Status:            domain.ApplicationStatusSubmitted,
		SubmissionDate:    now,
	}
	// a pending vendor still has the application as registration left it
	if status != domain.VendorStatusPending {
		app.Status = domain.ApplicationStatusFor(status)
	}
	if status == domain.VendorStatusApproved {
		app.ApprovalDate = &now
	}
	require.NoError(t, db.Create(app).Error)
	return vendor
}

// CreateUser inserts an admin or staff account with TestPassword
func CreateUser(t *testing.T, db *gorm.DB, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        strings.ToLower(gofakeit.Email()),
		PasswordHash: hashedTestPassword(),
		Name:         gofakeit.Name(),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateLead inserts an unassigned lead
func CreateLead(t *testing.T, db *gorm.DB) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		LeadNumber:    fmt.Sprintf("LEAD-TEST-%s", gofakeit.LetterN(8)),
		CustomerName:  gofakeit.Name(),
		CustomerPhone: "+91" + IndianMobile(),
		Location:      gofakeit.City(),
		Status:        domain.LeadStatusNew,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// UserPrincipal returns the principal of a user row
func UserPrincipal(u *domain.User) *auth.Principal {
	return &auth.Principal{ID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
}

// VendorPrincipal returns the principal of a vendor row
func VendorPrincipal(v *domain.Vendor) *auth.Principal {
	return &auth.Principal{ID: v.ID, Role: domain.RoleVendor, Email: v.Email, Name: v.CompanyName}
}

// Count returns the number of rows in the model's table matching the optional condition
func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// FailOn makes every statement against table fail once armed, to exercise rollbacks
type FailOn struct {
	mu    sync.Mutex
	table string
	armed bool
}

// InjectFailure registers create/update callbacks that fail writes to table while armed
func InjectFailure(t *testing.T, db *gorm.DB, table string) *FailOn {
	t.Helper()
	f := &FailOn{table: table}
	hook := func(tx *gorm.DB) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.armed && tx.Statement.Table == f.table {
			_ = tx.AddError(fmt.Errorf("injected failure writing %s", f.table))
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("testutil:fail_create_"+table, hook))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("testutil:fail_update_"+table, hook))
	return f
}

func (f *FailOn) Arm()    { f.set(true) }
func (f *FailOn) Disarm() { f.set(false) }

func (f *FailOn) set(v bool) {
	f.mu.Lock()
	f.armed = v
	f.mu.Unlock()
}

// Notification is one call observed by RecordingNotifier
type Notification struct {
	Kind     string
	VendorID uint
	LeadID   uint
	UserID   uint
	Status   domain.VendorStatus
	Message  string
	Token    string
}

// RecordingNotifier captures notifier calls for assertions
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []Notification
}

func (r *RecordingNotifier) record(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
}

// Calls returns a copy of the recorded notifications
func (r *RecordingNotifier) Calls() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.calls...)
}

// OfKind returns the recorded notifications of one kind
func (r *RecordingNotifier) OfKind(kind string) []Notification {
	var out []Notification
	for _, c := range r.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (r *RecordingNotifier) NotifyVendorStatus(_ context.Context, vendor *domain.Vendor, status domain.VendorStatus, message string) {
	r.record(Notification{Kind: "vendor_status", VendorID: vendor.ID, Status: status, Message: message})
}

func (r *RecordingNotifier) NotifyLeadAssigned(_ context.Context, vendor *domain.Vendor, lead *domain.Lead, assignedBy string) {
	r.record(Notification{Kind: "lead_assigned", VendorID: vendor.ID, LeadID: lead.ID, Message: assignedBy})
}

func (r *RecordingNotifier) NotifyVendorRegistered(_ context.Context, vendor *domain.Vendor) {
	r.record(Notification{Kind: "vendor_registered", VendorID: vendor.ID})
}

func (r *RecordingNotifier) NotifyUserCreated(_ context.Context, user *domain.User, temporaryPassword string) {
	r.record(Notification{Kind: "user_created", UserID: user.ID, Token: temporaryPassword})
}

func (r *RecordingNotifier) NotifyPasswordReset(_ context.Context, user *domain.User, token string, _ time.Time) {
	r.record(Notification{Kind: "password_reset", UserID: user.ID, Token: token})
}

func (r *RecordingNotifier) NotifyAssignmentReminder(_ context.Context, vendor *domain.Vendor, lead *domain.Lead, _ time.Time) {
	r.record(Notification{Kind: "assignment_reminder", VendorID: vendor.ID, LeadID: lead.ID})
}
