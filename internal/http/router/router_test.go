package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/http/handler"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/straye-as/vendor-portal-api/internal/http/router"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"github.com/straye-as/vendor-portal-api/internal/storage"
	"github.com/straye-as/vendor-portal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	handler  http.Handler
	notifier *testutil.RecordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	notifier := &testutil.RecordingNotifier{}
	authCfg := testutil.AuthConfig()
	tokens := auth.NewTokenManager(authCfg)

	vendorRepo := repository.NewVendorRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	assignmentRepo := repository.NewLeadAssignmentRepository(db)
	eventRepo := repository.NewLeadEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	sequences := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)

	store, err := storage.NewLocalStorage(t.TempDir(), 1<<20)
	require.NoError(t, err)

	vendorSvc := service.NewVendorService(db, vendorRepo, applicationRepo, documentRepo, auditRepo, sequences, tokens, notifier, nil, logger, authCfg.MinPasswordLength)
	leadSvc := service.NewLeadService(db, leadRepo, assignmentRepo, eventRepo, vendorRepo, auditRepo, sequences, notifier, nil, logger)
	userSvc := service.NewUserService(db, userRepo, auditRepo, notifier, logger)
	authSvc := service.NewAuthService(db, userRepo, resetRepo, tokens, notifier, nil, logger, 30*time.Minute, authCfg.MinPasswordLength)
	documentSvc := service.NewDocumentService(documentRepo, vendorRepo, auditRepo, store, logger)
	auditSvc := service.NewAuditLogService(auditRepo, logger)

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "test"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, logger),
		Vendor:       handler.NewVendorHandler(vendorSvc, logger),
		VendorPortal: handler.NewVendorPortalHandler(leadSvc, documentSvc, 1, logger),
		Lead:         handler.NewLeadHandler(leadSvc, logger),
		User:         handler.NewUserHandler(userSvc, logger),
		Document:     handler.NewDocumentHandler(documentSvc, logger),
		Audit:        handler.NewAuditHandler(auditSvc, logger),
	}

	rt := router.NewRouter(
		cfg,
		logger,
		db,
		nil,
		nil,
		nil,
		auth.NewMiddleware(tokens, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handlers,
	)

	return &testServer{t: t, db: db, handler: rt.Setup(), notifier: notifier}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(path, email string) string {
	s.t.Helper()
	rr := s.do(http.MethodPost, path, "", domain.LoginRequest{Email: email, Password: testutil.TestPassword})
	require.Equal(s.t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func (s *testServer) userToken(role domain.Role) string {
	return s.login("/api/v1/auth/login", testutil.CreateUser(s.t, s.db, role).Email)
}

func (s *testServer) vendorToken(v *domain.Vendor) string {
	return s.login("/api/v1/vendors/login", v.Email)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), rr.Body.String())
	return out
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	body := decode[domain.APIError](t, rr)
	assert.NotEmpty(t, body.Message)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = s.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "healthy", body["status"])
}

func TestVendorRegistrationAndLogin(t *testing.T) {
	s := newTestServer(t)

	req := testutil.RegisterVendorRequest()
	rr := s.do(http.MethodPost, "/api/v1/vendors/register", "", req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[domain.VendorWithApplicationDTO](t, rr)
	assert.Equal(t, domain.VendorStatusPending, created.Vendor.Status)
	require.NotNil(t, created.Application)
	assert.Equal(t, domain.ApplicationStatusSubmitted, created.Application.Status)
	assert.Len(t, s.notifier.OfKind("vendor_registered"), 1)

	rr = s.do(http.MethodPost, "/api/v1/vendors/register", "", req)
	assertError(t, rr, http.StatusConflict)

	rr = s.do(http.MethodPost, "/api/v1/vendors/login", "", domain.LoginRequest{Email: req.Email, Password: req.Password})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodPost, "/api/v1/vendors/login", "", domain.LoginRequest{Email: req.Email, Password: "wrong-password"})
	assertError(t, rr, http.StatusUnauthorized)
}

func TestRegistration_ValidationError(t *testing.T) {
	s := newTestServer(t)

	req := testutil.RegisterVendorRequest()
	req.GSTNumber = "not-a-gstin"
	rr := s.do(http.MethodPost, "/api/v1/vendors/register", "", req)
	assertError(t, rr, http.StatusBadRequest)
	assert.Zero(t, testutil.Count(t, s.db, &domain.Vendor{}, "1 = 1"))
}

func TestSetVendorStatus(t *testing.T) {
	s := newTestServer(t)
	admin := s.userToken(domain.RoleAdmin)
	vendor := testutil.CreateVendor(t, s.db, domain.VendorStatusPending)
	path := fmt.Sprintf("/api/v1/admin/vendors/%d/status", vendor.ID)

	t.Run("approve", func(t *testing.T) {
		notes := "documents verified"
		rr := s.do(http.MethodPatch, path, admin, domain.UpdateVendorStatusRequest{Status: domain.VendorStatusApproved, Notes: &notes})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		result := decode[domain.VendorWithApplicationDTO](t, rr)
		assert.Equal(t, domain.VendorStatusApproved, result.Vendor.Status)
		require.NotNil(t, result.Application)
		assert.Equal(t, domain.ApplicationStatusApproved, result.Application.Status)
		assert.NotNil(t, result.Application.ApprovalDate)
		assert.Len(t, s.notifier.OfKind("vendor_status"), 1)
	})

	t.Run("invalid status", func(t *testing.T) {
		rr := s.do(http.MethodPatch, path, admin, map[string]string{"status": "suspended"})
		assertError(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		rr := s.do(http.MethodPatch, "/api/v1/admin/vendors/9999/status", admin, domain.UpdateVendorStatusRequest{Status: domain.VendorStatusRejected})
		assertError(t, rr, http.StatusNotFound)
	})

	t.Run("staff cannot decide", func(t *testing.T) {
		rr := s.do(http.MethodPatch, path, s.userToken(domain.RoleStaff), domain.UpdateVendorStatusRequest{Status: domain.VendorStatusRejected})
		assertError(t, rr, http.StatusForbidden)
	})

	t.Run("vendor cannot reach admin routes", func(t *testing.T) {
		rr := s.do(http.MethodPatch, path, s.vendorToken(vendor), domain.UpdateVendorStatusRequest{Status: domain.VendorStatusApproved})
		assertError(t, rr, http.StatusForbidden)
	})

	t.Run("no token", func(t *testing.T) {
		rr := s.do(http.MethodPatch, path, "", domain.UpdateVendorStatusRequest{Status: domain.VendorStatusApproved})
		assertError(t, rr, http.StatusUnauthorized)
	})
}

func TestLeadLifecycle(t *testing.T) {
	s := newTestServer(t)
	staff := s.userToken(domain.RoleStaff)
	first := testutil.CreateVendor(t, s.db, domain.VendorStatusApproved)
	second := testutil.CreateVendor(t, s.db, domain.VendorStatusApproved)

	rr := s.do(http.MethodPost, "/api/v1/admin/leads", staff, domain.CreateLeadRequest{
		CustomerName:  "Asha Verma",
		CustomerPhone: "9876543210",
		Location:      "Pune",
		VendorID:      &first.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.LeadWithAssignmentDTO](t, rr)
	assert.Equal(t, domain.LeadStatusAssigned, created.Lead.Status)
	require.NotNil(t, created.Assignment)
	leadID := created.Lead.ID

	// First vendor accepts
	firstToken := s.vendorToken(first)
	rr = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/vendor/assignments/%d", created.Assignment.ID), firstToken,
		domain.UpdateAssignmentStatusRequest{Status: domain.AssignmentStatusAccepted})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Another vendor cannot see that assignment
	secondToken := s.vendorToken(second)
	rr = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/vendor/assignments/%d", created.Assignment.ID), secondToken,
		domain.UpdateAssignmentStatusRequest{Status: domain.AssignmentStatusCompleted})
	assertError(t, rr, http.StatusNotFound)

	// Reassign to the second vendor
	rr = s.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/leads/%d/reassign", leadID), staff,
		domain.ReassignLeadRequest{VendorID: second.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	reassigned := decode[domain.LeadWithAssignmentDTO](t, rr)
	require.NotNil(t, reassigned.Assignment)
	assert.Equal(t, second.ID, reassigned.Assignment.VendorID)

	// The superseded assignment is closed for the first vendor
	rr = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/vendor/assignments/%d", created.Assignment.ID), firstToken,
		domain.UpdateAssignmentStatusRequest{Status: domain.AssignmentStatusInProgress})
	assertError(t, rr, http.StatusConflict)

	// Second vendor sees the lead and completes it
	rr = s.do(http.MethodGet, "/api/v1/vendor/leads", secondToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	leads := decode[[]domain.VendorLeadDTO](t, rr)
	require.Len(t, leads, 1)
	assert.Equal(t, leadID, leads[0].ID)

	rr = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/vendor/assignments/%d", reassigned.Assignment.ID), secondToken,
		domain.UpdateAssignmentStatusRequest{Status: domain.AssignmentStatusCompleted})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Timeline is newest first
	rr = s.do(http.MethodGet, fmt.Sprintf("/api/v1/admin/leads/%d/events", leadID), staff, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]domain.LeadEventDTO](t, rr)
	require.Len(t, events, 4)
	assert.Equal(t, domain.EventTypeStatusChange, events[0].EventType)
	assert.Equal(t, domain.EventTypeReassigned, events[1].EventType)
	assert.Equal(t, domain.EventTypeStatusChange, events[2].EventType)
	assert.Equal(t, domain.EventTypeAssigned, events[3].EventType)

	var lead domain.Lead
	require.NoError(t, s.db.First(&lead, leadID).Error)
	assert.Equal(t, domain.LeadStatusCompleted, lead.Status)
}

func TestCreateLead_Errors(t *testing.T) {
	s := newTestServer(t)
	admin := s.userToken(domain.RoleAdmin)

	t.Run("unknown vendor", func(t *testing.T) {
		missing := uint(4242)
		rr := s.do(http.MethodPost, "/api/v1/admin/leads", admin, domain.CreateLeadRequest{CustomerName: "Ravi", VendorID: &missing})
		assertError(t, rr, http.StatusUnprocessableEntity)
		assert.Zero(t, testutil.Count(t, s.db, &domain.Lead{}, "1 = 1"))
	})

	t.Run("missing customer name", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/api/v1/admin/leads", admin, domain.CreateLeadRequest{Location: "Delhi"})
		assertError(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown lead events", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/api/v1/admin/leads/777/events", admin, nil)
		assertError(t, rr, http.StatusNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/api/v1/admin/leads/abc/events", admin, nil)
		assertError(t, rr, http.StatusBadRequest)
	})
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	staff := s.userToken(domain.RoleStaff)
	admin := s.userToken(domain.RoleAdmin)

	for _, path := range []string{"/api/v1/admin/users", "/api/v1/admin/audit-logs"} {
		assertError(t, s.do(http.MethodGet, path, staff, nil), http.StatusForbidden)
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, admin, nil).Code, path)
	}

	rr := s.do(http.MethodPost, "/api/v1/admin/users", admin, domain.CreateUserRequest{Email: "new.staff@example.com", Name: "New Staff", Role: domain.RoleStaff})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.CreatedUserDTO](t, rr)
	assert.NotEmpty(t, created.TemporaryPassword)

	rr = s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: "new.staff@example.com", Password: created.TemporaryPassword})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	vendor := testutil.CreateVendor(t, s.db, domain.VendorStatusApproved)

	rr := s.do(http.MethodGet, "/api/v1/auth/me", s.vendorToken(vendor), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[domain.PrincipalDTO](t, rr)
	assert.Equal(t, vendor.ID, me.ID)
	assert.Equal(t, domain.RoleVendor, me.Role)

	assertError(t, s.do(http.MethodGet, "/api/v1/auth/me", "garbage", nil), http.StatusUnauthorized)
}
