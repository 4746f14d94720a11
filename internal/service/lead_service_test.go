package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"github.com/straye-as/vendor-portal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createLeadService(db *gorm.DB, notifier *testutil.RecordingNotifier) *service.LeadService {
	logger := zap.NewNop()
	return service.NewLeadService(
		db,
		repository.NewLeadRepository(db),
		repository.NewLeadAssignmentRepository(db),
		repository.NewLeadEventRepository(db),
		repository.NewVendorRepository(db),
		repository.NewAuditLogRepository(db),
		service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger),
		notifier,
		nil,
		logger,
	)
}

func uintPtr(v uint) *uint { return &v }

func loadLead(t *testing.T, db *gorm.DB, id uint) *domain.Lead {
	t.Helper()
	var lead domain.Lead
	require.NoError(t, db.First(&lead, id).Error)
	return &lead
}

func loadAssignments(t *testing.T, db *gorm.DB, leadID uint) []domain.LeadAssignment {
	t.Helper()
	rows, err := repository.NewLeadAssignmentRepository(db).ListByLeadID(context.Background(), leadID)
	require.NoError(t, err)
	return rows
}

func activeAssignments(t *testing.T, db *gorm.DB, leadID uint) int64 {
	t.Helper()
	n, err := repository.NewLeadAssignmentRepository(db).CountActiveByLeadID(context.Background(), leadID)
	require.NoError(t, err)
	return n
}

func eventCount(t *testing.T, db *gorm.DB, leadID uint) int64 {
	t.Helper()
	n, err := repository.NewLeadEventRepository(db).CountByLeadID(context.Background(), leadID)
	require.NoError(t, err)
	return n
}

func TestLeadService_CreateLead(t *testing.T) {
	ctx := context.Background()

	t.Run("without vendor the lead starts new with a created event", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		staff := testutil.CreateUser(t, db, domain.RoleStaff)

		result, err := svc.CreateLead(ctx, testutil.UserPrincipal(staff), &domain.CreateLeadRequest{
			CustomerName:  "  Asha Rao ",
			CustomerPhone: "98765 43210",
			Location:      "Pune",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.LeadStatusNew, result.Lead.Status)
		assert.Equal(t, "Asha Rao", result.Lead.CustomerName)
		assert.Equal(t, "+919876543210", result.Lead.CustomerPhone)
		assert.Regexp(t, `^LEAD-\d{4}-000001$`, result.Lead.LeadNumber)
		assert.Nil(t, result.Assignment)
		require.NotNil(t, result.Lead.CreatedByUserID)
		assert.Equal(t, staff.ID, *result.Lead.CreatedByUserID)

		var events []domain.LeadEvent
		require.NoError(t, db.Where("lead_id = ?", result.Lead.ID).Find(&events).Error)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeCreated, events[0].EventType)
		assert.Equal(t, domain.ActorStaff, events[0].ActorType)
		require.NotNil(t, events[0].ActorID)
		assert.Equal(t, staff.ID, *events[0].ActorID)

		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.LeadAssignment{}, ""))
		assert.Empty(t, notifier.OfKind("lead_assigned"))
	})

	t.Run("with vendor the lead starts assigned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		admin := testutil.CreateUser(t, db, domain.RoleAdmin)
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		result, err := svc.CreateLead(ctx, testutil.UserPrincipal(admin), &domain.CreateLeadRequest{
			CustomerName: "Ravi Kumar",
			VendorID:     uintPtr(vendor.ID),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.LeadStatusAssigned, result.Lead.Status)
		require.NotNil(t, result.Assignment)
		assert.Equal(t, vendor.ID, result.Assignment.VendorID)
		assert.Equal(t, domain.AssignmentStatusAssigned, result.Assignment.Status)
		require.NotNil(t, result.Assignment.AssignedByUserID)
		assert.Equal(t, admin.ID, *result.Assignment.AssignedByUserID)

		assert.Equal(t, int64(1), activeAssignments(t, db, result.Lead.ID))
		assert.Equal(t, int64(1), testutil.Count(t, db, &domain.LeadEvent{},
			"lead_id = ? AND event_type = ? AND actor_type = ?", result.Lead.ID, domain.EventTypeAssigned, domain.ActorAdmin))

		sent := notifier.OfKind("lead_assigned")
		require.Len(t, sent, 1)
		assert.Equal(t, vendor.ID, sent[0].VendorID)
		assert.Equal(t, result.Lead.ID, sent[0].LeadID)
	})

	t.Run("lead numbers are unique and sequential", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleStaff))

		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			result, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "Customer"})
			require.NoError(t, err)
			assert.False(t, seen[result.Lead.LeadNumber], "duplicate lead number %s", result.Lead.LeadNumber)
			seen[result.Lead.LeadNumber] = true
		}
		assert.Len(t, seen, 5)
	})

	t.Run("blank customer name is invalid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleStaff))

		_, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "   "})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Lead{}, ""))
	})

	t.Run("unknown vendor rolls back the lead", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))

		_, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{
			CustomerName: "Meera",
			VendorID:     uintPtr(777),
		})
		assert.ErrorIs(t, err, service.ErrInvalidReference)

		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Lead{}, ""))
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.LeadEvent{}, ""))
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.LeadAssignment{}, ""))
		assert.Empty(t, notifier.Calls())

		seq := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
		current, err := seq.CurrentSequence(ctx, service.LeadNumberPrefix, time.Now().UTC().Year())
		require.NoError(t, err)
		assert.Equal(t, 0, current)
	})

	t.Run("vendor that is not approved cannot receive leads", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusPending)

		_, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{
			CustomerName: "Meera",
			VendorID:     uintPtr(vendor.ID),
		})
		assert.ErrorIs(t, err, service.ErrVendorNotApproved)
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Lead{}, ""))
	})

	t.Run("vendors cannot create leads", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		_, err := svc.CreateLead(ctx, testutil.VendorPrincipal(vendor), &domain.CreateLeadRequest{CustomerName: "X"})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("event write failure leaves nothing behind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		fail := testutil.InjectFailure(t, db, "lead_events")
		fail.Arm()

		_, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{
			CustomerName: "Meera",
			VendorID:     uintPtr(vendor.ID),
		})
		require.Error(t, err)

		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Lead{}, ""))
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.LeadAssignment{}, ""))
		assert.Empty(t, notifier.Calls())
	})
}

func TestLeadService_ReassignLead(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels the previous assignment and leaves one active", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		first := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		second := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		created, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{
			CustomerName: "Kiran",
			VendorID:     uintPtr(first.ID),
		})
		require.NoError(t, err)

		result, err := svc.ReassignLead(ctx, p, created.Lead.ID, second.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusAssigned, result.Lead.Status)
		require.NotNil(t, result.Assignment)
		assert.Equal(t, second.ID, result.Assignment.VendorID)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.AssignmentStatusCancelled, rows[0].Status)
		assert.Equal(t, first.ID, rows[0].VendorID)
		assert.Equal(t, domain.AssignmentStatusAssigned, rows[1].Status)
		assert.Equal(t, second.ID, rows[1].VendorID)
		assert.Equal(t, int64(1), activeAssignments(t, db, created.Lead.ID))

		assert.Equal(t, int64(1), testutil.Count(t, db, &domain.LeadEvent{},
			"lead_id = ? AND event_type = ?", created.Lead.ID, domain.EventTypeReassigned))
		assert.Len(t, notifier.OfKind("lead_assigned"), 2)
	})

	t.Run("assigns a lead that had no vendor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleStaff))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		lead := testutil.CreateLead(t, db)

		_, err := svc.ReassignLead(ctx, p, lead.ID, vendor.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.LeadStatusAssigned, loadLead(t, db, lead.ID).Status)
		assert.Equal(t, int64(1), activeAssignments(t, db, lead.ID))
	})

	t.Run("completed assignments are kept as history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		first := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		second := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		created, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "Kiran", VendorID: uintPtr(first.ID)})
		require.NoError(t, err)
		_, err = svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(first), created.Assignment.ID, domain.AssignmentStatusCompleted)
		require.NoError(t, err)

		_, err = svc.ReassignLead(ctx, p, created.Lead.ID, second.ID)
		require.NoError(t, err)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.AssignmentStatusCompleted, rows[0].Status)
	})

	t.Run("unknown lead is not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		_, err := svc.ReassignLead(ctx, p, 31337, vendor.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.LeadAssignment{}, ""))
	})

	t.Run("unknown vendor keeps the current assignment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		created, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "Kiran", VendorID: uintPtr(vendor.ID)})
		require.NoError(t, err)

		_, err = svc.ReassignLead(ctx, p, created.Lead.ID, 8080)
		assert.ErrorIs(t, err, service.ErrInvalidReference)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.AssignmentStatusAssigned, rows[0].Status)
	})

	t.Run("event failure restores the cancelled assignment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createLeadService(db, notifier)
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		first := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		second := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		created, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "Kiran", VendorID: uintPtr(first.ID)})
		require.NoError(t, err)
		_, err = svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(first), created.Assignment.ID, domain.AssignmentStatusInProgress)
		require.NoError(t, err)

		fail := testutil.InjectFailure(t, db, "lead_events")
		fail.Arm()

		_, err = svc.ReassignLead(ctx, p, created.Lead.ID, second.ID)
		require.Error(t, err)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.AssignmentStatusInProgress, rows[0].Status)
		assert.Equal(t, domain.LeadStatusInProgress, loadLead(t, db, created.Lead.ID).Status)
		assert.Len(t, notifier.OfKind("lead_assigned"), 1)
	})
}

func TestLeadService_UpdateAssignmentStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*gorm.DB, *service.LeadService, *domain.Vendor, *domain.LeadWithAssignmentDTO) {
		db := testutil.SetupTestDB(t)
		svc := createLeadService(db, &testutil.RecordingNotifier{})
		p := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		created, err := svc.CreateLead(ctx, p, &domain.CreateLeadRequest{CustomerName: "Divya", VendorID: uintPtr(vendor.ID)})
		require.NoError(t, err)
		return db, svc, vendor, created
	}

	t.Run("lead status follows the assignment", func(t *testing.T) {
		cases := []struct {
			status domain.AssignmentStatus
			lead   domain.LeadStatus
		}{
			{domain.AssignmentStatusAccepted, domain.LeadStatusAssigned},
			{domain.AssignmentStatusInProgress, domain.LeadStatusInProgress},
			{domain.AssignmentStatusCompleted, domain.LeadStatusCompleted},
		}

		db, svc, vendor, created := setup(t)
		for _, tc := range cases {
			got, err := svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, tc.status)
			require.NoError(t, err, tc.status)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.lead, loadLead(t, db, created.Lead.ID).Status, tc.status)
		}

		var events []domain.LeadEvent
		require.NoError(t, db.Where("lead_id = ? AND event_type = ?", created.Lead.ID, domain.EventTypeStatusChange).
			Order("id ASC").Find(&events).Error)
		require.Len(t, events, 3)
		assert.Equal(t, domain.ActorVendor, events[0].ActorType)
		require.NotNil(t, events[0].ActorID)
		assert.Equal(t, vendor.ID, *events[0].ActorID)
		assert.Equal(t, "Status changed from assigned to accepted", events[0].Message)
		assert.Equal(t, "Status changed from in_progress to completed", events[2].Message)
	})

	t.Run("vendor cancel cancels the lead", func(t *testing.T) {
		db, svc, vendor, created := setup(t)

		_, err := svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, domain.AssignmentStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusCancelled, loadLead(t, db, created.Lead.ID).Status)
	})

	t.Run("another vendor's assignment is not found", func(t *testing.T) {
		db, svc, _, created := setup(t)
		other := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		_, err := svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(other), created.Assignment.ID, domain.AssignmentStatusAccepted)
		assert.ErrorIs(t, err, service.ErrNotFound)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.AssignmentStatusAssigned, rows[0].Status)
	})

	t.Run("status outside the vendor set is invalid", func(t *testing.T) {
		_, svc, vendor, created := setup(t)

		_, err := svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, domain.AssignmentStatusAssigned)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, domain.AssignmentStatus("done"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("superseded assignment is closed", func(t *testing.T) {
		db, svc, vendor, created := setup(t)
		admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
		next := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

		_, err := svc.ReassignLead(ctx, admin, created.Lead.ID, next.ID)
		require.NoError(t, err)

		_, err = svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, domain.AssignmentStatusInProgress)
		assert.ErrorIs(t, err, service.ErrAssignmentClosed)
		assert.Equal(t, domain.LeadStatusAssigned, loadLead(t, db, created.Lead.ID).Status)
	})

	t.Run("admins cannot act as vendors", func(t *testing.T) {
		db, svc, _, created := setup(t)
		admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))

		_, err := svc.UpdateAssignmentStatus(ctx, admin, created.Assignment.ID, domain.AssignmentStatusAccepted)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("event failure rolls back the assignment and lead", func(t *testing.T) {
		db, svc, vendor, created := setup(t)
		fail := testutil.InjectFailure(t, db, "lead_events")
		fail.Arm()

		_, err := svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(vendor), created.Assignment.ID, domain.AssignmentStatusCompleted)
		require.Error(t, err)

		rows := loadAssignments(t, db, created.Lead.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.AssignmentStatusAssigned, rows[0].Status)
		assert.Equal(t, domain.LeadStatusAssigned, loadLead(t, db, created.Lead.ID).Status)
	})
}

func TestLeadService_ListEvents(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db, &testutil.RecordingNotifier{})
	admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
	first := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
	second := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

	created, err := svc.CreateLead(ctx, admin, &domain.CreateLeadRequest{CustomerName: "Nisha", VendorID: uintPtr(first.ID)})
	require.NoError(t, err)
	_, err = svc.UpdateAssignmentStatus(ctx, testutil.VendorPrincipal(first), created.Assignment.ID, domain.AssignmentStatusAccepted)
	require.NoError(t, err)
	_, err = svc.ReassignLead(ctx, admin, created.Lead.ID, second.ID)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		events, err := svc.ListEvents(ctx, admin, created.Lead.ID)
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, domain.EventTypeReassigned, events[0].EventType)
		assert.Equal(t, domain.EventTypeStatusChange, events[1].EventType)
		assert.Equal(t, domain.EventTypeAssigned, events[2].EventType)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i].CreatedAt.After(events[i-1].CreatedAt))
		}
		assert.Equal(t, int64(3), eventCount(t, db, created.Lead.ID))
	})

	t.Run("repeated reads without writes are identical", func(t *testing.T) {
		before, err := svc.ListEvents(ctx, admin, created.Lead.ID)
		require.NoError(t, err)
		again, err := svc.ListEvents(ctx, admin, created.Lead.ID)
		require.NoError(t, err)
		assert.Equal(t, before, again)
	})

	t.Run("unknown lead", func(t *testing.T) {
		_, err := svc.ListEvents(ctx, admin, 5150)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestLeadService_Lists(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db, &testutil.RecordingNotifier{})
	admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
	vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

	assigned, err := svc.CreateLead(ctx, admin, &domain.CreateLeadRequest{CustomerName: "Assigned Customer", VendorID: uintPtr(vendor.ID)})
	require.NoError(t, err)
	_, err = svc.CreateLead(ctx, admin, &domain.CreateLeadRequest{CustomerName: "Open Customer"})
	require.NoError(t, err)

	t.Run("admin list carries the active vendor", func(t *testing.T) {
		status := domain.LeadStatusAssigned
		page, err := svc.ListLeads(ctx, admin, &repository.LeadFilter{Status: &status}, repository.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		rows, ok := page.Data.([]domain.AdminLeadDTO)
		require.True(t, ok)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].VendorID)
		assert.Equal(t, vendor.ID, *rows[0].VendorID)
		assert.Equal(t, vendor.CompanyName, rows[0].VendorCompanyName)
	})

	t.Run("get lead", func(t *testing.T) {
		got, err := svc.GetLead(ctx, admin, assigned.Lead.ID)
		require.NoError(t, err)
		assert.Equal(t, assigned.Lead.LeadNumber, got.LeadNumber)
		require.NotNil(t, got.AssignmentID)
		assert.Equal(t, assigned.Assignment.ID, *got.AssignmentID)
	})

	t.Run("vendor sees only its own leads", func(t *testing.T) {
		leads, err := svc.ListVendorLeads(ctx, testutil.VendorPrincipal(vendor))
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, assigned.Lead.ID, leads[0].ID)
		assert.Equal(t, domain.AssignmentStatusAssigned, leads[0].AssignmentStatus)

		other := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		leads, err = svc.ListVendorLeads(ctx, testutil.VendorPrincipal(other))
		require.NoError(t, err)
		assert.Empty(t, leads)
	})
}

func TestLeadService_RemindStaleAssignments(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	svc := createLeadService(db, notifier)
	admin := testutil.UserPrincipal(testutil.CreateUser(t, db, domain.RoleAdmin))
	vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)

	stale, err := svc.CreateLead(ctx, admin, &domain.CreateLeadRequest{CustomerName: "Stale", VendorID: uintPtr(vendor.ID)})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.LeadAssignment{}).
		Where("id = ?", stale.Assignment.ID).
		Update("assigned_at", time.Now().UTC().Add(-72*time.Hour)).Error)

	_, err = svc.CreateLead(ctx, admin, &domain.CreateLeadRequest{CustomerName: "Fresh", VendorID: uintPtr(vendor.ID)})
	require.NoError(t, err)

	sent, err := svc.RemindStaleAssignments(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	reminders := notifier.OfKind("assignment_reminder")
	require.Len(t, reminders, 1)
	assert.Equal(t, stale.Lead.ID, reminders[0].LeadID)

	// Reminders never change state
	assert.Equal(t, int64(2), testutil.Count(t, db, &domain.LeadAssignment{}, "status = ?", domain.AssignmentStatusAssigned))
}
