package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"github.com/straye-as/vendor-portal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createAuthService(db *gorm.DB, notifier *testutil.RecordingNotifier) *service.AuthService {
	cfg := testutil.AuthConfig()
	return service.NewAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewPasswordResetRepository(db),
		auth.NewTokenManager(cfg),
		notifier,
		nil,
		zap.NewNop(),
		30*time.Minute,
		cfg.MinPasswordLength,
	)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := createAuthService(db, &testutil.RecordingNotifier{})
	admin := testutil.CreateUser(t, db, domain.RoleAdmin)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: admin.Email, Password: testutil.TestPassword})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, domain.RoleAdmin, resp.User.Role)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: admin.Email, Password: "wrong-password"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("vendor accounts cannot use the user login", func(t *testing.T) {
		vendor := testutil.CreateVendor(t, db, domain.VendorStatusApproved)
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: vendor.Email, Password: testutil.TestPassword})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestAuthService_Me(t *testing.T) {
	svc := createAuthService(testutil.SetupTestDB(t), &testutil.RecordingNotifier{})

	_, err := svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	me, err := svc.Me(context.Background(), &auth.Principal{ID: 7, Role: domain.RoleVendor, Email: "v@example.com"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), me.ID)
	assert.Equal(t, domain.RoleVendor, me.Role)
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("token resets the password once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createAuthService(db, notifier)
		user := testutil.CreateUser(t, db, domain.RoleStaff)

		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email})
		sent := notifier.OfKind("password_reset")
		require.Len(t, sent, 1)
		token := sent[0].Token
		require.NotEmpty(t, token)

		var reset domain.PasswordReset
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&reset).Error)
		assert.NotEqual(t, token, reset.TokenHash)
		assert.Equal(t, auth.HashToken(token), reset.TokenHash)

		require.NoError(t, svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: token, NewPassword: "brand-new-pass"}))

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: user.Email, Password: "brand-new-pass"})
		require.NoError(t, err)

		err = svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: token, NewPassword: "another-pass"})
		assert.ErrorIs(t, err, service.ErrInvalidResetToken)
	})

	t.Run("unknown email is silent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createAuthService(db, notifier)

		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: "nobody@example.com"})
		assert.Empty(t, notifier.Calls())
		assert.Equal(t, int64(0), testutil.Count(t, db, &domain.PasswordReset{}, ""))
	})

	t.Run("role mismatch is silent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createAuthService(db, notifier)
		staff := testutil.CreateUser(t, db, domain.RoleStaff)

		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: staff.Email, ForRole: domain.RoleAdmin})
		assert.Empty(t, notifier.Calls())
	})

	t.Run("a new request invalidates the previous token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createAuthService(db, notifier)
		user := testutil.CreateUser(t, db, domain.RoleAdmin)

		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email})
		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email})
		sent := notifier.OfKind("password_reset")
		require.Len(t, sent, 2)

		err := svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: sent[0].Token, NewPassword: "brand-new-pass"})
		assert.ErrorIs(t, err, service.ErrInvalidResetToken)
		require.NoError(t, svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: sent[1].Token, NewPassword: "brand-new-pass"}))
	})

	t.Run("short password is rejected before the token is consumed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := &testutil.RecordingNotifier{}
		svc := createAuthService(db, notifier)
		user := testutil.CreateUser(t, db, domain.RoleAdmin)

		svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email})
		token := notifier.OfKind("password_reset")[0].Token

		err := svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: token, NewPassword: "abc"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		require.NoError(t, svc.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: token, NewPassword: "long-enough"}))
	})

	t.Run("purge removes expired tokens", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := createAuthService(db, &testutil.RecordingNotifier{})
		user := testutil.CreateUser(t, db, domain.RoleAdmin)

		past := time.Now().UTC().Add(-time.Hour)
		require.NoError(t, db.Create(&domain.PasswordReset{
			UserID:    user.ID,
			TokenHash: auth.HashToken("expired"),
			ExpiresAt: past,
			CreatedAt: past.Add(-time.Hour),
		}).Error)

		deleted, err := svc.PurgePasswordResets(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}
