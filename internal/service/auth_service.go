package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/mapper"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	"github.com/straye-as/vendor-portal-api/internal/notify"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles admin/staff sessions and password resets
type AuthService struct {
	db                *gorm.DB
	userRepo          *repository.UserRepository
	resetRepo         *repository.PasswordResetRepository
	tokens            *auth.TokenManager
	notifier          notify.Notifier
	metrics           *metrics.Metrics
	logger            *zap.Logger
	resetTTL          time.Duration
	minPasswordLength int
	now               func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	resetRepo *repository.PasswordResetRepository,
	tokens *auth.TokenManager,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	resetTTL time.Duration,
	minPasswordLength int,
) *AuthService {
	return &AuthService{
		db:                db,
		userRepo:          userRepo,
		resetRepo:         resetRepo,
		tokens:            tokens,
		notifier:          notifier,
		metrics:           m,
		logger:            logger,
		resetTTL:          resetTTL,
		minPasswordLength: minPasswordLength,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates an admin or staff user
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserLoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveLogin("user", false)
			return nil, ErrInvalidCredentials
		}
		return nil, translateStoreError(err, "load user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.metrics.ObserveLogin("user", false)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(&auth.Principal{
		ID:    user.ID,
		Role:  user.Role,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin("user", true)
	return &domain.UserLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      mapper.ToUserDTO(user),
	}, nil
}

// Me returns the authenticated principal
func (s *AuthService) Me(_ context.Context, p *auth.Principal) (*domain.PrincipalDTO, error) {
	if p == nil {
		return nil, ErrUnauthorized
	}
	return &domain.PrincipalDTO{
		ID:    p.ID,
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
	}, nil
}

// ForgotPassword issues a single-use reset token and emails it. The outcome is the same
// whether or not the account exists, so callers cannot probe for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("failed to load user for password reset", zap.Error(err))
		}
		return
	}
	if req.ForRole != "" && user.Role != req.ForRole {
		return
	}

	token, err := auth.RandomToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", zap.Error(err))
		return
	}

	now := s.now()
	reset := &domain.PasswordReset{
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resets := s.resetRepo.WithTx(tx)
		if err := resets.InvalidateForUser(ctx, user.ID, now); err != nil {
			return err
		}
		return resets.Create(ctx, reset)
	})
	if err != nil {
		s.logger.Error("failed to store password reset", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	s.logger.Info("password reset requested", zap.Uint("user_id", user.ID))
	s.notifier.NotifyPasswordReset(ctx, user, token, reset.ExpiresAt)
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	if len(req.NewPassword) < s.minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.minPasswordLength)
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	now := s.now()
	var userID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resets := s.resetRepo.WithTx(tx)

		reset, err := resets.GetUsableByTokenHash(ctx, auth.HashToken(token), now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return translateStoreError(err, "load password reset")
		}
		if err := resets.MarkUsed(ctx, reset.ID, now); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return translateStoreError(err, "consume password reset")
		}
		userID = reset.UserID
		return translateStoreError(s.userRepo.WithTx(tx).UpdatePassword(ctx, reset.UserID, hash), "update password")
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Uint("user_id", userID))
	return nil
}

// PurgePasswordResets deletes resets that expired or were consumed before now
func (s *AuthService) PurgePasswordResets(ctx context.Context) (int64, error) {
	deleted, err := s.resetRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, translateStoreError(err, "purge password resets")
	}
	return deleted, nil
}
