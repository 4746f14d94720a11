package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/mapper"
	"github.com/straye-as/vendor-portal-api/internal/notify"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 12

// UserService manages internal admin and staff accounts
type UserService struct {
	db        *gorm.DB
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		db:        db,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create adds an admin or staff user with a generated temporary password.
// The password is returned once and emailed to the new user.
func (s *UserService) Create(ctx context.Context, p *auth.Principal, req *domain.CreateUserRequest) (*domain.CreatedUserDTO, error) {
	if err := requireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.Role.IsUserRole() {
		return nil, fmt.Errorf("%w: role must be admin or staff", ErrInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translateStoreError(err, "check user email")
	}

	password, err := auth.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         req.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(translateStoreError(err, "create user"), ErrConflict) {
				return ErrEmailTaken
			}
			return translateStoreError(err, "create user")
		}
		entry := newAuditLog(p, domain.AuditActionUserCreated, nil, nil, map[string]interface{}{
			"userId": user.ID,
			"email":  user.Email,
			"role":   user.Role,
		})
		return translateStoreError(s.auditRepo.WithTx(tx).Create(ctx, entry), "write audit log")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Uint("created_by", p.ID))

	s.notifier.NotifyUserCreated(ctx, user, password)

	return &domain.CreatedUserDTO{
		User:              mapper.ToUserDTO(user),
		TemporaryPassword: password,
	}, nil
}

// List returns users, optionally filtered by role. Admin only.
func (s *UserService) List(ctx context.Context, p *auth.Principal, role *domain.Role) ([]domain.UserDTO, error) {
	if err := requireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if role != nil && !role.IsUserRole() {
		return nil, fmt.Errorf("%w: role must be admin or staff", ErrInvalidInput)
	}

	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, translateStoreError(err, "list users")
	}
	return mapper.ToUserDTOs(users), nil
}
