package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// Common service errors. Handlers map these to HTTP status codes with errors.Is,
// so specific errors wrap one of them.
var (
	// ErrUnauthorized is returned when there is no authenticated principal
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the principal's role may not perform the operation
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidReference is returned when a referenced row does not exist
	ErrInvalidReference = errors.New("invalid reference")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrVendorNotApproved  = fmt.Errorf("%w: vendor is not approved", ErrInvalidInput)
	ErrInvalidResetToken  = fmt.Errorf("%w: reset token is invalid or expired", ErrInvalidInput)
)

// requireRole checks the principal before any store access
func requireRole(p *auth.Principal, roles ...domain.Role) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !p.HasAnyRole(roles...) {
		return fmt.Errorf("%w: role %s may not perform this action", ErrForbidden, p.Role)
	}
	return nil
}

// isServiceError reports whether err already carries one of the service sentinels
func isServiceError(err error) bool {
	for _, target := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrInvalidInput, ErrInvalidReference, ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// translateStoreError maps gorm and driver errors onto the service sentinels.
// Anything unrecognised is wrapped as an internal failure.
func translateStoreError(err error, action string) error {
	if err == nil {
		return nil
	}
	if isServiceError(err) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, action)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s", ErrInvalidReference, action)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrConflict, action)
	}

	// Drivers without error translation
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key"):
		return fmt.Errorf("%w: %s", ErrInvalidReference, action)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %s", ErrConflict, action)
	}

	return fmt.Errorf("failed to %s: %w", action, err)
}
