package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the session token payload
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	Name  string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 session tokens
type TokenManager struct {
	secret    []byte
	issuer    string
	userTTL   time.Duration
	vendorTTL time.Duration
	now       func() time.Time
}

// NewTokenManager creates a token manager from auth configuration
func NewTokenManager(cfg *config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		userTTL:   cfg.UserTokenTTLDuration(),
		vendorTTL: cfg.VendorTokenTTLDuration(),
		now:       time.Now,
	}
}

// TTLFor returns the session lifetime for a role
func (m *TokenManager) TTLFor(role domain.Role) time.Duration {
	if role == domain.RoleVendor {
		return m.vendorTTL
	}
	return m.userTTL
}

// Issue signs a token for the principal and returns it with its expiry
func (m *TokenManager) Issue(p *Principal) (string, time.Time, error) {
	if p == nil || !p.Role.IsValid() {
		return "", time.Time{}, fmt.Errorf("%w: cannot issue token without a valid role", ErrInvalidToken)
	}

	now := m.now()
	expiresAt := now.Add(m.TTLFor(p.Role))
	claims := Claims{
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses a token and returns the principal it was issued for
func (m *TokenManager) Validate(tokenString string) (*Principal, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	return &Principal{
		ID:    uint(id),
		Role:  claims.Role,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
