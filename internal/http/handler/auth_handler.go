package handler

import (
	"net/http"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves admin/staff sessions and password resets
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Admin or staff login
// @Description Authenticates an internal user and returns a bearer token (7 day lifetime)
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.UserLoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "user login")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get current principal
// @Description Returns the identity carried by the bearer token
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.PrincipalDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	me, err := h.authService.Me(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger, err, "me")
		return
	}
	respondJSON(w, http.StatusOK, me)
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Emails a single-use reset link if the account exists. Always returns 200.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ForgotPasswordRequest true "Account email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} domain.APIError
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.authService.ForgotPassword(r.Context(), &req)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a reset link has been sent.",
	})
}

// ResetPassword godoc
// @Summary Reset a password
// @Description Consumes a reset token and sets a new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} domain.APIError
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		respondServiceError(w, h.logger, err, "reset password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
