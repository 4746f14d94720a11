package handler

import (
	"net/http"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List internal users
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role" Enums(admin, staff)
// @Success 200 {array} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var role *domain.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		rl := domain.Role(raw)
		if !rl.IsUserRole() {
			respondWithError(w, http.StatusBadRequest, "role must be admin or staff")
			return
		}
		role = &rl
	}

	p, _ := auth.FromContext(r.Context())
	users, err := h.userService.List(r.Context(), p, role)
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// Create godoc
// @Summary Create an internal user
// @Description Creates an admin or staff account with a generated temporary password,
// @Description which is returned once and emailed to the user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.CreatedUserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Email already in use"
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, _ := auth.FromContext(r.Context())
	created, err := h.userService.Create(r.Context(), p, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create user")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}
