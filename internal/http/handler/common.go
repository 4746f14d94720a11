package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"go.uber.org/zap"
)

const maxJSONBodyBytes = 1 << 20

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscPattern  = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("gstin", upperPattern(gstinPattern))
	v.RegisterValidation("pan", upperPattern(panPattern))
	v.RegisterValidation("ifsc", upperPattern(ifscPattern))
	return v
}

// upperPattern matches the trimmed, upper-cased field against re
func upperPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON reads a size-limited JSON body into target
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeAndValidate decodes the body and runs struct validation, responding on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if !decodeJSON(w, r, target) {
		return false
	}
	if err := validate.Struct(target); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fieldErrors := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:    domain.ErrorTypeValidation,
		Title:   "Validation Error",
		Status:  http.StatusBadRequest,
		Message: "One or more fields failed validation",
		Errors:  fieldErrors,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	if len(field) > 2 && strings.HasSuffix(field, "ID") {
		field = field[:len(field)-2] + "Id"
	}
	// Acronym prefixes such as GSTNumber and IFSCCode
	i := 0
	for i < len(field) && field[i] >= 'A' && field[i] <= 'Z' {
		i++
	}
	switch {
	case i == len(field):
		return strings.ToLower(field)
	case i > 1:
		return strings.ToLower(field[:i-1]) + field[i-1:]
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:    getErrorType(status),
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return domain.ErrorTypeInvalidReference
	case http.StatusTooManyRequests:
		return domain.ErrorTypeRateLimited
	default:
		return domain.ErrorTypeInternal
	}
}

// statusForError maps service sentinels onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the error payload for a service failure. Internal
// errors are logged and never echoed to the client.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, op string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		respondWithError(w, status, "An internal error occurred")
		return
	}
	respondWithError(w, status, err.Error())
}

// parseIDParam reads a positive integer URL parameter
func parseIDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseUintQuery parses an optional positive integer query parameter
func parseUintQuery(r *http.Request, key string) (*uint, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return nil, nil
	}
	val, err := strconv.ParseUint(valStr, 10, 64)
	if err != nil || val == 0 {
		return nil, fmt.Errorf("invalid %s: %q", key, valStr)
	}
	id := uint(val)
	return &id, nil
}
