package domain

// APIError is the error payload returned by every endpoint. Message is always set.
type APIError struct {
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Title
}

// ValidationMessages maps validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gt":       "Must be greater than minimum value",
	"oneof":    "Must be one of the allowed values",
	"alphanum": "Must contain only alphanumeric characters",
	"numeric":  "Must be a numeric value",
	"len":      "Must be exactly the specified length",
	"gstin":    "Must be a valid 15 character GSTIN",
	"pan":      "Must be a valid 10 character PAN",
	"ifsc":     "Must be a valid 11 character IFSC code",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Error types, one per failure kind of the workflow engine
const (
	ErrorTypeValidation       = "validation_error"
	ErrorTypeBadRequest       = "invalid_argument"
	ErrorTypeInvalidReference = "invalid_reference"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeConflict         = "conflict"
	ErrorTypeUnauthorized     = "unauthorized"
	ErrorTypeForbidden        = "forbidden"
	ErrorTypeRateLimited      = "rate_limited"
	ErrorTypeInternal         = "internal_error"
)
