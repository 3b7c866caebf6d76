package apperror

import (
	"errors"
	"net/http"
)

// Error types reported to clients
const (
	TypeValidation             = "validation_error"
	TypeDuplicateReceiptNumber = "duplicate_receipt_number"
	TypeFinancialIntegrity     = "financial_integrity_error"
	TypeMissingServerID        = "missing_server_id"
	TypeMissingWatermark       = "missing_watermark"
	TypeNotFound               = "not_found"
	TypePersistence            = "persistence_error"
	TypeConflict               = "conflict"
	TypeBadRequest             = "bad_request"
	TypeUnauthorized           = "unauthorized"
	TypeForbidden              = "forbidden"
	TypeRateLimited            = "rate_limited"
	TypeInternal               = "internal_error"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Received string `json:"received,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of e that unwraps to cause
func (e *AppError) WithCause(cause error) *AppError {
	next := *e
	next.cause = cause
	return &next
}

// Is matches errors of the same type so callers can use errors.Is against
// the sentinels below
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Type: TypeInternal, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: "Resource already exists"}
	ErrValidation         = &AppError{Code: http.StatusUnprocessableEntity, Type: TypeValidation, Message: "Validation failed"}
	ErrDuplicateNumber    = &AppError{Code: http.StatusConflict, Type: TypeDuplicateReceiptNumber, Message: "Duplicate receipt number"}
	ErrFinancialIntegrity = &AppError{Code: http.StatusUnprocessableEntity, Type: TypeFinancialIntegrity, Message: "Financial integrity check failed"}
	ErrMissingServerID    = &AppError{Code: http.StatusUnprocessableEntity, Type: TypeMissingServerID, Message: "A server id is required to mark as synced"}
	ErrMissingWatermark   = &AppError{Code: http.StatusBadRequest, Type: TypeMissingWatermark, Message: "last_sync timestamp is required"}
	ErrPersistence        = &AppError{Code: http.StatusInternalServerError, Type: TypePersistence, Message: "Failed to persist changes"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid token"}
	ErrRateLimited        = &AppError{Code: http.StatusTooManyRequests, Type: TypeRateLimited, Message: "Rate limit exceeded"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Type:    typeForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, fieldErrors ...FieldError) *AppError {
	if message == "" {
		message = "Validation failed"
	}
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: message,
		Errors:  fieldErrors,
	}
}

// NewDuplicateReceiptNumberError reports a receipt number already used by the business
func NewDuplicateReceiptNumberError(number string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeDuplicateReceiptNumber,
		Message: "Receipt number " + number + " already exists for this business",
		Errors: []FieldError{{
			Field:    "receipt_number",
			Message:  "already exists for this business",
			Received: number,
		}},
	}
}

// NewFinancialIntegrityError reports a submitted total that does not match its computed value
func NewFinancialIntegrityError(field, expected, received string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeFinancialIntegrity,
		Message: field + " mismatch: expected " + expected + ", got " + received,
		Errors: []FieldError{{
			Field:    field,
			Message:  "does not match the computed value",
			Expected: expected,
			Received: received,
		}},
	}
}

// NewMissingServerIDError reports a transition into synced without a server id
func NewMissingServerIDError() *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeMissingServerID,
		Message: ErrMissingServerID.Message,
		Errors:  []FieldError{{Field: "server_id", Message: "required when sync_status is synced"}},
	}
}

// NewMissingWatermarkError reports a change-feed request without a timestamp
func NewMissingWatermarkError() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeMissingWatermark,
		Message: ErrMissingWatermark.Message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypePersistence,
		Message: ErrPersistence.Message,
		cause:   err,
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeInternal,
		Message: err.Error(),
		cause:   err,
	}
}

func typeForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusForbidden:
		return TypeForbidden
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusUnprocessableEntity:
		return TypeValidation
	case http.StatusTooManyRequests:
		return TypeRateLimited
	default:
		return TypeInternal
	}
}
