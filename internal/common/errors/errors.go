// Package errors provides standardized error handling for the enrollment API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	ErrCodeWarehouseDeliveryFailed ErrorCode = "WAREHOUSE_DELIVERY_FAILED"
	ErrCodeQueueEnqueueFailed      ErrorCode = "QUEUE_ENQUEUE_FAILED"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fields    []FieldError           `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidStatusError rejects a status outside the recognized set.
func NewInvalidStatusError(status string, allowed []string) *StandardError {
	return &StandardError{
		Code:    ErrCodeInvalidStatus,
		Message: "Invalid application status",
		Details: fmt.Sprintf("status: %q", status),
		Fields: []FieldError{{
			Field:   "status",
			Message: fmt.Sprintf("Status must be one of: %s", strings.Join(allowed, ", ")),
			Code:    "INVALID_ENUM_VALUE",
		}},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError wraps a list of field errors.
func NewValidationError(fields []FieldError) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable store error.
func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseError,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewWarehouseDeliveryError(endpoint, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWarehouseDeliveryFailed,
		Message:   "Data warehouse delivery failed",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, message),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueueEnqueueError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueEnqueueFailed,
		Message:   "Failed to queue delivery for retry",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Not authorized to access this route",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewForbiddenError(role string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   fmt.Sprintf("User role %s is not authorized to access this route", role),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError normalizes any error to a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// HTTPStatus maps an error code to the status returned by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidStatus, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeApplicationNotFound, ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeWarehouseDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "WAREHOUSE") || strings.Contains(codeStr, "QUEUE"):
		return "DELIVERY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "AUTHORIZED") || strings.Contains(codeStr, "FORBIDDEN"):
		return "AUTH"
	default:
		return "OTHER"
	}
}
