// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a failure class shared across the service.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeAuthentication ErrorCode = "AUTHENTICATION_ERROR"
	CodeAuthorization  ErrorCode = "AUTHORIZATION_ERROR"
	CodePendingAccount ErrorCode = "ACCOUNT_PENDING_ACTIVATION"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"
	CodeUpstream       ErrorCode = "UPSTREAM_ERROR"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error type carried across layer boundaries.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the error for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationError(message, details string) *StandardError {
	return newError(CodeValidation, message, details, false)
}

func NewAuthenticationError(message string) *StandardError {
	return newError(CodeAuthentication, message, "", false)
}

func NewAuthorizationError(message string) *StandardError {
	return newError(CodeAuthorization, message, "", false)
}

func NewPendingActivationError() *StandardError {
	return newError(CodePendingAccount, "account pending activation", "", false)
}

func NewNotFoundError(resource string) *StandardError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", resource), "", false)
}

func NewConflictError(message string) *StandardError {
	return newError(CodeConflict, message, "", false)
}

func NewQuotaExceededError(details string) *StandardError {
	return newError(CodeQuotaExceeded, "transcription quota exceeded", details, false)
}

func NewUpstreamError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(CodeUpstream, message, details, true)
}

func NewInternalError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(CodeInternal, message, details, false)
}

// HTTPStatus maps an error code to the response status the API layer uses.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeAuthentication:
		return 401
	case CodeAuthorization, CodePendingAccount:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeQuotaExceeded:
		return 429
	case CodeUpstream:
		return 502
	default:
		return 500
	}
}

// GetRetryCount returns how many times an operation carrying this code should
// be retried by background senders (notifications, search indexing).
func GetRetryCount(code ErrorCode) int {
	switch code {
	case CodeUpstream:
		return 3
	default:
		return 0
	}
}
