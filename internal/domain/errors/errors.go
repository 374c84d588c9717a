package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeBusiness     ErrorType = "business"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeDegradation  ErrorType = "degradation"
	ErrorTypeModel        ErrorType = "model"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

// NewInputError reports invalid caller input, such as an unsupported file
// type or missing claim fields. Surfaced to the caller with a reason.
func NewInputError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		Retryable:  false,
		StatusCode: 401,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		Retryable:  false,
		StatusCode: 403,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "CONFLICT",
		Message:    message,
		Retryable:  false,
		StatusCode: 409,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// NewDegradationError records a recoverable processing failure (OCR,
// metadata extraction, tampering-signal computation). It is logged and
// replaced with a neutral default, never surfaced as a hard failure.
func NewDegradationError(stage, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeDegradation,
		Code:       "PROCESSING_DEGRADED",
		Message:    message,
		Retryable:  true,
		StatusCode: 200,
		Details:    map[string]interface{}{"stage": stage},
	}
}

// NewModelUnavailableError indicates no trained decision policy can serve
// the request. Callers fall back to the risk scoring engine's verdict.
func NewModelUnavailableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeModel,
		Code:       "MODEL_UNAVAILABLE",
		Message:    message,
		Retryable:  true,
		StatusCode: 503,
	}
}

// NewTrainingError reports a failed training pass. The checkpoint is left
// unchanged; the next scheduled pass is the retry mechanism.
func NewTrainingError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeModel,
		Code:       "TRAINING_FAILED",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// Predefined common errors
var (
	ErrInvalidInput      = NewInputError("INVALID_INPUT", "Invalid input provided")
	ErrClaimNotFound     = NewNotFoundError("claim")
	ErrPolicyNotFound    = NewNotFoundError("policy")
	ErrUserNotFound      = NewNotFoundError("user")
	ErrInvalidFileType   = NewInputError("INVALID_FILE_TYPE", "invalid file type")
	ErrInvalidTransition = NewBusinessError("INVALID_TRANSITION", "Status transition not allowed")
	ErrPolicyNotActive   = NewBusinessError("POLICY_NOT_ACTIVE", "Policy is not active")
	ErrNoObservation     = NewBusinessError("NO_OBSERVATION", "No recorded prediction for claim")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
