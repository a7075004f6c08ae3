package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeNetwork      ErrorType = "NETWORK_ERROR"
	ErrorTypeServer       ErrorType = "SERVER_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequestRejected  ErrorCode = "REQUEST_REJECTED"

	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNoTokenReceived     ErrorCode = "NO_TOKEN_RECEIVED"
	ErrCodeRefreshTokenMissing ErrorCode = "REFRESH_TOKEN_MISSING"
	ErrCodeRefreshFailed       ErrorCode = "REFRESH_FAILED"
	ErrCodeSessionExpired      ErrorCode = "SESSION_EXPIRED"
	ErrCodeUnauthenticated     ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"

	ErrCodeAccessDenied     ErrorCode = "ACCESS_DENIED"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeResourceConflict ErrorCode = "RESOURCE_CONFLICT"

	ErrCodeRequestTimeout   ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeRequestCancelled ErrorCode = "REQUEST_CANCELLED"
	ErrCodeServerFailure    ErrorCode = "SERVER_FAILURE"

	ErrCodeDecodeFailed         ErrorCode = "DECODE_FAILED"
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	ErrCodeStorageFailure       ErrorCode = "STORAGE_FAILURE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by type and code, so package-level sentinels
// work with errors.Is after WithCause/WithDetails copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy of e carrying cause.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewNetworkError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewServerError(status int, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeServer,
		Code:       ErrCodeServerFailure,
		Message:    message,
		StatusCode: status,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// FromStatus classifies a non-2xx backend response.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(message, ErrCodeValidationFailed)
	case status == http.StatusUnauthorized:
		return NewUnauthorizedError(message, ErrCodeUnauthenticated)
	case status == http.StatusForbidden:
		return NewForbiddenError(message, ErrCodeAccessDenied)
	case status == http.StatusNotFound:
		return NewNotFoundError(message, ErrCodeResourceNotFound)
	case status == http.StatusConflict:
		return NewConflictError(message, ErrCodeResourceConflict)
	case status >= 500:
		return NewServerError(status, message)
	default:
		e := NewValidationError(message, ErrCodeRequestRejected)
		e.StatusCode = status
		return e
	}
}

var (
	ErrInvalidCredentials   = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrNoTokenReceived      = NewUnauthorizedError("No token received from server", ErrCodeNoTokenReceived)
	ErrRefreshTokenMissing  = NewUnauthorizedError("No refresh token available", ErrCodeRefreshTokenMissing)
	ErrRefreshFailed        = NewUnauthorizedError("Token refresh failed", ErrCodeRefreshFailed)
	ErrSessionExpired       = NewUnauthorizedError("Session expired, please log in again", ErrCodeSessionExpired)
	ErrUnsupportedOperation = NewValidationError("Operation not supported for this resource", ErrCodeUnsupportedOperation)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an *AppError of type t anywhere in its chain.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
