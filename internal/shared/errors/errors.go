// Package errors defines the billing error taxonomy and its mapping to HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation_error"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeAccessDenied    ErrorType = "access_denied"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConfiguration   ErrorType = "configuration_error"
	ErrorTypeExternalService ErrorType = "external_service_error"
	ErrorTypeInternal        ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

// NewValidationError is for malformed or missing caller input.
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewUnauthorizedError is for failed authenticity checks, e.g. a bad webhook signature.
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details)
}

// NewAccessDeniedError is for ownership mismatches.
func NewAccessDeniedError(message string, details ...string) *AppError {
	return newError(ErrorTypeAccessDenied, http.StatusForbidden, message, details)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewConfigurationError signals an operator problem such as a missing price mapping.
func NewConfigurationError(message string, details ...string) *AppError {
	return newError(ErrorTypeConfiguration, http.StatusInternalServerError, message, details)
}

// NewExternalServiceError wraps a failed call to the payment processor.
func NewExternalServiceError(message string, err error) *AppError {
	e := newError(ErrorTypeExternalService, http.StatusBadGateway, message, nil)
	e.Err = err
	return e
}

func NewInternalError(message string, err error) *AppError {
	e := newError(ErrorTypeInternal, http.StatusInternalServerError, message, nil)
	e.Err = err
	return e
}

// GetAppError extracts AppError from the error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type == t
	}
	return false
}

// HTTPStatus returns the status code for err, 500 for unknown errors.
func HTTPStatus(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
