package common

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with an HTTP status code
type AppError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a 400 error for validation failures
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "VALIDATION_FAILED",
		Message:   message,
	}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
		Err:     err,
	}
}

// NewBadGatewayError creates a 502 error
func NewBadGatewayError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Message: message,
		Err:     err,
	}
}

// NewGatewayTimeoutError creates a 504 error
func NewGatewayTimeoutError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusGatewayTimeout,
		Message: message,
		Err:     err,
	}
}

// NewServiceUnavailableError creates a 503 error
func NewServiceUnavailableError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a 500 error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}
