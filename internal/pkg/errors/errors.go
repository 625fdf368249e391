// Package errors provides standardized API error types.
package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Details:    e.Details,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *APIError) WithDetails(details any) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Details:    details,
	}
}

// Standard error definitions
var (
	// ErrBadRequest is returned when the request is malformed.
	ErrBadRequest = &APIError{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = &APIError{
		Code:       "not_found",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrDuplicateUser is returned when signup hits an already-registered email.
	ErrDuplicateUser = &APIError{
		Code:       "duplicate_user",
		Message:    "User with this email already exists",
		StatusCode: http.StatusBadRequest,
	}

	// ErrIncorrectPassword is returned on a failed password comparison.
	ErrIncorrectPassword = &APIError{
		Code:       "incorrect_password",
		Message:    "Incorrect password",
		StatusCode: http.StatusBadRequest,
	}

	// ErrUserNotFound is returned when a login email has no account.
	// The login page depends on the 400 status, so it stays a 400 here
	// rather than the 404 used for region lookups.
	ErrUserNotFound = &APIError{
		Code:       "user_not_found",
		Message:    "User not found",
		StatusCode: http.StatusBadRequest,
	}

	// ErrNotRegistered is returned by the forgot-password flow for unknown emails.
	ErrNotRegistered = &APIError{
		Code:       "not_registered",
		Message:    "You are not a registered user",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInvalidResetToken is returned when a reset token is missing, expired, or spent.
	ErrInvalidResetToken = &APIError{
		Code:       "invalid_reset_token",
		Message:    "Invalid or expired reset token",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInternal is returned for unexpected server errors.
	ErrInternal = &APIError{
		Code:       "internal_error",
		Message:    "An internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
)

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    fmt.Sprintf("Validation failed: %s", message),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"field": field,
			"error": message,
		},
	}
}

// NewValidationErrors creates a validation error with multiple field errors.
func NewValidationErrors(errors map[string]string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    "One or more fields failed validation",
		StatusCode: http.StatusBadRequest,
		Details:    errors,
	}
}

// NewNotFoundError creates a not found error for a specific resource type.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "not_found",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewWrongProviderError tells a local-login caller which OAuth flow owns the
// account. The provider name is part of the message so the frontend can redirect.
func NewWrongProviderError(provider string) *APIError {
	return &APIError{
		Code:       "wrong_provider",
		Message:    fmt.Sprintf("Please login with %s", provider),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"provider": provider,
		},
	}
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// AsAPIError converts an error to an APIError if possible.
// Returns ErrInternal if the error is not an APIError.
func AsAPIError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return ErrInternal
}
