// Package apperrors defines the error taxonomy surfaced to callers of the
// session manager and the complaint store. Every error carries a
// user-readable Message; the underlying cause stays reachable through Unwrap.
package apperrors

import (
	"errors"
	"net/http"
)

// AuthenticationError indicates bad credentials, an unknown user or an
// unavailable identity provider during login.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(msg string, err error) *AuthenticationError {
	return &AuthenticationError{Message: msg, Err: err}
}

// DuplicateAccountError indicates that registration collided with an existing account.
type DuplicateAccountError struct {
	Message string
	Err     error
}

func (e *DuplicateAccountError) Error() string { return e.Message }
func (e *DuplicateAccountError) Unwrap() error { return e.Err }

// NewDuplicateAccountError creates a new duplicate account error
func NewDuplicateAccountError(msg string, err error) *DuplicateAccountError {
	return &DuplicateAccountError{Message: msg, Err: err}
}

// RegistrationError wraps any other sign-up failure.
type RegistrationError struct {
	Message string
	Err     error
}

func (e *RegistrationError) Error() string { return e.Message }
func (e *RegistrationError) Unwrap() error { return e.Err }

// NewRegistrationError creates a new registration error
func NewRegistrationError(msg string, err error) *RegistrationError {
	return &RegistrationError{Message: msg, Err: err}
}

// SubmissionError indicates that a new complaint could not be written.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }
func (e *SubmissionError) Unwrap() error { return e.Err }

// NewSubmissionError creates a new submission error
func NewSubmissionError(msg string, err error) *SubmissionError {
	return &SubmissionError{Message: msg, Err: err}
}

// UpdateError indicates that a complaint mutation was rejected or could not be written.
type UpdateError struct {
	Message string
	Err     error
}

func (e *UpdateError) Error() string { return e.Message }
func (e *UpdateError) Unwrap() error { return e.Err }

// NewUpdateError creates a new update error
func NewUpdateError(msg string, err error) *UpdateError {
	return &UpdateError{Message: msg, Err: err}
}

// TrackingError indicates that a tracking lookup failed in the backing store.
type TrackingError struct {
	Message string
	Err     error
}

func (e *TrackingError) Error() string { return e.Message }
func (e *TrackingError) Unwrap() error { return e.Err }

// NewTrackingError creates a new tracking error
func NewTrackingError(msg string, err error) *TrackingError {
	return &TrackingError{Message: msg, Err: err}
}

// NotFoundError indicates that a referenced complaint does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

// ForbiddenError indicates the caller may not act on the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) *ForbiddenError {
	return &ForbiddenError{Message: msg}
}

// ValidationError indicates invalid input supplied by the caller.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// IsDuplicateAccount checks if the error is a duplicate account error
func IsDuplicateAccount(err error) bool {
	var target *DuplicateAccountError
	return errors.As(err, &target)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// HTTPStatus maps an error of this package to the status code the API responds with.
func HTTPStatus(err error) int {
	var (
		authErr     *AuthenticationError
		dupErr      *DuplicateAccountError
		regErr      *RegistrationError
		notFoundErr *NotFoundError
		validErr    *ValidationError
		forbidErr   *ForbiddenError
	)
	switch {
	case errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &forbidErr):
		return http.StatusForbidden
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &dupErr):
		return http.StatusConflict
	case errors.As(err, &regErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
