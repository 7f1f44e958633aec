package service

import (
	"errors"
	"fmt"
)

var (
	ErrConflict              = errors.New("conflict")
	ErrEmailTaken            = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrMobileTaken           = fmt.Errorf("%w: user with this mobile number already exists", ErrConflict)
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidCode           = errors.New("invalid or expired verification code")
	ErrNotFound              = errors.New("not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrDeliveryFailed        = errors.New("notification delivery failed")
	ErrTooManyAttempts       = errors.New("too many attempts")
	ErrAlreadyVerified       = errors.New("mobile number already verified")
	ErrCompanyExists         = errors.New("company already registered for this user")
	ErrUploadsDisabled       = errors.New("uploads are not configured")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
