package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrLocked           = errors.New("account is temporarily locked")
	ErrEmailNotVerified = errors.New("email address not verified")
	ErrAlreadyVerified  = errors.New("email address already verified")
	ErrNotVerified      = errors.New("email address not verified yet")

	// OTP and delivery errors
	ErrOTPInvalid     = errors.New("invalid or expired code")
	ErrDeliveryFailed = errors.New("failed to deliver email")
	ErrTOTPRequired   = errors.New("totp code required")
)
