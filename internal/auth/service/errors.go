package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/throttle"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTOTPRequired    = errors.New("totp required")
	ErrInvalidTOTPCode = errors.New("invalid TOTP code")
	ErrAttemptExpired  = errors.New("login attempt expired")

	// ErrRateLimited is matched by *RateLimitedError.
	ErrRateLimited = throttle.ErrRateLimited

	ErrTokenReused          = errors.New("remember-me token reused")
	ErrInvalidRememberToken = errors.New("invalid remember-me token")
	ErrSessionExpired       = errors.New("session expired")

	ErrTOTPAlreadyEnabled = errors.New("TOTP already enabled for this user")
	ErrTOTPNotEnrolled    = errors.New("TOTP not enrolled")
	ErrTOTPNotEnabled     = errors.New("TOTP not enabled for this user")

	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password too short")
)

// RateLimitedError carries the Retry-After for a throttled login.
type RateLimitedError = throttle.RateLimitedError

// TOTPRequiredError is returned once the password checked out for a user with
// TOTP enabled. AttemptID must be presented together with the code.
type TOTPRequiredError struct {
	AttemptID string
	ExpiresAt time.Time
}

func (e *TOTPRequiredError) Error() string {
	return fmt.Sprintf("totp required (attempt %s)", e.AttemptID)
}

func (e *TOTPRequiredError) Is(target error) bool { return target == ErrTOTPRequired }
