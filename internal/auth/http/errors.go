package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

var (
	errInvalidCredentials = httpx.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials, "invalid credentials")
	errInvalidTOTPCode    = httpx.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeInvalidTOTPCode, "invalid TOTP code")
	errAttemptExpired     = httpx.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeAttemptExpired, "The login attempt expired. Sign in again.")
	errEmailTaken         = httpx.NewAPIError(http.StatusConflict, authsdk.ErrorCodeEmailTaken, "The email address is already registered.")
	errInvalidEmail       = httpx.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidEmail, "The email address is not valid.")
	errWeakPassword       = httpx.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeWeakPassword, "The password is too short.")
	errTOTPAlreadyEnabled = httpx.NewAPIError(http.StatusConflict, authsdk.ErrorCodeTOTPAlreadyEnabled, "Two-factor authentication is already enabled.")
	errTOTPNotEnrolled    = httpx.NewAPIError(http.StatusConflict, authsdk.ErrorCodeTOTPNotEnrolled, "Two-factor enrollment has not been started.")
	errTOTPNotEnabled     = httpx.NewAPIError(http.StatusConflict, authsdk.ErrorCodeTOTPNotEnabled, "Two-factor authentication is not enabled.")
)

// toAPIError maps a service error to its HTTP form. ok is false for errors
// that have no public mapping.
func toAPIError(err error) (apiErr *httpx.APIError, ok bool) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return errInvalidCredentials, true
	case errors.Is(err, service.ErrInvalidTOTPCode):
		return errInvalidTOTPCode, true
	case errors.Is(err, service.ErrAttemptExpired):
		return errAttemptExpired, true
	case errors.Is(err, service.ErrRateLimited):
		return httpx.ErrRateLimited, true
	case errors.Is(err, service.ErrSessionExpired):
		return httpx.ErrUnauthorized, true
	case errors.Is(err, service.ErrEmailTaken):
		return errEmailTaken, true
	case errors.Is(err, service.ErrInvalidEmail):
		return errInvalidEmail, true
	case errors.Is(err, service.ErrWeakPassword):
		return errWeakPassword, true
	case errors.Is(err, service.ErrTOTPAlreadyEnabled):
		return errTOTPAlreadyEnabled, true
	case errors.Is(err, service.ErrTOTPNotEnrolled):
		return errTOTPNotEnrolled, true
	case errors.Is(err, service.ErrTOTPNotEnabled):
		return errTOTPNotEnabled, true
	}
	return httpx.ErrInternal, false
}

// writeServiceError writes err as JSON, adding Retry-After for throttled
// logins. Unmapped errors are logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := toAPIError(err)
	if !ok {
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
	}

	var limited *service.RateLimitedError
	if errors.As(err, &limited) {
		httpx.SetRetryAfter(w, limited.RetryAfter)
	}

	httpx.WriteError(w, apiErr)
}
