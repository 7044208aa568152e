package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error codes returned in the "error" field.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeTOTPRequired       = "totp_required"
	ErrorCodeInvalidTOTPCode    = "invalid_totp_code"
	ErrorCodeAttemptExpired     = "attempt_expired"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeInvalidCSRFToken   = "invalid_csrf_token"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeInvalidEmail       = "invalid_email"
	ErrorCodeWeakPassword       = "weak_password"
	ErrorCodeTOTPAlreadyEnabled = "totp_already_enabled"
	ErrorCodeTOTPNotEnrolled    = "totp_not_enrolled"
	ErrorCodeTOTPNotEnabled     = "totp_not_enabled"
	ErrorCodeServerError        = "server_error"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string

	// RetryAfter is parsed from the Retry-After header of 429 responses.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches another *APIError by code, so callers can write
// errors.Is(err, &authsdk.APIError{Code: authsdk.ErrorCodeRateLimited}).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// TOTPRequiredError is returned by Login when the password was accepted and
// the account has two-factor authentication enabled. The pending challenge is
// tracked by a cookie in the client's jar; complete it with SubmitTOTP.
type TOTPRequiredError struct {
	ExpiresAt time.Time
}

// Error implements the error interface.
func (e *TOTPRequiredError) Error() string {
	return fmt.Sprintf("totp required: challenge expires at %s", e.ExpiresAt.Format(time.RFC3339))
}

// parseErrorResponse turns a non-2xx response into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusConflict {
		var challenge TOTPChallengeResponse
		if err := json.Unmarshal(body, &challenge); err == nil && challenge.Error == ErrorCodeTOTPRequired {
			return &TOTPRequiredError{ExpiresAt: challenge.ExpiresAt}
		}
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Error
		apiErr.Description = errResp.ErrorDescription
		return apiErr
	}

	apiErr.Code = ErrorCodeServerError
	apiErr.Description = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	return apiErr
}
