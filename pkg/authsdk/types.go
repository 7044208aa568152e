package authsdk

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is the machine readable code (e.g., "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Throttle string `json:"throttle,omitempty"`
}

// ============================================================================
// Login Types
// ============================================================================

// LoginPageResponse is the data needed to render a login form.
type LoginPageResponse struct {
	// CSRFToken must be echoed back as the _csrf_token form field.
	CSRFToken string `json:"csrf_token"`

	// Email is the address submitted by the previous failed attempt.
	Email string `json:"email,omitempty"`

	// Error describes why the previous attempt failed.
	Error string `json:"error,omitempty"`

	// TOTPPending is set while a second-factor challenge is open.
	TOTPPending bool `json:"totp_pending"`
}

// TOTPChallengeResponse is the 409 body returned when the password was
// accepted but a TOTP code is still required.
type TOTPChallengeResponse struct {
	Error            string    `json:"error" example:"totp_required"`
	ErrorDescription string    `json:"error_description"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// SessionResponse describes the caller's current session.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	Level     string    `json:"level" example:"full"`
	AMR       []string  `json:"amr" example:"pwd,otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================================
// User Types
// ============================================================================

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password"`
}

// UserResponse is a registered account.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ============================================================================
// Two-Factor Types
// ============================================================================

// TOTPEnrollResponse carries a freshly generated, unconfirmed secret.
type TOTPEnrollResponse struct {
	Secret  string `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	URI     string `json:"uri" example:"otpauth://totp/Tabgate:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Tabgate"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// TOTPCodeRequest carries a 6-digit code for confirm and disable.
type TOTPCodeRequest struct {
	Code string `json:"code" example:"123456"`
}

// ============================================================================
// Key Discovery Types
// ============================================================================

// JWK is an Ed25519 session-token verification key.
type JWK struct {
	Kty string `json:"kty" example:"OKP"`
	Crv string `json:"crv" example:"Ed25519"`
	X   string `json:"x"`
	Kid string `json:"kid"`
	Alg string `json:"alg" example:"EdDSA"`
	Use string `json:"use" example:"sig"`
}

// JWKSResponse is the key set served at /.well-known/jwks.json.
type JWKSResponse struct {
	Keys []JWK `json:"keys"`
}
