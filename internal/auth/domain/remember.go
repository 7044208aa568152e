package domain

import "time"

// RememberToken is one remember-me series. The plaintext token is only ever
// held by the client; TokenHash is its fingerprint and changes on every use.
type RememberToken struct {
	SeriesID   string
	UserID     string
	TokenHash  string
	CreatedAt  time.Time
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// SecurityEvent is emitted for security-relevant outcomes such as a reused
// remember-me token.
type SecurityEvent struct {
	Type     string            `json:"type"`
	UserID   string            `json:"user_id,omitempty"`
	IP       string            `json:"ip,omitempty"`
	At       time.Time         `json:"at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Security event types.
const (
	EventRememberTokenReused = "remember_token_reused"
	EventLoginRateLimited    = "login_rate_limited"
	EventTOTPRejected        = "totp_rejected"
	EventTOTPEnabled         = "totp_enabled"
	EventTOTPDisabled        = "totp_disabled"
	EventPasswordChanged     = "password_changed"
)
