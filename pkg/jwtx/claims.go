package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime of a login session token.
const DefaultSessionTTL = 12 * time.Hour

// Claims are the session-token claims.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, the server-side record backing this token.
	SID string `json:"sid"`

	// Authentication Methods Reference
	//		"pwd": password
	//		"otp": TOTP code
	//		"rmb": resumed from a remember-me cookie
	AMR []string `json:"amr,omitempty"`

	// Level is the assurance level reached by the session ("password" or "full").
	Level string `json:"lvl"`

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`
}

// NewSessionClaims builds minimally-correct claims for a session.
func NewSessionClaims(
	subject, sid, level, email string,
	amr []string,
	issuer string,
	audience []string,
	now time.Time,
	expiresAt time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        NewJTI(),
		},
		SID:   sid,
		AMR:   amr,
		Level: level,
		Email: email,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against now, allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
