package domain

import (
	"strings"
	"time"
)

type User struct {
	ID              string
	Email           string     // always stored via NormalizeEmail
	PasswordHash    string     // argon2id PHC string
	TOTPSecret      *string    // base32, set on enrollment (nullable)
	TOTPEnabledAt   *time.Time // set once enrollment is confirmed (nullable)
	TOTPLastCounter *uint64    // last accepted time step (nullable)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TOTPEnabled reports whether a second factor is required at login.
func (u User) TOTPEnabled() bool {
	return u.TOTPEnabledAt != nil && u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
