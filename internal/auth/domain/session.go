package domain

import "time"

// Level is the assurance reached by a session.
type Level string

const (
	// LevelPassword: a password was verified (or a remember-me cookie
	// resumed the session) but no second factor was presented.
	LevelPassword Level = "password"
	// LevelFull: all factors configured for the user were presented.
	LevelFull Level = "full"
)

// Authentication method references recorded on a session.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRRemember = "rmb"
)

type Session struct {
	ID        string // ULID, the sid claim
	UserID    string
	Level     Level
	AMR       []string
	IP        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has lapsed at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
