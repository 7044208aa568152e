package domain

import (
	"fmt"
	"time"
)

// Stage is a position in the login state machine.
type Stage string

const (
	StageStart              Stage = "start"
	StageCredentialsChecked Stage = "credentials_checked"
	StageAwaitingTOTP       Stage = "awaiting_totp"
	StageAuthenticated      Stage = "authenticated"
	StageFailed             Stage = "failed"
)

var transitions = map[Stage][]Stage{
	StageStart:              {StageCredentialsChecked, StageFailed},
	StageCredentialsChecked: {StageAwaitingTOTP, StageAuthenticated, StageFailed},
	StageAwaitingTOTP:       {StageAuthenticated, StageFailed},
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageAuthenticated || s == StageFailed
}

// Advance returns to if the transition from s is allowed.
func (s Stage) Advance(to Stage) (Stage, error) {
	for _, next := range transitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("domain: illegal login transition %s -> %s", s, to)
}

// LoginAttempt is a pending second-factor challenge. Its ID is handed to the
// client and presented with the TOTP code.
type LoginAttempt struct {
	ID         string // ULID
	UserID     string
	Stage      Stage
	RememberMe bool
	TargetPath string
	IP         string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the attempt can no longer be completed.
func (a LoginAttempt) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
