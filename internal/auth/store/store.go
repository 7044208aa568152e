package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict reports a conditional update whose precondition no longer
	// holds (e.g. a TOTP step already used or a rotated remember token).
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable, and so a
// transaction-scoped Store can be handed to code that must not open another
// transaction.
type Store interface {
	Users() Users
	LoginAttempts() LoginAttempts
	Sessions() Sessions
	RememberTokens() RememberTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by case-normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user; ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error

	// SetPendingTOTPSecret stores a secret for a user that has not enabled
	// TOTP yet, replacing any earlier unconfirmed one. ErrConflict if TOTP is
	// already enabled.
	SetPendingTOTPSecret(ctx context.Context, userID, secret string, now time.Time) error

	// EnableTOTP marks the pending secret as confirmed and records counter as
	// the last accepted step. ErrConflict if there is no pending secret.
	EnableTOTP(ctx context.Context, userID string, counter uint64, now time.Time) error

	// DisableTOTP clears the secret, the enabled flag and the replay counter.
	DisableTOTP(ctx context.Context, userID string, now time.Time) error

	// AdvanceTOTPCounter records counter as the last accepted step, only if
	// it is greater than the stored one. ErrConflict otherwise.
	AdvanceTOTPCounter(ctx context.Context, userID string, counter uint64) error
}

type LoginAttempts interface {
	// CreateLoginAttempt stores a pending second-factor challenge.
	CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error

	// GetLoginAttempt returns an attempt by id, expired or not.
	GetLoginAttempt(ctx context.Context, id string) (domain.LoginAttempt, error)

	// DeleteLoginAttempt removes an attempt by id.
	DeleteLoginAttempt(ctx context.Context, id string) error

	// DeleteLoginAttemptsForUser removes any pending attempt of a user.
	DeleteLoginAttemptsForUser(ctx context.Context, userID string) error

	// DeleteExpiredLoginAttempts is housekeeping.
	DeleteExpiredLoginAttempts(ctx context.Context, now time.Time) (int64, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsForUser(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type RememberTokens interface {
	// CreateRememberToken stores a new series.
	CreateRememberToken(ctx context.Context, t domain.RememberToken) error

	// GetRememberToken returns a series by id.
	GetRememberToken(ctx context.Context, seriesID string) (domain.RememberToken, error)

	// RotateRememberToken swaps oldHash for newHash. ErrConflict when the
	// stored hash is no longer oldHash.
	RotateRememberToken(ctx context.Context, seriesID, oldHash, newHash string, now, expiresAt time.Time) error

	// DeleteRememberToken revokes one series.
	DeleteRememberToken(ctx context.Context, seriesID string) error

	// DeleteRememberTokensForUser revokes every series of a user.
	DeleteRememberTokensForUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredRememberTokens is housekeeping.
	DeleteExpiredRememberTokens(ctx context.Context, now time.Time) (int64, error)
}
