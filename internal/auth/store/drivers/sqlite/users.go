package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, totp_secret, totp_enabled_at, totp_last_counter, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                  domain.User
		secret             sql.NullString
		enabledAt, counter sql.NullInt64
		createdAt, updated int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &secret, &enabledAt, &counter, &createdAt, &updated)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.TOTPSecret = nullString(secret)
	u.TOTPEnabledAt = nullMillis(enabledAt)
	u.TOTPLastCounter = nullCounter(counter)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, domain.NormalizeEmail(u.Email), u.PasswordHash, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapUnique(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(now), userID,
	)
	return expectOne(res, err, store.ErrNotFound)
}

func (r *usersRepo) SetPendingTOTPSecret(ctx context.Context, userID, secret string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = ?, totp_last_counter = NULL, updated_at = ?
		 WHERE id = ? AND totp_enabled_at IS NULL`,
		secret, toMillis(now), userID,
	)
	return expectOne(res, err, store.ErrConflict)
}

func (r *usersRepo) EnableTOTP(ctx context.Context, userID string, counter uint64, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_enabled_at = ?, totp_last_counter = ?, updated_at = ?
		 WHERE id = ? AND totp_secret IS NOT NULL AND totp_enabled_at IS NULL`,
		toMillis(now), int64(counter), toMillis(now), userID, // #nosec G115
	)
	return expectOne(res, err, store.ErrConflict)
}

func (r *usersRepo) DisableTOTP(ctx context.Context, userID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = NULL, totp_enabled_at = NULL, totp_last_counter = NULL, updated_at = ?
		 WHERE id = ?`,
		toMillis(now), userID,
	)
	return expectOne(res, err, store.ErrNotFound)
}

func (r *usersRepo) AdvanceTOTPCounter(ctx context.Context, userID string, counter uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_last_counter = ?
		 WHERE id = ? AND (totp_last_counter IS NULL OR totp_last_counter < ?)`,
		int64(counter), userID, int64(counter), // #nosec G115
	)
	return expectOne(res, err, store.ErrConflict)
}
