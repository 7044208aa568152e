package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
)

type loginAttemptsRepo struct {
	db dbtx
}

const attemptColumns = `id, user_id, stage, remember_me, target_path, ip, created_at, expires_at`

func scanAttempt(row *sql.Row) (domain.LoginAttempt, error) {
	var (
		a                    domain.LoginAttempt
		stage                string
		createdAt, expiresAt int64
	)
	err := row.Scan(&a.ID, &a.UserID, &stage, &a.RememberMe, &a.TargetPath, &a.IP, &createdAt, &expiresAt)
	if err != nil {
		return domain.LoginAttempt{}, mapNotFound(err)
	}
	a.Stage = domain.Stage(stage)
	a.CreatedAt = fromMillis(createdAt)
	a.ExpiresAt = fromMillis(expiresAt)
	return a, nil
}

func (r *loginAttemptsRepo) CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (`+attemptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, string(a.Stage), a.RememberMe, a.TargetPath, a.IP,
		toMillis(a.CreatedAt), toMillis(a.ExpiresAt),
	)
	return mapUnique(err)
}

func (r *loginAttemptsRepo) GetLoginAttempt(ctx context.Context, id string) (domain.LoginAttempt, error) {
	return scanAttempt(r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM login_attempts WHERE id = ?`, id))
}

func (r *loginAttemptsRepo) DeleteLoginAttempt(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE id = ?`, id)
	return expectOne(res, err, store.ErrNotFound)
}

func (r *loginAttemptsRepo) DeleteLoginAttemptsForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE user_id = ?`, userID)
	return err
}

func (r *loginAttemptsRepo) DeleteExpiredLoginAttempts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
