package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
)

type rememberTokensRepo struct {
	db dbtx
}

func (r *rememberTokensRepo) CreateRememberToken(ctx context.Context, t domain.RememberToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO remember_tokens (series_id, user_id, token_hash, created_at, last_used_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.SeriesID, t.UserID, t.TokenHash, toMillis(t.CreatedAt), toMillis(t.LastUsedAt), toMillis(t.ExpiresAt),
	)
	return mapUnique(err)
}

func (r *rememberTokensRepo) GetRememberToken(ctx context.Context, seriesID string) (domain.RememberToken, error) {
	var (
		t                          domain.RememberToken
		createdAt, used, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT series_id, user_id, token_hash, created_at, last_used_at, expires_at
		 FROM remember_tokens WHERE series_id = ?`, seriesID,
	).Scan(&t.SeriesID, &t.UserID, &t.TokenHash, &createdAt, &used, &expiresAt)
	if err != nil {
		return domain.RememberToken{}, mapNotFound(err)
	}

	t.CreatedAt = fromMillis(createdAt)
	t.LastUsedAt = fromMillis(used)
	t.ExpiresAt = fromMillis(expiresAt)
	return t, nil
}

func (r *rememberTokensRepo) RotateRememberToken(
	ctx context.Context,
	seriesID, oldHash, newHash string,
	now, expiresAt time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE remember_tokens SET token_hash = ?, last_used_at = ?, expires_at = ?
		 WHERE series_id = ? AND token_hash = ?`,
		newHash, toMillis(now), toMillis(expiresAt), seriesID, oldHash,
	)
	return expectOne(res, err, store.ErrConflict)
}

func (r *rememberTokensRepo) DeleteRememberToken(ctx context.Context, seriesID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM remember_tokens WHERE series_id = ?`, seriesID)
	return err
}

func (r *rememberTokensRepo) DeleteRememberTokensForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM remember_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *rememberTokensRepo) DeleteExpiredRememberTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM remember_tokens WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
