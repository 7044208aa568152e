package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$stub",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lookup is case insensitive", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "Alice@Example.com")

		got, err := s.Users().GetUserByEmail(ctx, "  ALICE@example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "alice@example.com", got.Email)
		require.Nil(t, got.TOTPSecret)
		require.Nil(t, got.TOTPEnabledAt)
		require.Nil(t, got.TOTPLastCounter)
		require.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		s := newTestStore(t)
		seedUser(t, s, "bob@example.com")

		now := time.Now()
		err := s.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "BOB@example.com", PasswordHash: "x",
			CreatedAt: now, UpdatedAt: now,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("password update", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "carol@example.com")

		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$argon2id$new", time.Now()))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "$argon2id$new", got.PasswordHash)

		err = s.Users().UpdatePasswordHash(ctx, "missing", "x", time.Now())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("totp lifecycle", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "dave@example.com")
		users := s.Users()
		now := time.Now()

		require.ErrorIs(t, users.EnableTOTP(ctx, u.ID, 10, now), store.ErrConflict, "no pending secret")

		require.NoError(t, users.SetPendingTOTPSecret(ctx, u.ID, "FIRST", now))
		require.NoError(t, users.SetPendingTOTPSecret(ctx, u.ID, "SECOND", now), "re-enrollment replaces")
		require.NoError(t, users.EnableTOTP(ctx, u.ID, 10, now))

		got, err := users.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.TOTPEnabled())
		require.Equal(t, "SECOND", *got.TOTPSecret)
		require.Equal(t, uint64(10), *got.TOTPLastCounter)

		require.ErrorIs(t, users.SetPendingTOTPSecret(ctx, u.ID, "THIRD", now), store.ErrConflict)
		require.ErrorIs(t, users.EnableTOTP(ctx, u.ID, 11, now), store.ErrConflict)

		require.NoError(t, users.DisableTOTP(ctx, u.ID, now))
		got, err = users.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.TOTPEnabled())
		require.Nil(t, got.TOTPSecret)
		require.Nil(t, got.TOTPLastCounter)
	})

	t.Run("totp counter only moves forward", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "erin@example.com")
		users := s.Users()

		require.NoError(t, users.AdvanceTOTPCounter(ctx, u.ID, 100))
		require.ErrorIs(t, users.AdvanceTOTPCounter(ctx, u.ID, 100), store.ErrConflict)
		require.ErrorIs(t, users.AdvanceTOTPCounter(ctx, u.ID, 99), store.ErrConflict)
		require.NoError(t, users.AdvanceTOTPCounter(ctx, u.ID, 101))

		got, err := users.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(101), *got.TOTPLastCounter)
	})
}

func TestLoginAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	u := seedUser(t, s, "frank@example.com")
	now := time.Now().UTC().Truncate(time.Millisecond)
	attempts := s.LoginAttempts()

	a := domain.LoginAttempt{
		ID:         idx.New().String(),
		UserID:     u.ID,
		Stage:      domain.StageAwaitingTOTP,
		RememberMe: true,
		TargetPath: "/reports?id=7",
		IP:         "192.0.2.1",
		CreatedAt:  now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
	require.NoError(t, attempts.CreateLoginAttempt(ctx, a))

	got, err := attempts.GetLoginAttempt(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a, got)

	// One pending attempt per user.
	dup := a
	dup.ID = idx.New().String()
	require.ErrorIs(t, attempts.CreateLoginAttempt(ctx, dup), store.ErrAlreadyExists)

	require.ErrorIs(t, attempts.DeleteLoginAttempt(ctx, "missing"), store.ErrNotFound)

	n, err := attempts.DeleteExpiredLoginAttempts(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = attempts.DeleteExpiredLoginAttempts(ctx, a.ExpiresAt)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.ErrorIs(t, attempts.DeleteLoginAttempt(ctx, a.ID), store.ErrNotFound)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	u := seedUser(t, s, "grace@example.com")
	now := time.Now().UTC().Truncate(time.Millisecond)

	sess := domain.Session{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Level:     domain.LevelFull,
		AMR:       []string{domain.AMRPassword, domain.AMROTP},
		IP:        "192.0.2.1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	got, err := s.Sessions().GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess, got)

	require.NoError(t, s.Sessions().DeleteSessionsForUser(ctx, u.ID))
	_, err = s.Sessions().GetSession(ctx, sess.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRememberTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	u := seedUser(t, s, "heidi@example.com")
	now := time.Now().UTC().Truncate(time.Millisecond)
	tokens := s.RememberTokens()

	rt := domain.RememberToken{
		SeriesID:   "series-1",
		UserID:     u.ID,
		TokenHash:  "hash-1",
		CreatedAt:  now,
		LastUsedAt: now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
	require.NoError(t, tokens.CreateRememberToken(ctx, rt))
	require.ErrorIs(t, tokens.CreateRememberToken(ctx, rt), store.ErrAlreadyExists)

	later := now.Add(time.Minute)
	require.NoError(t, tokens.RotateRememberToken(ctx, rt.SeriesID, "hash-1", "hash-2", later, later.Add(time.Hour)))
	require.ErrorIs(t,
		tokens.RotateRememberToken(ctx, rt.SeriesID, "hash-1", "hash-3", later, later.Add(time.Hour)),
		store.ErrConflict, "stale hash must not rotate")

	got, err := tokens.GetRememberToken(ctx, rt.SeriesID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.TokenHash)
	require.True(t, later.Equal(got.LastUsedAt))

	second := rt
	second.SeriesID = "series-2"
	require.NoError(t, tokens.CreateRememberToken(ctx, second))

	n, err := tokens.DeleteRememberTokensForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	_, err = tokens.GetRememberToken(ctx, rt.SeriesID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rolls back on error", func(t *testing.T) {
		s := newTestStore(t)
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(tx store.Tx) error {
			now := time.Now()
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
				ID: idx.New().String(), Email: "tx@example.com", PasswordHash: "x",
				CreatedAt: now, UpdatedAt: now,
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commits on success", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "ivan@example.com")

		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().UpdatePasswordHash(ctx, u.ID, "committed", time.Now())
		})
		require.NoError(t, err)

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "committed", got.PasswordHash)
	})

	t.Run("nested transactions are refused", func(t *testing.T) {
		s := newTestStore(t)
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
