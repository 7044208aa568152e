package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRememberService(t *testing.T) {
	t.Parallel()

	t.Run("validate rotates the token", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "alice@example.com")

		rt, err := env.remember.Issue(env.ctx(), u.ID)
		require.NoError(t, err)
		require.Equal(t, env.clock.Now().Add(DefaultRememberTTL), rt.ExpiresAt)

		stored, err := env.store.RememberTokens().GetRememberToken(env.ctx(), rt.SeriesID)
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(rt.Token), stored.TokenHash, "only the fingerprint is stored")

		env.clock.Advance(time.Hour)
		userID, next, err := env.remember.Validate(env.ctx(), rt.SeriesID, rt.Token, "192.0.2.1")
		require.NoError(t, err)
		require.Equal(t, u.ID, userID)
		require.Equal(t, rt.SeriesID, next.SeriesID)
		require.NotEqual(t, rt.Token, next.Token)
		require.Equal(t, env.clock.Now().Add(DefaultRememberTTL), next.ExpiresAt)

		userID, _, err = env.remember.Validate(env.ctx(), next.SeriesID, next.Token, "192.0.2.1")
		require.NoError(t, err)
		require.Equal(t, u.ID, userID)
	})

	t.Run("reuse revokes the series", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "alice@example.com")

		rt, err := env.remember.Issue(env.ctx(), u.ID)
		require.NoError(t, err)
		_, next, err := env.remember.Validate(env.ctx(), rt.SeriesID, rt.Token, "")
		require.NoError(t, err)

		_, _, err = env.remember.Validate(env.ctx(), rt.SeriesID, rt.Token, "203.0.113.9")
		require.ErrorIs(t, err, ErrTokenReused)

		require.Len(t, env.events.events, 1)
		ev := env.events.events[0]
		require.Equal(t, domain.EventRememberTokenReused, ev.Type)
		require.Equal(t, u.ID, ev.UserID)
		require.Equal(t, "203.0.113.9", ev.IP)
		require.Equal(t, rt.SeriesID, ev.Metadata["series_id"])

		_, _, err = env.remember.Validate(env.ctx(), next.SeriesID, next.Token, "")
		require.ErrorIs(t, err, ErrInvalidRememberToken)
	})

	t.Run("expired series", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "alice@example.com")

		rt, err := env.remember.Issue(env.ctx(), u.ID)
		require.NoError(t, err)

		env.clock.Advance(DefaultRememberTTL)
		_, _, err = env.remember.Validate(env.ctx(), rt.SeriesID, rt.Token, "")
		require.ErrorIs(t, err, ErrInvalidRememberToken)
		require.Empty(t, env.events.events)
	})

	t.Run("unknown series", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.remember.Validate(env.ctx(), "missing", "token", "")
		require.ErrorIs(t, err, ErrInvalidRememberToken)
	})

	t.Run("revoke all", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "alice@example.com")

		a, err := env.remember.Issue(env.ctx(), u.ID)
		require.NoError(t, err)
		_, err = env.remember.Issue(env.ctx(), u.ID)
		require.NoError(t, err)

		n, err := env.remember.RevokeAllForUser(env.ctx(), u.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		_, _, err = env.remember.Validate(env.ctx(), a.SeriesID, a.Token, "")
		require.ErrorIs(t, err, ErrInvalidRememberToken)
	})
}

func TestParseRememberCookie(t *testing.T) {
	series, token, ok := ParseRememberCookie(RememberToken{SeriesID: "s1", Token: "t1"}.CookieValue())
	require.True(t, ok)
	require.Equal(t, "s1", series)
	require.Equal(t, "t1", token)

	for _, bad := range []string{"", "nocolon", ":token", "series:"} {
		_, _, ok := ParseRememberCookie(bad)
		require.False(t, ok, "input %q", bad)
	}
}
