package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/events"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// DefaultRememberTTL is how long an unused remember-me series stays valid.
const DefaultRememberTTL = 30 * 24 * time.Hour

// RememberService manages remember-me series. Each series holds one live
// token; every successful use swaps it for a new one. Presenting a token the
// series no longer holds means the cookie was copied, so the whole series is
// revoked.
type RememberService struct {
	Store  store.Store
	Events events.Sink
	TTL    time.Duration
	Now    func() time.Time
}

// RememberToken is the plaintext handed to the client.
type RememberToken struct {
	SeriesID  string
	Token     string
	ExpiresAt time.Time
}

// CookieValue encodes the token as "seriesID:token".
func (t RememberToken) CookieValue() string {
	return t.SeriesID + ":" + t.Token
}

// ParseRememberCookie splits a "seriesID:token" cookie value.
func ParseRememberCookie(v string) (seriesID, token string, ok bool) {
	seriesID, token, ok = strings.Cut(v, ":")
	if !ok || seriesID == "" || token == "" {
		return "", "", false
	}
	return seriesID, token, true
}

func (s *RememberService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultRememberTTL
	}
	return s.TTL
}

func (s *RememberService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue starts a new series for userID.
func (s *RememberService) Issue(ctx context.Context, userID string) (RememberToken, error) {
	now := s.now()

	seriesID, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return RememberToken{}, err
	}
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return RememberToken{}, err
	}

	rt := domain.RememberToken{
		SeriesID:   seriesID,
		UserID:     userID,
		TokenHash:  cryptox.FingerprintToken(token),
		CreatedAt:  now,
		LastUsedAt: now,
		ExpiresAt:  now.Add(s.ttl()),
	}
	if err := s.Store.RememberTokens().CreateRememberToken(ctx, rt); err != nil {
		return RememberToken{}, fmt.Errorf("remember: create series: %w", err)
	}

	return RememberToken{SeriesID: seriesID, Token: token, ExpiresAt: rt.ExpiresAt}, nil
}

// Validate checks token against its series and rotates it. It returns the
// owning user and the replacement token; the presented token is dead from
// here on.
func (s *RememberService) Validate(ctx context.Context, seriesID, token, ip string) (string, RememberToken, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	rt, err := s.Store.RememberTokens().GetRememberToken(ctx, seriesID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", RememberToken{}, ErrInvalidRememberToken
		}
		return "", RememberToken{}, err
	}

	if !now.Before(rt.ExpiresAt) {
		_ = s.Store.RememberTokens().DeleteRememberToken(ctx, seriesID)
		return "", RememberToken{}, ErrInvalidRememberToken
	}

	if !cryptox.EqualFingerprint(token, rt.TokenHash) {
		return "", RememberToken{}, s.revokeStolen(ctx, rt, ip, now)
	}

	next, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", RememberToken{}, err
	}
	expiresAt := now.Add(s.ttl())

	err = s.Store.RememberTokens().RotateRememberToken(ctx,
		seriesID, rt.TokenHash, cryptox.FingerprintToken(next), now, expiresAt)
	if errors.Is(err, store.ErrConflict) {
		// Another request rotated the series between our read and write with
		// the same token.
		return "", RememberToken{}, s.revokeStolen(ctx, rt, ip, now)
	}
	if err != nil {
		return "", RememberToken{}, fmt.Errorf("remember: rotate: %w", err)
	}

	l.Debug("remember-me token rotated", "user_id", rt.UserID)
	return rt.UserID, RememberToken{SeriesID: seriesID, Token: next, ExpiresAt: expiresAt}, nil
}

func (s *RememberService) revokeStolen(ctx context.Context, rt domain.RememberToken, ip string, now time.Time) error {
	l := slogx.FromContext(ctx)

	if err := s.Store.RememberTokens().DeleteRememberToken(ctx, rt.SeriesID); err != nil {
		l.Error("failed to revoke reused remember-me series", "error", err)
	}

	ev := domain.SecurityEvent{
		Type:     domain.EventRememberTokenReused,
		UserID:   rt.UserID,
		IP:       ip,
		At:       now,
		Metadata: map[string]string{"series_id": rt.SeriesID},
	}
	if s.Events != nil {
		if err := s.Events.Emit(ctx, ev); err != nil {
			l.Error("failed to emit security event", "event", ev.Type, "error", err)
		}
	}
	return ErrTokenReused
}

// Revoke deletes one series. Unknown series are ignored.
func (s *RememberService) Revoke(ctx context.Context, seriesID string) error {
	if seriesID == "" {
		return nil
	}
	return s.Store.RememberTokens().DeleteRememberToken(ctx, seriesID)
}

// RevokeAllForUser deletes every series of userID.
func (s *RememberService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.Store.RememberTokens().DeleteRememberTokensForUser(ctx, userID)
}
