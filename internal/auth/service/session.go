package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/idx"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
)

// DefaultLanding is where a login lands without a deep-link target.
const DefaultLanding = "/"

// Sessions mints and resolves session tokens. The token is a signed JWT
// carrying the session id; the session row is the source of truth so a
// logout takes effect before the token expires.
type Sessions struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier *jwtx.Verifier
	Issuer   string
	Audience []string
	TTL      time.Duration
	Now      func() time.Time
}

// Identity is a resolved session.
type Identity struct {
	Session domain.Session
	Email   string
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// mint stores a session through repo (which may be transaction scoped) and
// returns its signed token.
func (s *Sessions) mint(
	ctx context.Context,
	repo store.Store,
	u domain.User,
	level domain.Level,
	amr []string,
	ip string,
) (domain.Session, string, error) {
	now := s.now()

	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		Level:     level,
		AMR:       amr,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	token, err := s.Signer.Sign(jwtx.NewSessionClaims(
		u.ID, sess.ID, string(level), u.Email, amr,
		s.Issuer, s.Audience, now, sess.ExpiresAt,
	))
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("session: sign: %w", err)
	}

	if err := repo.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.Session{}, "", fmt.Errorf("session: create: %w", err)
	}
	return sess, token, nil
}

// Authenticate verifies a session token and loads its session.
func (s *Sessions) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return Identity{}, ErrSessionExpired
		}
		return Identity{}, err
	}

	sess, err := s.Store.Sessions().GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, ErrSessionExpired
		}
		return Identity{}, err
	}
	if sess.UserID != claims.Subject || sess.Expired(s.now()) {
		return Identity{}, ErrSessionExpired
	}

	return Identity{Session: sess, Email: claims.Email}, nil
}

// End deletes a session. Unknown sessions are ignored.
func (s *Sessions) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// SanitizeTarget returns target if it is a local absolute path, else fallback.
// Scheme-relative ("//host") and backslash forms are refused since browsers
// treat them as other origins.
func SanitizeTarget(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
