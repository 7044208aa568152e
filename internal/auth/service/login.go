package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/events"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/internal/auth/throttle"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/idx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
	"github.com/aussiebroadwan/tabgate/pkg/totpx"
)

// DefaultAttemptTTL bounds how long a TOTP challenge stays open.
const DefaultAttemptTTL = 5 * time.Minute

// LoginService drives the login state machine:
//
//	start -> credentials_checked -> awaiting_totp -> authenticated
//
// with any step able to end in failed. A failed attempt is gone for good: a
// wrong code sends the user back to the password form.
type LoginService struct {
	Store    store.Store
	Hasher   *cryptox.PasswordHasher
	TOTP     *totpx.Engine
	Throttle throttle.Throttle
	Sessions *Sessions
	Remember *RememberService
	Events   events.Sink

	AttemptTTL     time.Duration
	DefaultLanding string
	Now            func() time.Time
}

// CredentialsRequest is a submitted login form.
type CredentialsRequest struct {
	Email      string
	Password   string
	IP         string
	RememberMe bool
	TargetPath string
}

// TOTPRequest is a submitted second-factor form.
type TOTPRequest struct {
	AttemptID string
	Code      string
	IP        string
}

// LoginResult describes an authenticated login.
type LoginResult struct {
	Stage        domain.Stage
	User         domain.User
	Session      domain.Session
	SessionToken string

	// Remember is set when a remember-me series was issued or rotated.
	Remember *RememberToken

	RedirectTo string
}

func (s *LoginService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *LoginService) landing() string {
	if s.DefaultLanding == "" {
		return DefaultLanding
	}
	return s.DefaultLanding
}

func (s *LoginService) attemptTTL() time.Duration {
	if s.AttemptTTL <= 0 {
		return DefaultAttemptTTL
	}
	return s.AttemptTTL
}

func (s *LoginService) emit(ctx context.Context, ev domain.SecurityEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Emit(ctx, ev); err != nil {
		slogx.FromContext(ctx).Error("failed to emit security event", "event", ev.Type, "error", err)
	}
}

// SubmitCredentials checks an email and password. Users without TOTP are
// authenticated straight away; users with TOTP get a *TOTPRequiredError
// carrying the attempt to complete with SubmitTOTP.
func (s *LoginService) SubmitCredentials(ctx context.Context, req CredentialsRequest) (*LoginResult, error) {
	now := s.now()
	l := slogx.FromContext(ctx)
	email := domain.NormalizeEmail(req.Email)
	stage := domain.StageStart

	// The attempt is counted before any password work so a blocked key
	// costs nothing.
	key := throttle.Key(email, req.IP)
	if err := s.reserve(ctx, key, email, req.IP); err != nil {
		return nil, err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.DummyVerify(req.Password)
			l.Info("login failed", "reason", "unknown_principal", "ip", req.IP)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.Hasher.Verify(req.Password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", "user_id", u.ID, "error", err)
		}
		l.Info("login failed", "reason", "bad_password", "user_id", u.ID, "ip", req.IP)
		return nil, ErrInvalidCredentials
	}
	stage, _ = stage.Advance(domain.StageCredentialsChecked)
	s.rehashIfNeeded(ctx, u, req.Password)

	target := SanitizeTarget(req.TargetPath, s.landing())

	// The key stays counted until the second factor is presented too.
	if !u.TOTPEnabled() {
		s.resetThrottle(ctx, key)
		return s.complete(ctx, u, stage, req.RememberMe, req.IP, target)
	}

	stage, _ = stage.Advance(domain.StageAwaitingTOTP)
	attempt := domain.LoginAttempt{
		ID:         idx.NewAt(now).String(),
		UserID:     u.ID,
		Stage:      stage,
		RememberMe: req.RememberMe,
		TargetPath: target,
		IP:         req.IP,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.attemptTTL()),
	}

	// A new login replaces whatever challenge the user had open.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.LoginAttempts().DeleteLoginAttemptsForUser(ctx, u.ID); err != nil {
			return err
		}
		return tx.LoginAttempts().CreateLoginAttempt(ctx, attempt)
	})
	if err != nil {
		return nil, fmt.Errorf("login: create attempt: %w", err)
	}

	l.Info("password accepted, awaiting TOTP", "user_id", u.ID)
	return nil, &TOTPRequiredError{AttemptID: attempt.ID, ExpiresAt: attempt.ExpiresAt}
}

// SubmitTOTP completes a pending attempt with a TOTP code. Any invalid or
// replayed code ends the attempt and counts as a failure against the same
// throttle key as the password.
func (s *LoginService) SubmitTOTP(ctx context.Context, req TOTPRequest) (*LoginResult, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	attempt, err := s.Store.LoginAttempts().GetLoginAttempt(ctx, req.AttemptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAttemptExpired
		}
		return nil, err
	}

	if attempt.Expired(now) {
		_ = s.Store.LoginAttempts().DeleteLoginAttempt(ctx, attempt.ID)
		return nil, ErrAttemptExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, attempt.UserID)
	if err != nil {
		return nil, err
	}
	if !u.TOTPEnabled() {
		// TOTP was switched off while the challenge was open.
		_ = s.Store.LoginAttempts().DeleteLoginAttempt(ctx, attempt.ID)
		return nil, ErrAttemptExpired
	}

	counter, ok := s.TOTP.ValidateAfter(*u.TOTPSecret, req.Code, now, u.TOTPLastCounter)
	if !ok {
		return nil, s.failTOTP(ctx, attempt, u.Email, req.IP)
	}

	stage, err := attempt.Stage.Advance(domain.StageAuthenticated)
	if err != nil {
		return nil, err
	}

	amr := []string{domain.AMRPassword, domain.AMROTP}
	var (
		sess  domain.Session
		token string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().AdvanceTOTPCounter(ctx, u.ID, counter); err != nil {
			return err
		}
		if err := tx.LoginAttempts().DeleteLoginAttempt(ctx, attempt.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAttemptExpired
			}
			return err
		}
		var mintErr error
		sess, token, mintErr = s.Sessions.mint(ctx, tx, u, domain.LevelFull, amr, req.IP)
		return mintErr
	})
	switch {
	case errors.Is(err, store.ErrConflict):
		// The same step was accepted concurrently.
		return nil, s.failTOTP(ctx, attempt, u.Email, req.IP)
	case err != nil:
		return nil, err
	}

	s.resetThrottle(ctx, throttle.Key(u.Email, req.IP))

	res := &LoginResult{
		Stage:        stage,
		User:         u,
		Session:      sess,
		SessionToken: token,
		RedirectTo:   SanitizeTarget(attempt.TargetPath, s.landing()),
	}
	if attempt.RememberMe {
		s.issueRemember(ctx, res)
	}

	l.Info("login completed", "user_id", u.ID, "amr", amr)
	return res, nil
}

// failTOTP moves the attempt to failed, which deletes it, and counts the
// failure. The caller gets ErrInvalidTOTPCode even when the key is now
// blocked; the next password submission reports the block.
func (s *LoginService) failTOTP(ctx context.Context, attempt domain.LoginAttempt, email, ip string) error {
	l := slogx.FromContext(ctx)

	if err := s.reserve(ctx, throttle.Key(email, ip), email, ip); err != nil && !errors.Is(err, throttle.ErrRateLimited) {
		l.Warn("failed to count TOTP failure", "error", err)
	}
	if err := s.Store.LoginAttempts().DeleteLoginAttempt(ctx, attempt.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		l.Error("failed to delete login attempt", "attempt_id", attempt.ID, "error", err)
	}
	l.Warn("TOTP validation failed", "user_id", attempt.UserID, "ip", ip)
	s.emit(ctx, domain.SecurityEvent{
		Type:   domain.EventTOTPRejected,
		UserID: attempt.UserID,
		IP:     ip,
		At:     s.now(),
	})
	return ErrInvalidTOTPCode
}

// reserve counts one login attempt for key and reports a block.
func (s *LoginService) reserve(ctx context.Context, key, email, ip string) error {
	err := s.Throttle.Reserve(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, throttle.ErrRateLimited):
		slogx.FromContext(ctx).Warn("login throttled", "email", email, "ip", ip)
		s.emit(ctx, domain.SecurityEvent{
			Type:     domain.EventLoginRateLimited,
			IP:       ip,
			At:       s.now(),
			Metadata: map[string]string{"email": email},
		})
		return err
	default:
		return fmt.Errorf("login: throttle: %w", err)
	}
}

func (s *LoginService) resetThrottle(ctx context.Context, key string) {
	if err := s.Throttle.Reset(ctx, key); err != nil {
		slogx.FromContext(ctx).Warn("failed to reset login throttle", "error", err)
	}
}

// complete authenticates a user that needs no second factor.
func (s *LoginService) complete(
	ctx context.Context,
	u domain.User,
	stage domain.Stage,
	rememberMe bool,
	ip, target string,
) (*LoginResult, error) {
	stage, err := stage.Advance(domain.StageAuthenticated)
	if err != nil {
		return nil, err
	}

	sess, token, err := s.Sessions.mint(ctx, s.Store, u, domain.LevelFull, []string{domain.AMRPassword}, ip)
	if err != nil {
		return nil, err
	}

	res := &LoginResult{
		Stage:        stage,
		User:         u,
		Session:      sess,
		SessionToken: token,
		RedirectTo:   target,
	}
	if rememberMe {
		s.issueRemember(ctx, res)
	}

	slogx.FromContext(ctx).Info("login completed", "user_id", u.ID, "amr", sess.AMR)
	return res, nil
}

// issueRemember attaches a remember-me series to res. Failure only costs the
// user the convenience, so the login still succeeds.
func (s *LoginService) issueRemember(ctx context.Context, res *LoginResult) {
	if s.Remember == nil {
		return
	}
	rt, err := s.Remember.Issue(ctx, res.User.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to issue remember-me token", "error", err)
		return
	}
	res.Remember = &rt
}

// ResumeRemembered signs a user back in from a remember-me cookie. The
// resulting session is password level since no factor was presented.
func (s *LoginService) ResumeRemembered(ctx context.Context, cookie, ip string) (*LoginResult, error) {
	seriesID, token, ok := ParseRememberCookie(cookie)
	if !ok || s.Remember == nil {
		return nil, ErrInvalidRememberToken
	}

	userID, rotated, err := s.Remember.Validate(ctx, seriesID, token, ip)
	if err != nil {
		return nil, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRememberToken
		}
		return nil, err
	}

	sess, tok, err := s.Sessions.mint(ctx, s.Store, u, domain.LevelPassword, []string{domain.AMRRemember}, ip)
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("session resumed from remember-me", "user_id", u.ID)
	return &LoginResult{
		Stage:        domain.StageAuthenticated,
		User:         u,
		Session:      sess,
		SessionToken: tok,
		Remember:     &rotated,
		RedirectTo:   s.landing(),
	}, nil
}

// Logout ends the session and revokes the remember-me series, either of
// which may be empty.
func (s *LoginService) Logout(ctx context.Context, sessionID, seriesID string) error {
	if err := s.Sessions.End(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: session: %w", err)
	}
	if s.Remember != nil {
		if err := s.Remember.Revoke(ctx, seriesID); err != nil {
			return fmt.Errorf("logout: remember: %w", err)
		}
	}
	return nil
}

// Authenticate resolves a session token.
func (s *LoginService) Authenticate(ctx context.Context, token string) (Identity, error) {
	return s.Sessions.Authenticate(ctx, token)
}

func (s *LoginService) rehashIfNeeded(ctx context.Context, u domain.User, password string) {
	if !s.Hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, s.now()); err != nil {
		l.Warn("password rehash failed", "user_id", u.ID, "error", err)
	}
}
