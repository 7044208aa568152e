package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/events"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/idx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// DefaultMinPasswordLength is the shortest password Register accepts.
const DefaultMinPasswordLength = 12

type UserService struct {
	Store    store.Store
	Hasher   *cryptox.PasswordHasher
	Remember *RememberService
	Events   events.Sink

	MinPasswordLength int
	Now               func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *UserService) checkPassword(password string) error {
	minLen := s.MinPasswordLength
	if minLen <= 0 {
		minLen = DefaultMinPasswordLength
	}
	if utf8.RuneCountInString(password) < minLen {
		return ErrWeakPassword
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates a user with TOTP disabled.
func (s *UserService) Register(ctx context.Context, email, password string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if !validEmail(email) {
		return domain.User{}, ErrInvalidEmail
	}
	if err := s.checkPassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ChangePassword replaces the password after checking the current one and
// revokes every remember-me series of the user.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Hasher.Verify(current, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.checkPassword(next); err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(next)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash, now); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.Remember != nil {
		n, err := s.Remember.RevokeAllForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to revoke remember-me tokens: %w", err)
		}
		l.Info("password changed", "user_id", userID, "revoked_series", n)
	}

	if s.Events != nil {
		ev := domain.SecurityEvent{Type: domain.EventPasswordChanged, UserID: userID, At: now}
		if err := s.Events.Emit(ctx, ev); err != nil {
			l.Error("failed to emit security event", "event", ev.Type, "error", err)
		}
	}
	return nil
}
