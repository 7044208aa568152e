package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/events"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
	"github.com/aussiebroadwan/tabgate/pkg/totpx"
)

// MFAService handles TOTP enrollment. A secret is stored unconfirmed by
// Enable and only becomes required at login once Confirm has seen a code
// generated from it.
type MFAService struct {
	Store  store.Store
	TOTP   *totpx.Engine
	Events events.Sink
	Now    func() time.Time
}

// Enrollment is what an authenticator app needs to register the account.
type Enrollment struct {
	Secret  string `json:"secret"`
	URI     string `json:"uri"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MFAService) emit(ctx context.Context, typ, userID string) {
	if s.Events == nil {
		return
	}
	ev := domain.SecurityEvent{Type: typ, UserID: userID, At: s.now()}
	if err := s.Events.Emit(ctx, ev); err != nil {
		slogx.FromContext(ctx).Error("failed to emit security event", "event", typ, "error", err)
	}
}

// Enable generates a fresh secret for a user that has not enabled TOTP,
// replacing any unconfirmed one.
func (s *MFAService) Enable(ctx context.Context, userID string) (Enrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to get user: %w", err)
	}
	if u.TOTPEnabled() {
		return Enrollment{}, ErrTOTPAlreadyEnabled
	}

	secret, err := s.TOTP.GenerateSecret()
	if err != nil {
		return Enrollment{}, err
	}

	if err := s.Store.Users().SetPendingTOTPSecret(ctx, userID, secret, s.now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Enrollment{}, ErrTOTPAlreadyEnabled
		}
		return Enrollment{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	uri, err := s.TOTP.ProvisioningURI(secret, u.Email)
	if err != nil {
		return Enrollment{}, err
	}

	slogx.FromContext(ctx).Info("TOTP enrollment started", "user_id", userID)
	return Enrollment{Secret: secret, URI: uri, Issuer: s.TOTP.Issuer, Account: u.Email}, nil
}

func (s *MFAService) enrolledSecret(ctx context.Context, userID string) (domain.User, string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("failed to get user: %w", err)
	}
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return domain.User{}, "", ErrTOTPNotEnrolled
	}
	return u, *u.TOTPSecret, nil
}

// ProvisioningURI returns the otpauth:// URI for the stored secret.
func (s *MFAService) ProvisioningURI(ctx context.Context, userID string) (string, error) {
	u, secret, err := s.enrolledSecret(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.TOTP.ProvisioningURI(secret, u.Email)
}

// QRCode renders the provisioning URI as a size x size image.
func (s *MFAService) QRCode(ctx context.Context, userID string, size int) (image.Image, error) {
	u, secret, err := s.enrolledSecret(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.TOTP.QRImage(secret, u.Email, size)
}

// Confirm checks a code against the unconfirmed secret and enables TOTP.
func (s *MFAService) Confirm(ctx context.Context, userID, code string) error {
	u, secret, err := s.enrolledSecret(ctx, userID)
	if err != nil {
		return err
	}
	if u.TOTPEnabled() {
		return ErrTOTPAlreadyEnabled
	}

	now := s.now()
	counter, ok := s.TOTP.Validate(secret, code, now)
	if !ok {
		return ErrInvalidTOTPCode
	}

	// The confirming step counts as used so it cannot also log in.
	if err := s.Store.Users().EnableTOTP(ctx, userID, counter, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrTOTPNotEnrolled
		}
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}

	slogx.FromContext(ctx).Info("TOTP enabled", "user_id", userID)
	s.emit(ctx, domain.EventTOTPEnabled, userID)
	return nil
}

// Disable turns TOTP off after checking a current code.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !u.TOTPEnabled() {
		return ErrTOTPNotEnabled
	}

	now := s.now()
	counter, ok := s.TOTP.ValidateAfter(*u.TOTPSecret, code, now, u.TOTPLastCounter)
	if !ok {
		return ErrInvalidTOTPCode
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().AdvanceTOTPCounter(ctx, userID, counter); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTOTPCode
			}
			return err
		}
		if err := tx.Users().DisableTOTP(ctx, userID, now); err != nil {
			return fmt.Errorf("failed to disable TOTP: %w", err)
		}
		return tx.LoginAttempts().DeleteLoginAttemptsForUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("TOTP disabled", "user_id", userID)
	s.emit(ctx, domain.EventTOTPDisabled, userID)
	return nil
}
