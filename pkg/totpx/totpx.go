// Package totpx implements RFC 6238 time-based one-time passwords on top of
// github.com/pquerna/otp, exposing the matched time step so callers can
// reject replays.
package totpx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// Defaults mandated for interoperability with common authenticator apps.
const (
	DefaultPeriod     = 30 * time.Second
	DefaultSkew       = 1
	DefaultSecretSize = 20 // 160 bits
)

var (
	ErrInvalidSecret = errors.New("totpx: invalid secret")
	ErrEmptyAccount  = errors.New("totpx: account name required")
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine generates and validates TOTP codes. The zero value is not usable;
// construct with New.
type Engine struct {
	Issuer string
	Period time.Duration
	Skew   uint
	Digits otp.Digits
}

// New returns an Engine with 30 second steps, six digits, SHA-1 and a
// tolerance of one step either side.
func New(issuer string) *Engine {
	return &Engine{
		Issuer: issuer,
		Period: DefaultPeriod,
		Skew:   DefaultSkew,
		Digits: otp.DigitsSix,
	}
}

// GenerateSecret returns a fresh 160-bit secret encoded as unpadded base32.
func (e *Engine) GenerateSecret() (string, error) {
	buf := make([]byte, DefaultSecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totpx: generate secret: %w", err)
	}
	return b32NoPadding.EncodeToString(buf), nil
}

// Counter returns the time step containing t.
func (e *Engine) Counter(t time.Time) uint64 {
	return uint64(t.Unix()) / uint64(e.Period.Seconds()) // #nosec G115
}

// CodeAt returns the code for an explicit time step.
func (e *Engine) CodeAt(secret string, counter uint64) (string, error) {
	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    e.Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return code, nil
}

// Code returns the code valid at t.
func (e *Engine) Code(secret string, t time.Time) (string, error) {
	return e.CodeAt(secret, e.Counter(t))
}

// Validate checks code against the steps within the skew window around t and
// returns the matched step. Each candidate is compared in constant time.
func (e *Engine) Validate(secret, code string, t time.Time) (uint64, bool) {
	return e.ValidateAfter(secret, code, t, nil)
}

// ValidateAfter is Validate restricted to steps strictly greater than last.
// A nil last accepts any step in the window.
func (e *Engine) ValidateAfter(secret, code string, t time.Time, last *uint64) (uint64, bool) {
	code = strings.TrimSpace(code)
	if len(code) != e.Digits.Length() {
		return 0, false
	}

	current := e.Counter(t)
	lo := current
	if lo >= uint64(e.Skew) {
		lo -= uint64(e.Skew)
	} else {
		lo = 0
	}
	hi := current + uint64(e.Skew)

	var (
		matched uint64
		found   bool
	)
	for c := lo; c <= hi; c++ {
		want, err := e.CodeAt(secret, c)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
			continue
		}
		if last != nil && c <= *last {
			continue
		}
		if !found {
			matched, found = c, true
		}
	}
	return matched, found
}

// key builds the otp.Key for an existing secret so the library renders the
// provisioning URI and QR image.
func (e *Engine) key(secret, account string) (*otp.Key, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	raw, err := b32NoPadding.DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidSecret
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.Issuer,
		AccountName: account,
		Period:      uint(e.Period.Seconds()),
		Secret:      raw,
		Digits:      e.Digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("totpx: build key: %w", err)
	}
	return key, nil
}

// ProvisioningURI returns the otpauth://totp/ URI an authenticator app scans.
func (e *Engine) ProvisioningURI(secret, account string) (string, error) {
	key, err := e.key(secret, account)
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// QRImage renders the provisioning URI as a square QR code.
func (e *Engine) QRImage(secret, account string, size int) (image.Image, error) {
	key, err := e.key(secret, account)
	if err != nil {
		return nil, err
	}
	return key.Image(size, size)
}
