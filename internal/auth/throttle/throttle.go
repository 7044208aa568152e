// Package throttle counts failed login attempts per (identifier, IP) pair and
// blocks the pair with an exponential backoff once a threshold is reached.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimited is matched by every *RateLimitedError.
var ErrRateLimited = errors.New("throttle: too many attempts")

// RateLimitedError carries how long the caller must wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("throttle: too many attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// Config tunes the throttle.
type Config struct {
	// MaxAttempts is the number of attempts allowed before the key is blocked.
	MaxAttempts int
	// Window is how long a key stays remembered after its last attempt or
	// the end of its last block.
	Window time.Duration
	// BaseDelay is the first block, doubled for every further attempt. It is
	// never shorter than Window.
	BaseDelay time.Duration
	// MaxDelay caps the block.
	MaxDelay time.Duration
}

// DefaultConfig allows five attempts, then blocks for 15m, 30m, 1h... up to
// a day.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		BaseDelay:   15 * time.Minute,
		MaxDelay:    24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.BaseDelay < c.Window {
		c.BaseDelay = c.Window
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// delay returns the block applied after the given attempt count.
func (c Config) delay(attempts int) time.Duration {
	if attempts < c.MaxAttempts {
		return 0
	}
	d := c.BaseDelay
	for i := c.MaxAttempts; i < attempts; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(d, c.MaxDelay)
}

// Throttle is implemented by the memory and Redis backends.
type Throttle interface {
	// Reserve counts an attempt for key. It returns a *RateLimitedError
	// without counting when the key is currently blocked.
	Reserve(ctx context.Context, key string) error

	// Reset forgets key, typically after a successful login.
	Reset(ctx context.Context, key string) error

	// Sweep drops entries that are neither blocked nor inside the window.
	Sweep(ctx context.Context) (int, error)
}

// Key builds the throttle key for a login identifier and client IP.
func Key(identifier, ip string) string {
	return strings.ToLower(strings.TrimSpace(identifier)) + "|" + ip
}
