package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testConfig = Config{
	MaxAttempts: 3,
	Window:      time.Minute,
	BaseDelay:   time.Minute,
	MaxDelay:    4 * time.Minute,
}

func retryAfter(t *testing.T, err error) time.Duration {
	t.Helper()
	require.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	return rl.RetryAfter
}

// exerciseThrottle runs the behaviour every backend must share.
func exerciseThrottle(t *testing.T, th Throttle, clock *fakeClock) {
	ctx := context.Background()

	t.Run("blocks after max attempts", func(t *testing.T) {
		key := Key("Alice@Example.com", "192.0.2.1")
		for range testConfig.MaxAttempts {
			require.NoError(t, th.Reserve(ctx, key))
		}
		require.Equal(t, testConfig.Window, retryAfter(t, th.Reserve(ctx, key)))
	})

	t.Run("blocked for the whole window", func(t *testing.T) {
		key := Key("grace@example.com", "192.0.2.7")
		for range testConfig.MaxAttempts {
			require.NoError(t, th.Reserve(ctx, key))
		}

		clock.Advance(2 * time.Second)
		require.Equal(t, testConfig.Window-2*time.Second, retryAfter(t, th.Reserve(ctx, key)))

		clock.Advance(testConfig.Window - 3*time.Second)
		require.Equal(t, time.Second, retryAfter(t, th.Reserve(ctx, key)))
	})

	t.Run("backoff doubles up to the cap", func(t *testing.T) {
		key := Key("bob@example.com", "192.0.2.2")
		for range testConfig.MaxAttempts {
			require.NoError(t, th.Reserve(ctx, key))
		}

		for _, want := range []time.Duration{2 * time.Minute, 4 * time.Minute, 4 * time.Minute} {
			clock.Advance(retryAfter(t, th.Reserve(ctx, key)))
			require.NoError(t, th.Reserve(ctx, key))
			require.Equal(t, want, retryAfter(t, th.Reserve(ctx, key)))
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		key := Key("carol@example.com", "192.0.2.3")
		for range testConfig.MaxAttempts {
			require.NoError(t, th.Reserve(ctx, key))
		}
		require.Error(t, th.Reserve(ctx, key))
		require.NoError(t, th.Reserve(ctx, Key("carol@example.com", "192.0.2.4")))
		require.NoError(t, th.Reserve(ctx, Key("dave@example.com", "192.0.2.3")))
	})

	t.Run("reset clears the block", func(t *testing.T) {
		key := Key("erin@example.com", "192.0.2.5")
		for range testConfig.MaxAttempts {
			require.NoError(t, th.Reserve(ctx, key))
		}
		require.Error(t, th.Reserve(ctx, key))
		require.NoError(t, th.Reset(ctx, key))
		require.NoError(t, th.Reserve(ctx, key))
	})

	t.Run("window expiry forgets attempts", func(t *testing.T) {
		key := Key("frank@example.com", "192.0.2.6")
		for range testConfig.MaxAttempts - 1 {
			require.NoError(t, th.Reserve(ctx, key))
		}
		clock.Advance(testConfig.Window)
		for range testConfig.MaxAttempts - 1 {
			require.NoError(t, th.Reserve(ctx, key))
		}
		require.NoError(t, th.Reserve(ctx, key), "count restarted after the window")
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	exerciseThrottle(t, NewMemory(testConfig).WithClock(clock.Now), clock)
}

func TestMemorySweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	m := NewMemory(testConfig).WithClock(clock.Now)

	require.NoError(t, m.Reserve(ctx, "idle"))
	for range testConfig.MaxAttempts {
		require.NoError(t, m.Reserve(ctx, "blocked"))
	}
	require.Equal(t, 2, m.Len())

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	// The blocked key is kept for a window after its block ends.
	clock.Advance(testConfig.Window)
	n, err = m.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	clock.Advance(testConfig.Window)
	n, err = m.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Zero(t, m.Len())
}

func TestMemoryConcurrentReserve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := NewMemory(Config{MaxAttempts: 10, Window: time.Hour, BaseDelay: time.Hour, MaxDelay: time.Hour})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Reserve(ctx, "k") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, allowed)
}

func TestConfigDelay(t *testing.T) {
	c := testConfig
	require.Zero(t, c.delay(2))
	require.Equal(t, time.Minute, c.delay(3))
	require.Equal(t, 2*time.Minute, c.delay(4))
	require.Equal(t, 4*time.Minute, c.delay(5))
	require.Equal(t, 4*time.Minute, c.delay(60))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	require.Equal(t, DefaultConfig(), c)

	c = Config{Window: time.Hour, BaseDelay: time.Second, MaxDelay: time.Minute}.withDefaults()
	require.Equal(t, time.Hour, c.BaseDelay, "a block lasts at least the window")
	require.Equal(t, time.Hour, c.MaxDelay)
}

func TestKey(t *testing.T) {
	require.Equal(t, "alice@example.com|10.0.0.1", Key("  Alice@Example.COM ", "10.0.0.1"))
}
