package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/internal/auth/throttle"
)

// HousekeepingService periodically deletes expired login attempts, sessions
// and remember-me series, and sweeps idle throttle entries.
type HousekeepingService struct {
	Store    store.Store
	Throttle throttle.Throttle // optional
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	st store.Store,
	th throttle.Throttle,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Throttle: th,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.Cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			s.Cleanup(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// CleanupReport counts what a Cleanup pass removed.
type CleanupReport struct {
	LoginAttempts  int64
	Sessions       int64
	RememberTokens int64
	ThrottleKeys   int
}

// Cleanup runs one pass. Each deletion is independent; a failure is logged
// and the rest still run.
func (s *HousekeepingService) Cleanup(ctx context.Context) CleanupReport {
	now := s.Now().UTC()
	var r CleanupReport
	var err error

	if r.LoginAttempts, err = s.Store.LoginAttempts().DeleteExpiredLoginAttempts(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired login attempts", "error", err)
	}
	if r.Sessions, err = s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}
	if r.RememberTokens, err = s.Store.RememberTokens().DeleteExpiredRememberTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired remember-me tokens", "error", err)
	}
	if s.Throttle != nil {
		if r.ThrottleKeys, err = s.Throttle.Sweep(ctx); err != nil {
			s.Logger.Error("failed to sweep throttle", "error", err)
		}
	}

	s.Logger.Info("housekeeping cleanup completed",
		"login_attempts", r.LoginAttempts,
		"sessions", r.Sessions,
		"remember_tokens", r.RememberTokens,
		"throttle_keys", r.ThrottleKeys,
	)
	return r
}
