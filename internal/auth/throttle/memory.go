package throttle

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	attempts     int
	last         time.Time
	blockedUntil time.Time
}

// idleSince is when the key last saw an attempt or came out of a block.
func (e *entry) idleSince() time.Time {
	if e.blockedUntil.After(e.last) {
		return e.blockedUntil
	}
	return e.last
}

// Memory is a process-local Throttle.
type Memory struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemory returns a Throttle backed by a map guarded by one mutex.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Reserve(_ context.Context, key string) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}

	if now.Before(e.blockedUntil) {
		return &RateLimitedError{RetryAfter: e.blockedUntil.Sub(now)}
	}
	if !e.last.IsZero() && now.Sub(e.idleSince()) >= m.cfg.Window {
		*e = entry{}
	}

	e.attempts++
	e.last = now
	if d := m.cfg.delay(e.attempts); d > 0 {
		e.blockedUntil = now.Add(d)
	}
	return nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Sweep(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.entries {
		if now.Before(e.blockedUntil) || now.Sub(e.idleSince()) < m.cfg.Window {
			continue
		}
		delete(m.entries, k)
		n++
	}
	return n, nil
}

// Len reports the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ Throttle = (*Memory)(nil)
