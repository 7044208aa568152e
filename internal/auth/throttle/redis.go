package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "tabgate:throttle:"

// reserveScript mirrors Memory.Reserve. It returns the remaining block in
// milliseconds, or 0 when the attempt was counted.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local max_attempts = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local base = tonumber(ARGV[4])
local cap = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'attempts', 'last', 'blocked_until')
local attempts = tonumber(state[1]) or 0
local last = tonumber(state[2]) or 0
local blocked_until = tonumber(state[3]) or 0

if blocked_until > now then
    return blocked_until - now
end

local idle_since = last
if blocked_until > idle_since then
    idle_since = blocked_until
end

if last > 0 and now - idle_since >= window then
    attempts = 0
    blocked_until = 0
end

attempts = attempts + 1
if attempts >= max_attempts then
    local delay = base
    for i = max_attempts + 1, attempts do
        delay = delay * 2
        if delay >= cap then
            break
        end
    end
    if delay > cap then
        delay = cap
    end
    blocked_until = now + delay
end

redis.call('HSET', key, 'attempts', attempts, 'last', now, 'blocked_until', blocked_until)
local ttl = window
if blocked_until > now then
    ttl = window + blocked_until - now
end
redis.call('PEXPIRE', key, ttl)
return 0
`)

// Redis is a Throttle shared between replicas. Entries expire on their own.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

// NewRedis returns a Throttle that keeps its counters in Redis.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{client: client, cfg: cfg.withDefaults(), now: time.Now}
}

// WithClock replaces the time source.
func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

func (r *Redis) Reserve(ctx context.Context, key string) error {
	wait, err := reserveScript.Run(ctx, r.client, []string{redisPrefix + key},
		r.now().UnixMilli(),
		r.cfg.MaxAttempts,
		r.cfg.Window.Milliseconds(),
		r.cfg.BaseDelay.Milliseconds(),
		r.cfg.MaxDelay.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("throttle: reserve: %w", err)
	}
	if wait > 0 {
		return &RateLimitedError{RetryAfter: time.Duration(wait) * time.Millisecond}
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("throttle: reset: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires idle keys itself.
func (r *Redis) Sweep(context.Context) (int, error) { return 0, nil }

var _ Throttle = (*Redis)(nil)

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
