// Package cache holds the per-day generation counters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/config"
)

// usageTTL keeps yesterday's key around across the UTC day boundary.
const usageTTL = 48 * time.Hour

// UsageCounter counts generations per user and UTC day.
type UsageCounter interface {
	UsedToday(ctx context.Context, userID string) (int64, error)
	// Reserve takes one slot of today's quota if fewer than limit are used.
	// It reports whether the slot was taken and the count after the call.
	Reserve(ctx context.Context, userID string, limit int64) (bool, int64, error)
	// Release returns a slot taken by Reserve. The count never drops below 0.
	Release(ctx context.Context, userID string) error
}

// NoopCounter never counts, so quota enforcement is decided by tier alone.
type NoopCounter struct{}

func (NoopCounter) UsedToday(context.Context, string) (int64, error) { return 0, nil }

func (NoopCounter) Reserve(context.Context, string, int64) (bool, int64, error) {
	return true, 0, nil
}

func (NoopCounter) Release(context.Context, string) error { return nil }

// reserveScript checks and increments in one step so concurrent requests
// cannot all pass the check before any of them counts.
var reserveScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
if used >= tonumber(ARGV[1]) then
	return {0, used}
end
used = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return {1, used}
`)

var releaseScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
if used > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

type RedisCounter struct {
	db  *redis.Client
	now func() time.Time
}

func NewRedisCounter(ctx context.Context, cfg config.RedisConfig) (*RedisCounter, error) {
	const op = "cache.NewRedisCounter"
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisCounter{db: db, now: time.Now}, nil
}

func (c *RedisCounter) key(userID string) string {
	return "usage:" + userID + ":" + c.now().UTC().Format(time.DateOnly)
}

func (c *RedisCounter) UsedToday(ctx context.Context, userID string) (int64, error) {
	const op = "cache.UsedToday"
	n, err := c.db.Get(ctx, c.key(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (c *RedisCounter) Reserve(ctx context.Context, userID string, limit int64) (bool, int64, error) {
	const op = "cache.Reserve"
	res, err := reserveScript.Run(ctx, c.db, []string{c.key(userID)}, limit, int64(usageTTL/time.Second)).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%s: unexpected reply %v", op, res)
	}
	return res[0] == 1, res[1], nil
}

func (c *RedisCounter) Release(ctx context.Context, userID string) error {
	const op = "cache.Release"
	if err := releaseScript.Run(ctx, c.db, []string{c.key(userID)}).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *RedisCounter) Close() error {
	return c.db.Close()
}

// New returns the redis counter when redis.addr is set, the no-op counter
// otherwise.
func New(lc fx.Lifecycle, cfg *config.Config, l *zap.SugaredLogger) (UsageCounter, error) {
	if cfg.Redis.Addr == "" {
		l.Infow("usage counter disabled, quota is tier-only")
		return NoopCounter{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := NewRedisCounter(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Infow("closing redis connection")
			return c.Close()
		},
	})
	l.Infow("usage counter ready", "addr", cfg.Redis.Addr)
	return c, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
