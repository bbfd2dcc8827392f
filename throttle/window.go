package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowConfig configures a [Window] throttler.
type WindowConfig struct {
	// MaxPoints is the number of failures tolerated within one window.
	MaxPoints int
	// Window is the duration over which failure points accumulate.
	Window time.Duration
	// MaxBlock caps the doubling block duration. Defaults to one hour.
	MaxBlock time.Duration
	// Prefix namespaces the Redis keys. Defaults to "thrw".
	Prefix string
}

// Window is the point-based throttler variant: failures accumulate points
// inside a fixed window, and exceeding the budget blocks the key for a
// duration that doubles on every repeated violation.
type Window struct {
	redis  redis.UniversalClient
	config WindowConfig
	now    func() time.Time
}

// NewWindow validates cfg and returns a point-based throttler.
func NewWindow(redisClient redis.UniversalClient, cfg WindowConfig) (*Window, error) {
	if redisClient == nil {
		return nil, errors.New("throttle: redis client is required")
	}
	if cfg.MaxPoints <= 0 {
		return nil, errors.New("throttle: max points must be positive")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("throttle: window must be positive")
	}
	if cfg.MaxBlock <= 0 {
		cfg.MaxBlock = time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "thrw"
	}

	return &Window{redis: redisClient, config: cfg, now: time.Now}, nil
}

func (w *Window) pointsKey(key string) string    { return w.config.Prefix + ":p:" + key }
func (w *Window) blockKey(key string) string     { return w.config.Prefix + ":b:" + key }
func (w *Window) violationKey(key string) string { return w.config.Prefix + ":v:" + key }

// Check is allowed unless a block is active for key.
func (w *Window) Check(ctx context.Context, key string) (Decision, error) {
	until, err := w.redis.Get(ctx, w.blockKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Decision{Allowed: true}, nil
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	remaining := until - w.now().UnixMilli()
	if remaining <= 0 {
		return Decision{Allowed: true}, nil
	}

	return Decision{RetryAfter: time.Duration(remaining) * time.Millisecond}, nil
}

// Increment adds one failure point. Exceeding the budget installs a block
// whose duration doubles with every violation, capped at MaxBlock.
func (w *Window) Increment(ctx context.Context, key string) error {
	points, err := w.redis.Incr(ctx, w.pointsKey(key)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if points == 1 {
		if err := w.redis.Expire(ctx, w.pointsKey(key), w.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	if points <= int64(w.config.MaxPoints) {
		return nil
	}

	violations, err := w.redis.Incr(ctx, w.violationKey(key)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if violations == 1 {
		if err := w.redis.Expire(ctx, w.violationKey(key), 24*time.Hour).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	block := w.config.Window
	for i := int64(1); i < violations && block < w.config.MaxBlock; i++ {
		block *= 2
	}
	if block > w.config.MaxBlock {
		block = w.config.MaxBlock
	}

	until := w.now().Add(block).UnixMilli()
	if err := w.redis.Set(ctx, w.blockKey(key), until, block).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return nil
}

// Reset clears points, block, and violation history for key.
func (w *Window) Reset(ctx context.Context, key string) error {
	if err := w.redis.Del(ctx, w.pointsKey(key), w.blockKey(key), w.violationKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

var _ Throttler = (*Window)(nil)
