package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldLevel     = "level"
	fieldUpdatedAt = "updated_at"
)

// ProgressiveConfig configures a [Progressive] throttler.
type ProgressiveConfig struct {
	// Steps is the ordered, non-decreasing list of wait durations. The
	// level after the n-th failure indexes into this list; the last entry
	// applies to all further failures. The first entry is typically zero.
	Steps []time.Duration
	// TTL bounds counter lifetime so abandoned keys expire on their own.
	// Defaults to 24 hours.
	TTL time.Duration
	// Prefix namespaces the Redis keys. Defaults to "thr".
	Prefix string
}

// Progressive is a level-indexed exponential backoff throttler. Per-key
// state is a Redis hash {level, updated_at}; an attempt is allowed once the
// wait for the current level has elapsed since the last failure.
type Progressive struct {
	redis  redis.UniversalClient
	steps  []time.Duration
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewProgressive validates cfg and returns a throttler backed by the given
// Redis client.
func NewProgressive(redisClient redis.UniversalClient, cfg ProgressiveConfig) (*Progressive, error) {
	if redisClient == nil {
		return nil, errors.New("throttle: redis client is required")
	}
	if len(cfg.Steps) == 0 {
		return nil, errors.New("throttle: at least one backoff step is required")
	}
	for i, step := range cfg.Steps {
		if step < 0 {
			return nil, errors.New("throttle: backoff steps must be non-negative")
		}
		if i > 0 && step < cfg.Steps[i-1] {
			return nil, errors.New("throttle: backoff steps must be non-decreasing")
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "thr"
	}

	steps := make([]time.Duration, len(cfg.Steps))
	copy(steps, cfg.Steps)

	return &Progressive{
		redis:  redisClient,
		steps:  steps,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

func (p *Progressive) key(key string) string {
	return p.prefix + ":" + key
}

// Check is allowed when no counter exists, or when the wait for the current
// level has elapsed since the last recorded failure.
func (p *Progressive) Check(ctx context.Context, key string) (Decision, error) {
	state, err := p.redis.HGetAll(ctx, p.key(key)).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(state) == 0 {
		return Decision{Allowed: true}, nil
	}

	level, levelErr := strconv.Atoi(state[fieldLevel])
	updatedAt, updatedErr := strconv.ParseInt(state[fieldUpdatedAt], 10, 64)
	if levelErr != nil || updatedErr != nil || level < 0 {
		// Corrupt state counts as absent.
		return Decision{Allowed: true}, nil
	}
	if level >= len(p.steps) {
		level = len(p.steps) - 1
	}

	wait := p.steps[level].Milliseconds()
	elapsed := p.now().UnixMilli() - updatedAt
	if elapsed >= wait {
		return Decision{Allowed: true}, nil
	}

	return Decision{RetryAfter: time.Duration(wait-elapsed) * time.Millisecond}, nil
}

// Increment records a failure: the first failure sets level 0, later
// failures advance the level capped at the last step, and the timestamp is
// refreshed either way.
func (p *Progressive) Increment(ctx context.Context, key string) error {
	level := 0
	current, err := p.redis.HGet(ctx, p.key(key), fieldLevel).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	default:
		if parsed, parseErr := strconv.Atoi(current); parseErr == nil && parsed >= 0 {
			level = parsed + 1
			if level >= len(p.steps) {
				level = len(p.steps) - 1
			}
		}
	}

	if err := p.redis.HSet(ctx, p.key(key),
		fieldLevel, level,
		fieldUpdatedAt, p.now().UnixMilli(),
	).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := p.redis.Expire(ctx, p.key(key), p.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return nil
}

// Reset removes the counter for key.
func (p *Progressive) Reset(ctx context.Context, key string) error {
	if err := p.redis.Del(ctx, p.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

var _ Throttler = (*Progressive)(nil)
