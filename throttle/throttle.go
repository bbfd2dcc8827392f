// Package throttle implements keyed backoff for credential guessing.
//
// Counters live in Redis and are deliberately fail-open: a missing or
// evicted counter is treated as "no prior failures". Only an unreachable
// backend surfaces as an error, so callers can distinguish the three
// outcomes (allowed, blocked with retry-after, backend error).
package throttle

import (
	"context"
	"errors"
	"time"
)

// ErrBackendUnavailable wraps Redis transport failures. It is distinct from
// a blocked decision so callers can apply different semantics.
var ErrBackendUnavailable = errors.New("throttle backend unavailable")

// Decision is the outcome of a Check call. RetryAfter is meaningful only
// when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Throttler accumulates failure state under opaque string keys, typically a
// normalized email or device identifier.
type Throttler interface {
	// Check reports whether an attempt under key may proceed.
	Check(ctx context.Context, key string) (Decision, error)
	// Increment records a failed attempt under key.
	Increment(ctx context.Context, key string) error
	// Reset clears all state for key after a verified success.
	Reset(ctx context.Context, key string) error
}
