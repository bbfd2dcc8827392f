package slip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/slipauth/slip/store"
	"github.com/slipauth/slip/throttle"
)

// testClock is a manually advanced clock shared by the core and the fake
// throttler in a test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// plainHasher is a transparent credential hasher for tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) Verify(digest, password string) (bool, error) {
	return digest == "plain:"+password, nil
}

// seqIDs produces deterministic identifiers.
type seqIDs struct {
	mu       sync.Mutex
	users    int
	sessions int
	codes    int
	tokens   int
}

func (g *seqIDs) UserID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users++
	return fmt.Sprintf("user-%d", g.users), nil
}

func (g *seqIDs) SessionID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions++
	return fmt.Sprintf("session-%d", g.sessions), nil
}

func (g *seqIDs) VerificationCode(length int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.codes++
	code := fmt.Sprintf("CODE%04d", g.codes)
	for len(code) < length {
		code += "X"
	}
	return code[:length], nil
}

func (g *seqIDs) ResetToken() (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens++
	token := fmt.Sprintf("token-%d", g.tokens)
	return token, g.HashResetToken(token), nil
}

func (g *seqIDs) HashResetToken(token string) string {
	return "hash:" + token
}

// stepThrottler mirrors the progressive contract against the test clock:
// per-key level into a step list, allowed once the level's wait elapsed.
type stepThrottler struct {
	clock *testClock
	steps []time.Duration

	mu    sync.Mutex
	level map[string]int
	last  map[string]time.Time
}

func newStepThrottler(clock *testClock, steps []time.Duration) *stepThrottler {
	return &stepThrottler{
		clock: clock,
		steps: steps,
		level: make(map[string]int),
		last:  make(map[string]time.Time),
	}
}

func (t *stepThrottler) Check(ctx context.Context, key string) (throttle.Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	level, ok := t.level[key]
	if !ok {
		return throttle.Decision{Allowed: true}, nil
	}

	wait := t.steps[level]
	elapsed := t.clock.Now().Sub(t.last[key])
	if elapsed >= wait {
		return throttle.Decision{Allowed: true}, nil
	}
	return throttle.Decision{RetryAfter: wait - elapsed}, nil
}

func (t *stepThrottler) Increment(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if level, ok := t.level[key]; ok {
		if level+1 < len(t.steps) {
			t.level[key] = level + 1
		}
	} else {
		t.level[key] = 0
	}
	t.last[key] = t.clock.Now()
	return nil
}

func (t *stepThrottler) Reset(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.level, key)
	delete(t.last, key)
	return nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "slip.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := store.EnsureSchema(db, store.DefaultTableNames()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

type testCore struct {
	*Core
	clock *testClock
	ids   *seqIDs
}

func newTestCore(t *testing.T, options ...func(*Builder)) *testCore {
	t.Helper()

	clock := newTestClock()
	ids := &seqIDs{}

	builder := New().
		WithDB(newTestDB(t)).
		WithHasher(plainHasher{}).
		WithIDs(ids)
	for _, option := range options {
		option(builder)
	}

	core, err := builder.Build()
	if err != nil {
		t.Fatalf("build core: %v", err)
	}
	t.Cleanup(core.Close)
	core.now = clock.Now

	return &testCore{Core: core, clock: clock, ids: ids}
}

func mustRegister(t *testing.T, c *testCore, email, pass string) (string, *Session) {
	t.Helper()

	userID, session, err := c.Register(context.Background(), Credentials{Email: email, Password: pass})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return userID, session
}

func wantRateLimited(t *testing.T, err error) *RateLimitError {
	t.Helper()

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("want *RateLimitError, got %v", err)
	}
	return rle
}
