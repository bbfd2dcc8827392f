package slip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slipauth/slip/throttle"
)

func TestLoginWithCorrectPassword(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	registeredID, registeredSession := mustRegister(t, core, "a@test.com", "hunter22")

	userID, session, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if userID != registeredID {
		t.Fatalf("login as %s, want %s", userID, registeredID)
	}
	if session.ID == registeredSession.ID {
		t.Fatal("want a fresh session per login")
	}

	want := core.clock.Now().UnixMilli() + core.config.Session.MaxAge.Milliseconds()
	if session.ExpiresAt != want {
		t.Fatalf("session expires at %d, want %d", session.ExpiresAt, want)
	}
}

func TestLoginFailuresCollapseToOneError(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	mustRegister(t, core, "a@test.com", "hunter22")

	cases := map[string]Credentials{
		"unknown email":  {Email: "nobody@test.com", Password: "hunter22"},
		"wrong password": {Email: "a@test.com", Password: "nope"},
		"empty password": {Email: "a@test.com", Password: ""},
	}
	for name, creds := range cases {
		if _, _, err := core.Login(ctx, creds); !errors.Is(err, ErrInvalidEmailOrPassword) {
			t.Fatalf("%s: want ErrInvalidEmailOrPassword, got %v", name, err)
		}
	}
}

func TestLoginRejectsOAuthOnlyAccount(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "a@test.com",
	}); err != nil {
		t.Fatalf("oauth login: %v", err)
	}

	_, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "anything"})
	if !errors.Is(err, ErrInvalidEmailOrPassword) {
		t.Fatalf("want ErrInvalidEmailOrPassword, got %v", err)
	}
}

func TestLoginFailureNeverCreatesSession(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	var created int
	core.Hooks().SessionCreated.On(func(Session) { created++ })

	mustRegister(t, core, "a@test.com", "hunter22")
	baseline := created

	for i := 0; i < 3; i++ {
		if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "nope"}); err == nil {
			t.Fatal("want login to fail")
		}
	}
	if created != baseline {
		t.Fatalf("failed logins created %d sessions", created-baseline)
	}
}

func TestLoginThrottleAdvancesAndResets(t *testing.T) {
	clockSteps := []time.Duration{0, 1 * time.Second, 2 * time.Second}

	core := newTestCore(t)
	throttler := newStepThrottler(core.clock, clockSteps)
	core.throttler = throttler
	ctx := context.Background()

	mustRegister(t, core, "a@test.com", "hunter22")

	wrong := Credentials{Email: "a@test.com", Password: "nope"}

	// First failure sets level 0; the zero step keeps the key open.
	if _, _, err := core.Login(ctx, wrong); !errors.Is(err, ErrInvalidEmailOrPassword) {
		t.Fatalf("first failure: %v", err)
	}
	// Second failure advances to the 1s step; the next attempt is blocked.
	if _, _, err := core.Login(ctx, wrong); !errors.Is(err, ErrInvalidEmailOrPassword) {
		t.Fatalf("second failure: %v", err)
	}

	_, _, err := core.Login(ctx, wrong)
	rle := wantRateLimited(t, err)
	if rle.RetryAfter <= 0 || rle.RetryAfter > 1*time.Second {
		t.Fatalf("retry after %s, want within (0, 1s]", rle.RetryAfter)
	}

	// Waiting out the step lets a correct login through, which clears the
	// counter entirely.
	core.clock.Advance(1 * time.Second)
	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "hunter22"}); err != nil {
		t.Fatalf("login after wait: %v", err)
	}

	decision, err := throttler.Check(ctx, "login:a@test.com")
	if err != nil || !decision.Allowed {
		t.Fatalf("want counter cleared after success, got %+v, %v", decision, err)
	}
}

func TestLoginFailsOpenOnThrottlerOutage(t *testing.T) {
	core := newTestCore(t)
	core.throttler = failingThrottler{}
	ctx := context.Background()

	mustRegister(t, core, "a@test.com", "hunter22")

	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "hunter22"}); err != nil {
		t.Fatalf("want login to succeed with throttler down, got %v", err)
	}
}

// failingThrottler simulates a counter-store outage.
type failingThrottler struct{}

func (failingThrottler) Check(context.Context, string) (throttle.Decision, error) {
	return throttle.Decision{}, throttle.ErrBackendUnavailable
}

func (failingThrottler) Increment(context.Context, string) error {
	return throttle.ErrBackendUnavailable
}

func (failingThrottler) Reset(context.Context, string) error {
	return throttle.ErrBackendUnavailable
}
