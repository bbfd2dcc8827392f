package slip

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDeleteSession(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	var deleted []Session
	core.Hooks().SessionDeleted.On(func(s Session) { deleted = append(deleted, s) })

	_, session := mustRegister(t, core, "a@test.com", "hunter22")

	if err := core.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != session.ID {
		t.Fatalf("want one delete hook for %s, got %+v", session.ID, deleted)
	}

	if err := core.DeleteSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound on repeat delete, got %v", err)
	}
}

func TestValidateSession(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, session := mustRegister(t, core, "a@test.com", "hunter22")

	got, err := core.ValidateSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.UserID != userID {
		t.Fatalf("session belongs to %s, want %s", got.UserID, userID)
	}

	if _, err := core.ValidateSession(ctx, "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestValidateSessionRejectsExpiredRow(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	_, session := mustRegister(t, core, "a@test.com", "hunter22")

	core.clock.Advance(core.config.Session.MaxAge + time.Second)

	// The row still exists; presence alone must not authorize.
	if row, err := core.sess.FindByID(ctx, session.ID); err != nil || row == nil {
		t.Fatalf("want the expired row still stored, got %+v, %v", row, err)
	}
	if _, err := core.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	mustRegister(t, core, "a@test.com", "hunter22")

	core.clock.Advance(1 * time.Hour)
	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "hunter22"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Sweep exactly between the two expiry timestamps. Only the first
	// session is strictly before the cutoff.
	cutoff := core.clock.Now().UnixMilli() + core.config.Session.MaxAge.Milliseconds()
	count, err := core.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 1 {
		t.Fatalf("swept %d sessions, want 1", count)
	}

	// Idempotent: a second sweep finds nothing.
	count, err = core.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("second sweep removed %d sessions, want 0", count)
	}
}

func TestDeleteExpiredSessionsFiresNoHooks(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	var deleted int
	core.Hooks().SessionDeleted.On(func(Session) { deleted++ })

	mustRegister(t, core, "a@test.com", "hunter22")
	core.clock.Advance(core.config.Session.MaxAge + time.Second)

	count, err := core.DeleteExpiredSessions(ctx, core.clock.Now().UnixMilli())
	if err != nil || count != 1 {
		t.Fatalf("sweep: %d, %v", count, err)
	}
	if deleted != 0 {
		t.Fatalf("bulk sweep fired %d per-row hooks", deleted)
	}
}
