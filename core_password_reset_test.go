package slip

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")
	// A second live session, to prove the reset kills them all.
	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "old-password"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}
	if token == "" {
		t.Fatal("want a plaintext token")
	}

	ok, err := core.ResetPasswordWithResetToken(ctx, token, "new-password")
	if err != nil || !ok {
		t.Fatalf("reset: %v, %v", ok, err)
	}

	// Old credential dead, new one live.
	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "old-password"}); !errors.Is(err, ErrInvalidEmailOrPassword) {
		t.Fatalf("want old password rejected, got %v", err)
	}
	if _, _, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "new-password"}); err != nil {
		t.Fatalf("want new password accepted, got %v", err)
	}
}

func TestPasswordResetDeletesAllSessions(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, first := mustRegister(t, core, "a@test.com", "old-password")
	_, second, err := core.Login(ctx, Credentials{Email: "a@test.com", Password: "old-password"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}
	if _, err := core.ResetPasswordWithResetToken(ctx, token, "new-password"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	for _, sessionID := range []string{first.ID, second.ID} {
		if _, err := core.ValidateSession(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("session %s: want ErrSessionNotFound, got %v", sessionID, err)
		}
	}
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")

	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}
	if _, err := core.ResetPasswordWithResetToken(ctx, token, "new-password"); err != nil {
		t.Fatalf("first use: %v", err)
	}

	ok, err := core.ResetPasswordWithResetToken(ctx, token, "newer-password")
	if ok || !errors.Is(err, ErrResetPasswordTokenExpired) {
		t.Fatalf("want ErrResetPasswordTokenExpired on reuse, got %v, %v", ok, err)
	}
}

func TestPasswordResetExpiredTokenFails(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")

	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}

	core.clock.Advance(core.config.PasswordReset.TTL + time.Second)

	ok, err := core.ResetPasswordWithResetToken(ctx, token, "new-password")
	if ok || !errors.Is(err, ErrResetPasswordTokenExpired) {
		t.Fatalf("want ErrResetPasswordTokenExpired, got %v, %v", ok, err)
	}
}

func TestPasswordResetRejectsShortPassword(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")
	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}

	ok, err := core.ResetPasswordWithResetToken(ctx, token, "short")
	if ok || !errors.Is(err, ErrInvalidPasswordToReset) {
		t.Fatalf("want ErrInvalidPasswordToReset, got %v, %v", ok, err)
	}

	// The token survives a rejected password and still works.
	if _, err := core.ResetPasswordWithResetToken(ctx, token, "long-enough-now"); err != nil {
		t.Fatalf("want token still usable, got %v", err)
	}
}

func TestAskPasswordResetUnknownTargets(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, err := core.AskPasswordReset(ctx, "no-such-user"); !errors.Is(err, ErrInvalidUserIDToResetPassword) {
		t.Fatalf("want ErrInvalidUserIDToResetPassword, got %v", err)
	}
	if _, err := core.AskForgotPasswordReset(ctx, "nobody@test.com"); !errors.Is(err, ErrInvalidEmailToResetPassword) {
		t.Fatalf("want ErrInvalidEmailToResetPassword, got %v", err)
	}
}

func TestAskPasswordResetReplacesPendingToken(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")

	first, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("first ask: %v", err)
	}
	second, err := core.AskForgotPasswordReset(ctx, "a@test.com")
	if err != nil {
		t.Fatalf("second ask: %v", err)
	}

	if ok, err := core.ResetPasswordWithResetToken(ctx, first, "new-password"); ok || !errors.Is(err, ErrResetPasswordTokenExpired) {
		t.Fatalf("want replaced token rejected, got %v, %v", ok, err)
	}
	if _, err := core.ResetPasswordWithResetToken(ctx, second, "new-password"); err != nil {
		t.Fatalf("want fresh token accepted, got %v", err)
	}
}

func TestPasswordResetFiresTokenHooks(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	var created, deleted []PasswordResetToken
	core.Hooks().ResetTokenCreated.On(func(tok PasswordResetToken) { created = append(created, tok) })
	core.Hooks().ResetTokenDeleted.On(func(tok PasswordResetToken) { deleted = append(deleted, tok) })

	userID, _ := mustRegister(t, core, "a@test.com", "old-password")
	token, err := core.AskPasswordReset(ctx, userID)
	if err != nil {
		t.Fatalf("ask reset: %v", err)
	}
	if _, err := core.ResetPasswordWithResetToken(ctx, token, "new-password"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if len(created) != 1 || created[0].UserID != userID {
		t.Fatalf("want one create hook for %s, got %+v", userID, created)
	}
	if len(deleted) != 1 || deleted[0].TokenHash != core.ids.HashResetToken(token) {
		t.Fatalf("want one delete hook for the consumed token, got %+v", deleted)
	}
}
