package slip

import (
	"context"
	"fmt"

	"github.com/slipauth/slip/store"
)

// AskPasswordReset issues a reset token for the user with the given id and
// returns the plaintext token. Only the token's hash is persisted; any
// pending token for the user is replaced. An unknown id fails with
// [ErrInvalidUserIDToResetPassword].
func (c *Core) AskPasswordReset(ctx context.Context, userID string) (string, error) {
	if err := c.checkReady(); err != nil {
		return "", err
	}

	token, err := c.askPasswordReset(ctx, userID)

	c.emitAudit(ctx, AuditEvent{
		EventType: eventPasswordReset,
		UserID:    userID,
		Metadata:  map[string]string{"action": "ask"},
	}, err)
	return token, err
}

func (c *Core) askPasswordReset(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserIDToResetPassword
	}

	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidUserIDToResetPassword
	}

	return c.issueResetToken(ctx, user)
}

// AskForgotPasswordReset is the email-keyed variant of [Core.AskPasswordReset]
// for callers that only hold the address. An unknown email fails with
// [ErrInvalidEmailToResetPassword].
func (c *Core) AskForgotPasswordReset(ctx context.Context, email string) (string, error) {
	if err := c.checkReady(); err != nil {
		return "", err
	}

	normalized := normalizeEmail(email)
	token, err := c.askForgotPasswordReset(ctx, normalized)

	c.emitAudit(ctx, AuditEvent{
		EventType: eventPasswordReset,
		Email:     normalized,
		Metadata:  map[string]string{"action": "ask_forgot"},
	}, err)
	return token, err
}

func (c *Core) askForgotPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrInvalidEmailToResetPassword
	}

	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidEmailToResetPassword
	}

	return c.issueResetToken(ctx, user)
}

func (c *Core) issueResetToken(ctx context.Context, user *User) (string, error) {
	token, hash, err := c.ids.ResetToken()
	if err != nil {
		return "", err
	}

	row := &store.PasswordResetToken{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: c.nowMillis() + c.config.PasswordReset.TTL.Milliseconds(),
	}
	if err := c.resets.Upsert(ctx, row); err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}

	return token, nil
}

// ResetPasswordWithResetToken consumes a reset token: it stores the new
// password hash, deletes the token, and deletes every session of the user
// so all devices must re-authenticate.
//
// A replacement password shorter than the configured minimum fails with
// [ErrInvalidPasswordToReset]. An unknown hash and a stale row both fail
// with [ErrResetPasswordTokenExpired]: a consumed token is deliberately
// indistinguishable from an expired one.
func (c *Core) ResetPasswordWithResetToken(ctx context.Context, token, newPassword string) (bool, error) {
	if err := c.checkReady(); err != nil {
		return false, err
	}

	userID, err := c.resetPassword(ctx, token, newPassword)

	c.emitAudit(ctx, AuditEvent{
		EventType: eventPasswordReset,
		UserID:    userID,
		Metadata:  map[string]string{"action": "reset"},
	}, err)

	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Core) resetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if len(newPassword) < c.config.PasswordReset.MinPasswordLength {
		return "", ErrInvalidPasswordToReset
	}
	if token == "" {
		return "", ErrResetPasswordTokenExpired
	}

	row, err := c.resets.FindByHash(ctx, c.ids.HashResetToken(token))
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", ErrResetPasswordTokenExpired
	}
	if c.nowMillis() > row.ExpiresAt {
		return row.UserID, ErrResetPasswordTokenExpired
	}

	digest, err := c.hasher.Hash(newPassword)
	if err != nil {
		return row.UserID, fmt.Errorf("hash password: %w", err)
	}
	if err := c.users.UpdatePasswordHash(ctx, row.UserID, digest, c.nowMillis()); err != nil {
		return row.UserID, err
	}

	if _, err := c.resets.DeleteByHash(ctx, row.TokenHash); err != nil {
		return row.UserID, err
	}
	if _, err := c.sess.DeleteByUser(ctx, row.UserID); err != nil {
		return row.UserID, err
	}

	return row.UserID, nil
}
