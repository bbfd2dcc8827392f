package slip

import "context"

// AskEmailVerificationCode issues a fresh verification code for user,
// replacing any pending one, and fires the verification-code create hook
// with the stored row. Delivery of the code is a subscriber's concern.
func (c *Core) AskEmailVerificationCode(ctx context.Context, user *User) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	if user == nil || user.ID == "" {
		return ErrEmailVerificationFailed
	}

	_, err := c.issueVerificationCode(ctx, user)

	c.emitAudit(ctx, AuditEvent{
		EventType: eventEmailVerification,
		UserID:    user.ID,
		Email:     user.Email,
		Metadata:  map[string]string{"action": "ask"},
	}, err)
	return err
}

// VerifyEmailVerificationCode checks code against the user's pending
// verification code. A missing pending row or a mismatched code fails with
// [ErrEmailVerificationFailed]; a matching but stale code fails with
// [ErrEmailVerificationCodeExpired]. On success the user's email is marked
// verified and the code row is deleted, firing the delete hook.
func (c *Core) VerifyEmailVerificationCode(ctx context.Context, user *User, code string) (bool, error) {
	if err := c.checkReady(); err != nil {
		return false, err
	}

	err := c.verifyEmailCode(ctx, user, code)

	var userID, email string
	if user != nil {
		userID, email = user.ID, user.Email
	}
	c.emitAudit(ctx, AuditEvent{
		EventType: eventEmailVerification,
		UserID:    userID,
		Email:     email,
		Metadata:  map[string]string{"action": "verify"},
	}, err)

	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Core) verifyEmailCode(ctx context.Context, user *User, code string) error {
	if user == nil || user.ID == "" || code == "" {
		return ErrEmailVerificationFailed
	}

	pending, err := c.codes.FindByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	// The lookup is scoped to this user, so a code issued to someone else
	// never matches here even when the strings are equal.
	if pending == nil || pending.Code != code {
		return ErrEmailVerificationFailed
	}
	if c.nowMillis() > pending.ExpiresAt {
		return ErrEmailVerificationCodeExpired
	}

	if err := c.users.SetEmailVerified(ctx, user.ID, c.nowMillis()); err != nil {
		return err
	}
	if _, err := c.codes.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}

	return nil
}
