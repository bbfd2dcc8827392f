package slip

import "context"

// Login verifies a password credential and opens a new session. A missing
// account, an OAuth-only account, and a wrong password all collapse to
// [ErrInvalidEmailOrPassword].
//
// With a throttler attached, attempts are gated per normalized email:
// a blocked key fails with [*RateLimitError] before any credential work,
// each failed attempt advances the backoff level, and a success clears it.
// Throttler backend outages fail open.
func (c *Core) Login(ctx context.Context, creds Credentials) (string, *Session, error) {
	if err := c.checkReady(); err != nil {
		return "", nil, err
	}

	email := normalizeEmail(creds.Email)
	userID, session, err := c.login(ctx, email, creds.Password)

	c.emitAudit(ctx, AuditEvent{EventType: eventLogin, UserID: userID, Email: email}, err)
	if err != nil {
		return "", nil, err
	}
	return userID, session, nil
}

func (c *Core) login(ctx context.Context, email, pass string) (string, *Session, error) {
	if email == "" || pass == "" {
		return "", nil, ErrInvalidEmailOrPassword
	}

	throttleKey := "login:" + email
	if c.throttler != nil {
		decision, err := c.throttler.Check(ctx, throttleKey)
		if err == nil && !decision.Allowed {
			return "", nil, &RateLimitError{RetryAfter: decision.RetryAfter}
		}
	}

	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || user.PasswordHash == "" {
		c.recordLoginFailure(ctx, throttleKey)
		return "", nil, ErrInvalidEmailOrPassword
	}

	ok, err := c.hasher.Verify(user.PasswordHash, pass)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		c.recordLoginFailure(ctx, throttleKey)
		return "", nil, ErrInvalidEmailOrPassword
	}

	if c.throttler != nil {
		// Best effort: a failed reset only means a stale counter.
		_ = c.throttler.Reset(ctx, throttleKey)
	}

	session, err := c.createSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return user.ID, session, nil
}

func (c *Core) recordLoginFailure(ctx context.Context, key string) {
	if c.throttler == nil {
		return
	}
	_ = c.throttler.Increment(ctx, key)
}
