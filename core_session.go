package slip

import "context"

// DeleteSession removes one session, firing the session delete hook with
// the removed row. An unknown id fails with [ErrSessionNotFound].
func (c *Core) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.checkReady(); err != nil {
		return err
	}

	err := c.deleteSession(ctx, sessionID)

	c.emitAudit(ctx, AuditEvent{EventType: eventSessionDelete, SessionID: sessionID}, err)
	return err
}

func (c *Core) deleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	deleted, err := c.sess.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions bulk-removes every session whose expiry is strictly
// before the given epoch-millisecond timestamp and returns the removed
// count. It is a garbage-collection sweep, not an authorization boundary:
// consumers must still check expiry at use time. No per-row hook fires.
func (c *Core) DeleteExpiredSessions(ctx context.Context, before int64) (int64, error) {
	if err := c.checkReady(); err != nil {
		return 0, err
	}

	count, err := c.sess.DeleteExpired(ctx, before)

	c.emitAudit(ctx, AuditEvent{EventType: eventSessionSweep}, err)
	return count, err
}

// ValidateSession resolves a session id to a live session. Both an unknown
// id and an expired-but-unswept row fail with [ErrSessionNotFound]; row
// presence alone never authorizes.
func (c *Core) ValidateSession(ctx context.Context, sessionID string) (*Session, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := c.sess.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || c.nowMillis() >= session.ExpiresAt {
		return nil, ErrSessionNotFound
	}

	return session, nil
}
