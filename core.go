package slip

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/slipauth/slip/internal/audit"
	"github.com/slipauth/slip/store"
	"github.com/slipauth/slip/throttle"
)

// Core is the authentication orchestrator. It composes the repositories,
// the credential hasher, the id generator, the hook bus, and an optional
// throttler. A Core holds no mutable state of its own beyond those injected
// strategies, so one instance serves concurrent requests.
//
// Build a Core with [New]; the zero value is not usable.
type Core struct {
	config    Config
	db        *sql.DB
	hasher    Hasher
	ids       IDGenerator
	throttler throttle.Throttler
	hooks     *Hooks
	auditor   *audit.Dispatcher

	users  *store.Users
	sess   *store.Sessions
	oauth  *store.OAuthAccounts
	codes  *store.EmailVerificationCodes
	resets *store.PasswordResetTokens

	now   func() time.Time
	ready bool
}

// Hooks exposes the lifecycle event registries for subscription.
func (c *Core) Hooks() *Hooks {
	return c.hooks
}

// Close releases the core's background resources. It does not close the
// database handle, which the caller owns.
func (c *Core) Close() {
	if c == nil {
		return
	}
	c.auditor.Close()
}

func (c *Core) checkReady() error {
	if c == nil || !c.ready {
		return ErrCoreNotReady
	}
	return nil
}

func (c *Core) nowMillis() int64 {
	return c.now().UnixMilli()
}

// createSession issues a fresh session for userID, expiring MaxAge from
// now. IP and user agent come from the request metadata on ctx, when set.
func (c *Core) createSession(ctx context.Context, userID string) (*Session, error) {
	id, err := c.ids.SessionID()
	if err != nil {
		return nil, err
	}

	info := RequestInfoFromContext(ctx)
	nowMs := c.nowMillis()
	session := &store.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: nowMs + c.config.Session.MaxAge.Milliseconds(),
		IP:        info.IP,
		UserAgent: info.UserAgent,
		CreatedAt: nowMs,
		UpdatedAt: nowMs,
	}

	if err := c.sess.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// issueVerificationCode generates and stores a fresh code for user,
// replacing any pending one.
func (c *Core) issueVerificationCode(ctx context.Context, user *User) (*EmailVerificationCode, error) {
	value, err := c.ids.VerificationCode(c.config.EmailVerification.CodeLength)
	if err != nil {
		return nil, err
	}

	code := &store.EmailVerificationCode{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      value,
		ExpiresAt: c.nowMillis() + c.config.EmailVerification.TTL.Milliseconds(),
	}
	if err := c.codes.Upsert(ctx, code); err != nil {
		return nil, fmt.Errorf("issue verification code: %w", err)
	}
	return code, nil
}
