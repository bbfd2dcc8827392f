package slip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slipauth/slip/store"
)

// Register creates a password-based account and logs it in: it inserts the
// user, issues the initial email verification code, and opens a session
// expiring MaxAge from now.
//
// An email that already carries a password-based account fails with
// [ErrInvalidEmailOrPassword]. The pre-check is advisory only; under
// concurrent registration the store's unique email constraint is the
// authoritative guard, and its conflict maps to the same error.
func (c *Core) Register(ctx context.Context, creds Credentials) (string, *Session, error) {
	if err := c.checkReady(); err != nil {
		return "", nil, err
	}

	email := normalizeEmail(creds.Email)
	userID, session, err := c.register(ctx, email, creds.Password)

	c.emitAudit(ctx, AuditEvent{EventType: eventRegister, UserID: userID, Email: email}, err)
	if err != nil {
		return "", nil, err
	}
	return userID, session, nil
}

func (c *Core) register(ctx context.Context, email, pass string) (string, *Session, error) {
	if email == "" || pass == "" {
		return "", nil, ErrInvalidEmailOrPassword
	}

	existing, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if existing != nil && existing.PasswordHash != "" {
		return "", nil, ErrInvalidEmailOrPassword
	}

	digest, err := c.hasher.Hash(pass)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := c.ids.UserID()
	if err != nil {
		return "", nil, err
	}

	nowMs := c.nowMillis()
	user := &store.User{
		ID:           userID,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    nowMs,
		UpdatedAt:    nowMs,
	}
	if err := c.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrUniqueConflict) {
			return "", nil, ErrInvalidEmailOrPassword
		}
		return "", nil, err
	}

	if _, err := c.issueVerificationCode(ctx, user); err != nil {
		return "", nil, err
	}

	session, err := c.createSession(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	return userID, session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
