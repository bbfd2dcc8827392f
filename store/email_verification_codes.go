package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slipauth/slip/hook"
)

// EmailVerificationCodes is the repository for pending verification codes.
// The unique user_id column limits each user to one pending code.
type EmailVerificationCodes struct {
	db      *sql.DB
	created *hook.Registry[EmailVerificationCode]
	deleted *hook.Registry[EmailVerificationCode]

	upsertSQL       string
	findByUserSQL   string
	deleteByUserSQL string
}

// NewEmailVerificationCodes creates the repository. Hook registries may be
// nil.
func NewEmailVerificationCodes(db *sql.DB, table string, created, deleted *hook.Registry[EmailVerificationCode]) *EmailVerificationCodes {
	return &EmailVerificationCodes{
		db:      db,
		created: created,
		deleted: deleted,
		upsertSQL: fmt.Sprintf(
			`INSERT INTO %q (user_id, email, code, expires_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id) DO UPDATE
			 SET email = excluded.email, code = excluded.code, expires_at = excluded.expires_at`, table),
		findByUserSQL: fmt.Sprintf(
			`SELECT id, user_id, email, code, expires_at FROM %q WHERE user_id = ?`, table),
		deleteByUserSQL: fmt.Sprintf(`DELETE FROM %q WHERE user_id = ?`, table),
	}
}

// Upsert writes c, replacing any pending code for the same user, verifies
// the stored row, and fires the create hook with it.
func (r *EmailVerificationCodes) Upsert(ctx context.Context, c *EmailVerificationCode) error {
	if _, err := r.db.ExecContext(ctx, r.upsertSQL, c.UserID, c.Email, c.Code, c.ExpiresAt); err != nil {
		return fmt.Errorf("upsert verification code: %w", err)
	}

	stored, err := r.FindByUser(ctx, c.UserID)
	if err != nil {
		return err
	}
	if stored == nil || stored.Code != c.Code {
		return ErrRowNotFoundAfterInsert
	}

	c.ID = stored.ID
	r.created.Emit(*stored)
	return nil
}

// FindByUser returns the pending code of one user, or nil when none is
// pending.
func (r *EmailVerificationCodes) FindByUser(ctx context.Context, userID string) (*EmailVerificationCode, error) {
	var c EmailVerificationCode
	err := r.db.QueryRowContext(ctx, r.findByUserSQL, userID).
		Scan(&c.ID, &c.UserID, &c.Email, &c.Code, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification code: %w", err)
	}
	return &c, nil
}

// DeleteByUser removes the pending code of one user and fires the delete
// hook with the removed row. It returns nil, nil when none is pending.
func (r *EmailVerificationCodes) DeleteByUser(ctx context.Context, userID string) (*EmailVerificationCode, error) {
	existing, err := r.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx, r.deleteByUserSQL, userID); err != nil {
		return nil, fmt.Errorf("delete verification code: %w", err)
	}

	r.deleted.Emit(*existing)
	return existing, nil
}
