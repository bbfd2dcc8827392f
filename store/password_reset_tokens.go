package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slipauth/slip/hook"
)

// PasswordResetTokens is the repository for pending reset tokens. The
// unique user_id column limits each user to one pending token.
type PasswordResetTokens struct {
	db      *sql.DB
	created *hook.Registry[PasswordResetToken]
	deleted *hook.Registry[PasswordResetToken]

	upsertSQL       string
	findByHashSQL   string
	deleteByHashSQL string
}

// NewPasswordResetTokens creates the repository. Hook registries may be
// nil.
func NewPasswordResetTokens(db *sql.DB, table string, created, deleted *hook.Registry[PasswordResetToken]) *PasswordResetTokens {
	return &PasswordResetTokens{
		db:      db,
		created: created,
		deleted: deleted,
		upsertSQL: fmt.Sprintf(
			`INSERT INTO %q (token_hash, user_id, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT (user_id) DO UPDATE
			 SET token_hash = excluded.token_hash, expires_at = excluded.expires_at`, table),
		findByHashSQL: fmt.Sprintf(
			`SELECT token_hash, user_id, expires_at FROM %q WHERE token_hash = ?`, table),
		deleteByHashSQL: fmt.Sprintf(`DELETE FROM %q WHERE token_hash = ?`, table),
	}
}

// Upsert writes t, replacing any pending token for the same user, verifies
// the stored row, and fires the create hook with it.
func (r *PasswordResetTokens) Upsert(ctx context.Context, t *PasswordResetToken) error {
	if _, err := r.db.ExecContext(ctx, r.upsertSQL, t.TokenHash, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}

	stored, err := r.FindByHash(ctx, t.TokenHash)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrRowNotFoundAfterInsert
	}

	r.created.Emit(*stored)
	return nil
}

// FindByHash returns the token row for a hash, or nil when absent.
func (r *PasswordResetTokens) FindByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error) {
	var t PasswordResetToken
	err := r.db.QueryRowContext(ctx, r.findByHashSQL, tokenHash).
		Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	return &t, nil
}

// DeleteByHash removes the token row and fires the delete hook with the
// removed row. It returns nil, nil when the hash is unknown.
func (r *PasswordResetTokens) DeleteByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error) {
	existing, err := r.FindByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx, r.deleteByHashSQL, tokenHash); err != nil {
		return nil, fmt.Errorf("delete reset token: %w", err)
	}

	r.deleted.Emit(*existing)
	return existing, nil
}
