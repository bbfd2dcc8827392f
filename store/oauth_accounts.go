package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slipauth/slip/hook"
)

// OAuthAccounts is the repository for provider linkage rows.
type OAuthAccounts struct {
	db      *sql.DB
	created *hook.Registry[OAuthAccount]

	insertSQL     string
	findSQL       string
	findByUserSQL string
}

// NewOAuthAccounts creates the repository. created may be nil.
func NewOAuthAccounts(db *sql.DB, table string, created *hook.Registry[OAuthAccount]) *OAuthAccounts {
	return &OAuthAccounts{
		db:      db,
		created: created,
		insertSQL: fmt.Sprintf(
			`INSERT INTO %q (provider_id, provider_user_id, user_id) VALUES (?, ?, ?)`, table),
		findSQL: fmt.Sprintf(
			`SELECT provider_id, provider_user_id, user_id
			 FROM %q WHERE provider_id = ? AND provider_user_id = ?`, table),
		findByUserSQL: fmt.Sprintf(
			`SELECT provider_id, provider_user_id, user_id FROM %q WHERE user_id = ?`, table),
	}
}

// Insert writes a, verifies the row landed, and fires the create hook.
// A duplicate provider pair surfaces as [ErrUniqueConflict].
func (r *OAuthAccounts) Insert(ctx context.Context, a *OAuthAccount) error {
	if _, err := r.db.ExecContext(ctx, r.insertSQL, a.ProviderID, a.ProviderUserID, a.UserID); err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueConflict
		}
		return fmt.Errorf("insert oauth account: %w", err)
	}

	stored, err := r.Find(ctx, a.ProviderID, a.ProviderUserID)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrRowNotFoundAfterInsert
	}

	r.created.Emit(*stored)
	return nil
}

// Find returns the account for a provider pair, or nil when absent.
func (r *OAuthAccounts) Find(ctx context.Context, providerID, providerUserID string) (*OAuthAccount, error) {
	var a OAuthAccount
	err := r.db.QueryRowContext(ctx, r.findSQL, providerID, providerUserID).
		Scan(&a.ProviderID, &a.ProviderUserID, &a.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan oauth account: %w", err)
	}
	return &a, nil
}

// FindByUser returns every linked provider account of one user.
func (r *OAuthAccounts) FindByUser(ctx context.Context, userID string) ([]OAuthAccount, error) {
	rows, err := r.db.QueryContext(ctx, r.findByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("query oauth accounts: %w", err)
	}
	defer rows.Close()

	var accounts []OAuthAccount
	for rows.Next() {
		var a OAuthAccount
		if err := rows.Scan(&a.ProviderID, &a.ProviderUserID, &a.UserID); err != nil {
			return nil, fmt.Errorf("scan oauth account: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
