package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slipauth/slip/hook"
)

// Users is the repository for identity rows.
type Users struct {
	db      *sql.DB
	created *hook.Registry[User]

	insertSQL      string
	findByIDSQL    string
	findByEmailSQL string
	setVerifiedSQL string
	setPasswordSQL string
}

// NewUsers creates the repository. created may be nil.
func NewUsers(db *sql.DB, table string, created *hook.Registry[User]) *Users {
	return &Users{
		db:      db,
		created: created,
		insertSQL: fmt.Sprintf(
			`INSERT INTO %q (id, email, password_hash, email_verified, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`, table),
		findByIDSQL: fmt.Sprintf(
			`SELECT id, email, password_hash, email_verified, created_at, updated_at
			 FROM %q WHERE id = ?`, table),
		findByEmailSQL: fmt.Sprintf(
			`SELECT id, email, password_hash, email_verified, created_at, updated_at
			 FROM %q WHERE email = ?`, table),
		setVerifiedSQL: fmt.Sprintf(
			`UPDATE %q SET email_verified = 1, updated_at = ? WHERE id = ?`, table),
		setPasswordSQL: fmt.Sprintf(
			`UPDATE %q SET password_hash = ?, updated_at = ? WHERE id = ?`, table),
	}
}

// Insert writes u, verifies the row landed, and fires the create hook.
// A duplicate email surfaces as [ErrUniqueConflict].
func (r *Users) Insert(ctx context.Context, u *User) error {
	verified := 0
	if u.EmailVerified {
		verified = 1
	}

	if _, err := r.db.ExecContext(ctx, r.insertSQL,
		u.ID, u.Email, nullString(u.PasswordHash), verified, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	stored, err := r.FindByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrRowNotFoundAfterInsert
	}

	r.created.Emit(*stored)
	return nil
}

// FindByID returns the user or nil when absent.
func (r *Users) FindByID(ctx context.Context, id string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.findByIDSQL, id))
}

// FindByEmail returns the user or nil when absent.
func (r *Users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.findByEmailSQL, email))
}

// SetEmailVerified marks the user's email as proven.
func (r *Users) SetEmailVerified(ctx context.Context, id string, updatedAt int64) error {
	if _, err := r.db.ExecContext(ctx, r.setVerifiedSQL, updatedAt, id); err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored credential digest.
func (r *Users) UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt int64) error {
	if _, err := r.db.ExecContext(ctx, r.setPasswordSQL, passwordHash, updatedAt, id); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

func (r *Users) scanOne(row *sql.Row) (*User, error) {
	var (
		u            User
		passwordHash sql.NullString
		verified     int
	)
	err := row.Scan(&u.ID, &u.Email, &passwordHash, &verified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.PasswordHash = passwordHash.String
	u.EmailVerified = verified != 0
	return &u, nil
}
