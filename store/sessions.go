package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slipauth/slip/hook"
)

// Sessions is the repository for session rows.
type Sessions struct {
	db      *sql.DB
	created *hook.Registry[Session]
	deleted *hook.Registry[Session]

	insertSQL        string
	findByIDSQL      string
	deleteSQL        string
	deleteByUserSQL  string
	deleteExpiredSQL string
}

// NewSessions creates the repository. Hook registries may be nil.
func NewSessions(db *sql.DB, table string, created, deleted *hook.Registry[Session]) *Sessions {
	return &Sessions{
		db:      db,
		created: created,
		deleted: deleted,
		insertSQL: fmt.Sprintf(
			`INSERT INTO %q (id, user_id, expires_at, ip, ua, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`, table),
		findByIDSQL: fmt.Sprintf(
			`SELECT id, user_id, expires_at, ip, ua, created_at, updated_at
			 FROM %q WHERE id = ?`, table),
		deleteSQL:        fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, table),
		deleteByUserSQL:  fmt.Sprintf(`DELETE FROM %q WHERE user_id = ?`, table),
		deleteExpiredSQL: fmt.Sprintf(`DELETE FROM %q WHERE expires_at < ?`, table),
	}
}

// Insert writes s, verifies the row landed, and fires the create hook.
func (r *Sessions) Insert(ctx context.Context, s *Session) error {
	if _, err := r.db.ExecContext(ctx, r.insertSQL,
		s.ID, s.UserID, s.ExpiresAt, nullString(s.IP), nullString(s.UserAgent), s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stored, err := r.FindByID(ctx, s.ID)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrRowNotFoundAfterInsert
	}

	r.created.Emit(*stored)
	return nil
}

// FindByID returns the session or nil when absent. Callers must still check
// ExpiresAt; presence alone does not make a session valid.
func (r *Sessions) FindByID(ctx context.Context, id string) (*Session, error) {
	var (
		s  Session
		ip sql.NullString
		ua sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.findByIDSQL, id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &ip, &ua, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.IP = ip.String
	s.UserAgent = ua.String
	return &s, nil
}

// Delete removes one session and fires the delete hook with the removed
// row. It returns nil, nil when the session does not exist.
func (r *Sessions) Delete(ctx context.Context, id string) (*Session, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx, r.deleteSQL, id); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}

	r.deleted.Emit(*existing)
	return existing, nil
}

// DeleteByUser bulk-removes every session of one user. No per-row hook is
// fired.
func (r *Sessions) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.deleteByUserSQL, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by user: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired bulk-removes sessions with expires_at strictly before the
// given epoch-millisecond timestamp. No per-row hook is fired.
func (r *Sessions) DeleteExpired(ctx context.Context, before int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.deleteExpiredSQL, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
