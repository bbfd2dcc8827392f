// Package store holds the relational repositories of the authentication
// core, one per entity. Repositories own the full read/write path for their
// table: they verify every insert by re-querying the stored row and fire
// the matching lifecycle hook only after that verification.
//
// The store is reached through database/sql; the bundled baseline schema
// and the Open helper target sqlite (modernc.org/sqlite), but repositories
// themselves only rely on placeholders and standard SQL.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrUniqueConflict reports a store-level unique constraint violation.
	// The constraint, not the preceding SELECT, is the authoritative guard
	// against duplicate rows under concurrency.
	ErrUniqueConflict = errors.New("unique constraint violated")

	// ErrRowNotFoundAfterInsert is an integrity fault: an insert reported
	// success but the row could not be read back.
	ErrRowNotFoundAfterInsert = errors.New("row not found after insert")
)

// TableNames carries the physical table name for each entity. All names
// must be non-empty.
type TableNames struct {
	Users                  string
	Sessions               string
	OAuthAccounts          string
	EmailVerificationCodes string
	PasswordResetTokens    string
}

// DefaultTableNames returns the conventional table layout.
func DefaultTableNames() TableNames {
	return TableNames{
		Users:                  "users",
		Sessions:               "sessions",
		OAuthAccounts:          "oauth_accounts",
		EmailVerificationCodes: "email_verification_codes",
		PasswordResetTokens:    "password_reset_tokens",
	}
}

// Open opens a sqlite database at path with WAL journaling and enforced
// foreign keys, and verifies connectivity.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the five baseline tables when absent. Timestamps are
// stored uniformly as epoch milliseconds.
func EnsureSchema(db *sql.DB, names TableNames) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			id TEXT NOT NULL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			email_verified INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`, names.Users),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			id TEXT NOT NULL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES %q (id),
			expires_at INTEGER NOT NULL,
			ip TEXT,
			ua TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`, names.Sessions, names.Users),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			provider_id TEXT NOT NULL,
			provider_user_id TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES %q (id),
			PRIMARY KEY (provider_id, provider_user_id)
		)`, names.OAuthAccounts, names.Users),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE REFERENCES %q (id),
			email TEXT NOT NULL,
			code TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`, names.EmailVerificationCodes, names.Users),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			token_hash TEXT NOT NULL PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE REFERENCES %q (id),
			expires_at INTEGER NOT NULL
		)`, names.PasswordResetTokens, names.Users),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
