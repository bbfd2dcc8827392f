package slip

import "github.com/slipauth/slip/schema"

// expectedTables is the logical schema of the five core tables, matching
// the baseline layout of store.EnsureSchema. Build validates a live
// database against it before the core operates.
func expectedTables(tables TableConfig) []schema.Table {
	return []schema.Table{
		{
			Name: tables.Users,
			Columns: []schema.Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true, NotNull: true, Unique: true},
				{Name: "email", Type: "TEXT", NotNull: true, Unique: true},
				{Name: "password_hash", Type: "TEXT"},
				{Name: "email_verified", Type: "INTEGER", NotNull: true},
				{Name: "created_at", Type: "INTEGER", NotNull: true},
				{Name: "updated_at", Type: "INTEGER", NotNull: true},
			},
		},
		{
			Name: tables.Sessions,
			Columns: []schema.Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true, NotNull: true, Unique: true},
				{Name: "user_id", Type: "TEXT", NotNull: true},
				{Name: "expires_at", Type: "INTEGER", NotNull: true},
				{Name: "ip", Type: "TEXT"},
				{Name: "ua", Type: "TEXT"},
				{Name: "created_at", Type: "INTEGER", NotNull: true},
				{Name: "updated_at", Type: "INTEGER", NotNull: true},
			},
			ForeignKeys: []schema.ForeignKey{
				{Column: "user_id", TargetTable: tables.Users, TargetColumn: "id"},
			},
		},
		{
			Name: tables.OAuthAccounts,
			Columns: []schema.Column{
				{Name: "provider_id", Type: "TEXT", PrimaryKey: true, NotNull: true},
				{Name: "provider_user_id", Type: "TEXT", PrimaryKey: true, NotNull: true},
				{Name: "user_id", Type: "TEXT", NotNull: true},
			},
			ForeignKeys: []schema.ForeignKey{
				{Column: "user_id", TargetTable: tables.Users, TargetColumn: "id"},
			},
		},
		{
			Name: tables.EmailVerificationCodes,
			Columns: []schema.Column{
				{Name: "id", Type: "INTEGER", PrimaryKey: true},
				{Name: "user_id", Type: "TEXT", NotNull: true, Unique: true},
				{Name: "email", Type: "TEXT", NotNull: true},
				{Name: "code", Type: "TEXT", NotNull: true},
				{Name: "expires_at", Type: "INTEGER", NotNull: true},
			},
			ForeignKeys: []schema.ForeignKey{
				{Column: "user_id", TargetTable: tables.Users, TargetColumn: "id"},
			},
		},
		{
			Name: tables.PasswordResetTokens,
			Columns: []schema.Column{
				{Name: "token_hash", Type: "TEXT", PrimaryKey: true, NotNull: true, Unique: true},
				{Name: "user_id", Type: "TEXT", NotNull: true, Unique: true},
				{Name: "expires_at", Type: "INTEGER", NotNull: true},
			},
			ForeignKeys: []schema.ForeignKey{
				{Column: "user_id", TargetTable: tables.Users, TargetColumn: "id"},
			},
		},
	}
}
