package store

// User is an identity row. PasswordHash is empty for accounts created
// through OAuth only. Timestamps are epoch milliseconds.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     int64
	UpdatedAt     int64
}

// Session is one authenticated session. ExpiresAt is epoch milliseconds;
// a row past its expiry is invalid regardless of presence.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt int64
	IP        string
	UserAgent string
	CreatedAt int64
	UpdatedAt int64
}

// OAuthAccount links a provider identity to a user. The provider pair is
// the composite primary key.
type OAuthAccount struct {
	ProviderID     string
	ProviderUserID string
	UserID         string
}

// EmailVerificationCode is the single pending code of one user; the unique
// user_id column forces replace semantics.
type EmailVerificationCode struct {
	ID        int64
	UserID    string
	Email     string
	Code      string
	ExpiresAt int64
}

// PasswordResetToken stores only the hash of an issued reset token; the
// plaintext never touches the database.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt int64
}
