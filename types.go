package slip

import "github.com/slipauth/slip/store"

// Entity rows are defined next to their repositories and re-exported here
// so integrations only deal with the root package.
type (
	// User is an identity row.
	User = store.User
	// Session is one authenticated session.
	Session = store.Session
	// OAuthAccount links a provider identity to a user.
	OAuthAccount = store.OAuthAccount
	// EmailVerificationCode is a user's single pending verification code.
	EmailVerificationCode = store.EmailVerificationCode
	// PasswordResetToken is the persisted hash of an issued reset token.
	PasswordResetToken = store.PasswordResetToken
)

// Credentials is the email/password pair of password-based flows.
type Credentials struct {
	Email    string
	Password string
}

// OAuthParams identifies a provider login: the provider, the user's id at
// that provider, and the email the provider asserts.
type OAuthParams struct {
	ProviderID     string
	ProviderUserID string
	Email          string
}

// Hasher is the pluggable credential hashing strategy. Implementations
// must be side-effect-free and safe for concurrent use. The default is
// argon2id from the password package.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) (bool, error)
}

// IDGenerator is the pluggable identifier strategy. HashResetToken must be
// the inverse lookup of ResetToken: hashing the returned plaintext yields
// the returned hash. Implementations must be safe for concurrent use.
type IDGenerator interface {
	UserID() (string, error)
	SessionID() (string, error)
	VerificationCode(length int) (string, error)
	ResetToken() (token, hash string, err error)
	HashResetToken(token string) string
}
