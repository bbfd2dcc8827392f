package slip

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidEmailOrPassword is returned for every credential failure
	// during registration and login. A missing account and a wrong password
	// deliberately collapse into the same error.
	ErrInvalidEmailOrPassword = errors.New("invalid email or password")
	// ErrInvalidEmailToResetPassword is returned when a forgot-password
	// request names an unknown email.
	ErrInvalidEmailToResetPassword = errors.New("invalid email to reset password")
	// ErrInvalidUserIDToResetPassword is returned when a reset request
	// names an unknown user id.
	ErrInvalidUserIDToResetPassword = errors.New("invalid user id to reset password")
	// ErrInvalidPasswordToReset is returned when the replacement password
	// is not a valid credential shape.
	ErrInvalidPasswordToReset = errors.New("invalid password to reset")
	// ErrResetPasswordTokenExpired covers both an unknown and an expired
	// reset token; a consumed token is indistinguishable from an expired
	// one by design.
	ErrResetPasswordTokenExpired = errors.New("reset password token expired")
	// ErrEmailVerificationFailed is returned when no code is pending, the
	// code does not match, or it belongs to another user.
	ErrEmailVerificationFailed = errors.New("email verification failed")
	// ErrEmailVerificationCodeExpired is returned for a matching but
	// expired code; the remediation is requesting a new one.
	ErrEmailVerificationCodeExpired = errors.New("email verification code expired")
	// ErrOAuthProviderConflict is returned when an email is already linked
	// to a different provider's account.
	ErrOAuthProviderConflict = errors.New("user already linked to another provider")
	// ErrOAuthAccountNotFound is an integrity fault: a user row exists for
	// the email but no provider linkage explains it. It signals data
	// corruption, not user error.
	ErrOAuthAccountNotFound = errors.New("oauth user not found")
	// ErrSessionNotFound is returned when a session id does not resolve to
	// a live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCoreNotReady is returned when a Core is used before Build wired
	// its dependencies.
	ErrCoreNotReady = errors.New("core not initialized")
)

// RateLimitError reports a throttled attempt. It is distinct from
// authentication failures so callers can map it to different transport
// semantics (429 rather than 401).
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

// IsRateLimited reports whether err is a throttling rejection.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
