package slip

import "github.com/slipauth/slip/hook"

// HookErrorFunc receives panics recovered from hook handlers. Dispatch is
// notify-only: a failing handler never affects the operation that fired it.
type HookErrorFunc func(recovered any)

// Hooks bundles the lifecycle event registries of one Core. Handlers
// receive the freshly stored (or just removed) row after the write has been
// verified. Bulk operations, like the expired-session sweep, fire no
// per-row events.
type Hooks struct {
	UserCreated             *hook.Registry[User]
	SessionCreated          *hook.Registry[Session]
	SessionDeleted          *hook.Registry[Session]
	OAuthAccountCreated     *hook.Registry[OAuthAccount]
	VerificationCodeCreated *hook.Registry[EmailVerificationCode]
	VerificationCodeDeleted *hook.Registry[EmailVerificationCode]
	ResetTokenCreated       *hook.Registry[PasswordResetToken]
	ResetTokenDeleted       *hook.Registry[PasswordResetToken]
}

// NewHooks creates one registry per event. onError may be nil, in which
// case recovered handler panics are discarded.
func NewHooks(onError HookErrorFunc) *Hooks {
	var onPanic func(any)
	if onError != nil {
		onPanic = func(recovered any) { onError(recovered) }
	}

	return &Hooks{
		UserCreated:             hook.NewRegistry[User](onPanic),
		SessionCreated:          hook.NewRegistry[Session](onPanic),
		SessionDeleted:          hook.NewRegistry[Session](onPanic),
		OAuthAccountCreated:     hook.NewRegistry[OAuthAccount](onPanic),
		VerificationCodeCreated: hook.NewRegistry[EmailVerificationCode](onPanic),
		VerificationCodeDeleted: hook.NewRegistry[EmailVerificationCode](onPanic),
		ResetTokenCreated:       hook.NewRegistry[PasswordResetToken](onPanic),
		ResetTokenDeleted:       hook.NewRegistry[PasswordResetToken](onPanic),
	}
}
