package slip

import (
	"errors"
	"time"

	"github.com/slipauth/slip/store"
)

// TableConfig names the physical tables the core operates on.
type TableConfig = store.TableNames

// Config is the full configuration surface of a Core. Zero values fall
// back to the defaults of defaultConfig.
type Config struct {
	Tables            TableConfig
	Session           SessionConfig
	EmailVerification EmailVerificationConfig
	PasswordReset     PasswordResetConfig
	Throttle          ThrottleConfig
	Audit             AuditConfig
}

// SessionConfig controls session issuance.
type SessionConfig struct {
	// MaxAge is the lifetime of a freshly issued session.
	MaxAge time.Duration
}

// EmailVerificationConfig controls the verification-code flow.
type EmailVerificationConfig struct {
	// TTL is the validity window of an issued code.
	TTL time.Duration
	// CodeLength is the number of alphanumeric characters per code.
	CodeLength int
}

// PasswordResetConfig controls the reset-token flow.
type PasswordResetConfig struct {
	// TTL is the validity window of an issued token.
	TTL time.Duration
	// MinPasswordLength is the smallest replacement password accepted by
	// ResetPasswordWithResetToken.
	MinPasswordLength int
}

// ThrottleConfig shapes the default login throttler built when a Redis
// client is supplied without an explicit throttler.
type ThrottleConfig struct {
	// Steps is the ordered backoff schedule; see throttle.ProgressiveConfig.
	Steps []time.Duration
	// TTL bounds counter lifetime.
	TTL time.Duration
}

// AuditConfig controls the operational event log.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

func defaultConfig() Config {
	return Config{
		Tables: store.DefaultTableNames(),
		Session: SessionConfig{
			MaxAge: 30 * 24 * time.Hour,
		},
		EmailVerification: EmailVerificationConfig{
			TTL:        15 * time.Minute,
			CodeLength: 8,
		},
		PasswordReset: PasswordResetConfig{
			TTL:               2 * time.Hour,
			MinPasswordLength: 8,
		},
		Throttle: ThrottleConfig{
			Steps: []time.Duration{
				0,
				1 * time.Second,
				2 * time.Second,
				4 * time.Second,
				8 * time.Second,
				16 * time.Second,
				30 * time.Second,
				60 * time.Second,
				180 * time.Second,
				300 * time.Second,
			},
			TTL: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 64,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	clone := cfg
	if len(cfg.Throttle.Steps) > 0 {
		clone.Throttle.Steps = make([]time.Duration, len(cfg.Throttle.Steps))
		copy(clone.Throttle.Steps, cfg.Throttle.Steps)
	}
	return clone
}

func validateConfig(cfg Config) error {
	tables := []string{
		cfg.Tables.Users,
		cfg.Tables.Sessions,
		cfg.Tables.OAuthAccounts,
		cfg.Tables.EmailVerificationCodes,
		cfg.Tables.PasswordResetTokens,
	}
	for _, name := range tables {
		if name == "" {
			return errors.New("all table names must be non-empty")
		}
	}

	if cfg.Session.MaxAge <= 0 {
		return errors.New("session max age must be positive")
	}
	if cfg.EmailVerification.TTL <= 0 {
		return errors.New("email verification TTL must be positive")
	}
	if cfg.EmailVerification.CodeLength < 4 || cfg.EmailVerification.CodeLength > 32 {
		return errors.New("email verification code length must be between 4 and 32")
	}
	if cfg.PasswordReset.TTL <= 0 {
		return errors.New("password reset TTL must be positive")
	}
	if cfg.PasswordReset.MinPasswordLength < 1 {
		return errors.New("minimum password length must be positive")
	}

	for i, step := range cfg.Throttle.Steps {
		if step < 0 {
			return errors.New("throttle steps must be non-negative")
		}
		if i > 0 && step < cfg.Throttle.Steps[i-1] {
			return errors.New("throttle steps must be non-decreasing")
		}
	}

	return nil
}
