package slip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slipauth/slip/internal/audit"
	"github.com/slipauth/slip/password"
	"github.com/slipauth/slip/schema"
	"github.com/slipauth/slip/store"
	"github.com/slipauth/slip/throttle"
)

// Builder assembles a Core. Every strategy is constructor-injected here;
// a built Core is immutable and cannot be reconfigured.
//
//	core, err := slip.New().
//		WithDB(db).
//		WithRedis(rdb).
//		Build()
type Builder struct {
	config    Config
	configSet bool

	db         *sql.DB
	dialect    schema.Dialect
	redis      redis.UniversalClient
	hasher     Hasher
	ids        IDGenerator
	throttler  throttle.Throttler
	onHookErr  HookErrorFunc
	auditSink  audit.Sink
	skipSchema bool

	err error
}

// New starts a builder with default configuration.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.configSet = true
	return b
}

// WithDB sets the relational store handle. Required.
func (b *Builder) WithDB(db *sql.DB) *Builder {
	b.db = db
	return b
}

// WithDialect sets the schema introspection dialect. Defaults to sqlite.
func (b *Builder) WithDialect(d schema.Dialect) *Builder {
	b.dialect = d
	return b
}

// WithRedis supplies the counter store for the default login throttler.
// Without it, and without an explicit throttler, login is unthrottled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHasher replaces the default argon2id credential hasher.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithIDs replaces the default identifier generator.
func (b *Builder) WithIDs(gen IDGenerator) *Builder {
	b.ids = gen
	return b
}

// WithThrottler sets an explicit login throttler, overriding the default
// progressive one built from WithRedis.
func (b *Builder) WithThrottler(t throttle.Throttler) *Builder {
	b.throttler = t
	return b
}

// WithHookErrorFunc sets the callback receiving panics recovered from hook
// handlers.
func (b *Builder) WithHookErrorFunc(fn HookErrorFunc) *Builder {
	b.onHookErr = fn
	return b
}

// WithAuditSink sets the destination of audit events. The sink only
// receives events when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithoutSchemaValidation skips the structural check of the five tables at
// build time. Intended for callers that already ran it, not for skipping
// it outright.
func (b *Builder) WithoutSchemaValidation() *Builder {
	b.skipSchema = true
	return b
}

// Build validates configuration, checks the physical schema, wires the
// repositories to the hook bus, and returns a ready Core.
func (b *Builder) Build() (*Core, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.db == nil {
		return nil, errors.New("a database handle is required")
	}

	cfg := b.config
	if !b.configSet {
		cfg = defaultConfig()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dialect := b.dialect
	if dialect == nil {
		dialect = schema.SQLite{}
	}
	if !b.skipSchema {
		if err := schema.Validate(context.Background(), b.db, dialect, expectedTables(cfg.Tables)); err != nil {
			return nil, err
		}
	}

	hasher := b.hasher
	if hasher == nil {
		argon, err := password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
		hasher = argon
	}

	ids := b.ids
	if ids == nil {
		ids = NewUUIDGenerator()
	}

	throttler := b.throttler
	if throttler == nil && b.redis != nil {
		progressive, err := throttle.NewProgressive(b.redis, throttle.ProgressiveConfig{
			Steps: cfg.Throttle.Steps,
			TTL:   cfg.Throttle.TTL,
		})
		if err != nil {
			return nil, err
		}
		throttler = progressive
	}

	hooks := NewHooks(b.onHookErr)

	core := &Core{
		config:    cfg,
		db:        b.db,
		hasher:    hasher,
		ids:       ids,
		throttler: throttler,
		hooks:     hooks,
		auditor: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		users:  store.NewUsers(b.db, cfg.Tables.Users, hooks.UserCreated),
		sess:   store.NewSessions(b.db, cfg.Tables.Sessions, hooks.SessionCreated, hooks.SessionDeleted),
		oauth:  store.NewOAuthAccounts(b.db, cfg.Tables.OAuthAccounts, hooks.OAuthAccountCreated),
		codes:  store.NewEmailVerificationCodes(b.db, cfg.Tables.EmailVerificationCodes, hooks.VerificationCodeCreated, hooks.VerificationCodeDeleted),
		resets: store.NewPasswordResetTokens(b.db, cfg.Tables.PasswordResetTokens, hooks.ResetTokenCreated, hooks.ResetTokenDeleted),
		now:    time.Now,
		ready:  true,
	}

	return core, nil
}
