// Package token issues and parses compact signed session tokens.
//
// The core itself authorizes against session rows; this codec exists for
// transport glue that wants to carry the session id in a tamper-evident
// form instead of a bare cookie value. Tokens are HS256-signed and never
// outlive the session they reference.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid reports a token that failed signature or claim validation.
var ErrInvalid = errors.New("invalid session token")

// Config holds signing parameters.
type Config struct {
	// Secret is the HS256 signing key. Required, at least 32 bytes.
	Secret []byte
	// TTL bounds token lifetime independently of session lifetime.
	TTL time.Duration
	// Issuer and Audience are embedded and enforced when non-empty.
	Issuer   string
	Audience string
	// Leeway tolerates clock skew during validation, at most two minutes.
	Leeway time.Duration
}

// Claims is the decoded token payload.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// Manager signs and validates session tokens. Instances are immutable and
// safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	return &Manager{config: cfg}, nil
}

// Issue signs a token for the given session. The expiry is the earlier of
// now+TTL and the session's own expiry.
func (m *Manager) Issue(sessionID, userID string, sessionExpiresAt time.Time) (string, error) {
	if sessionID == "" || userID == "" {
		return "", errors.New("session id and user id are required")
	}

	now := time.Now()
	expires := now.Add(m.config.TTL)
	if sessionExpiresAt.Before(expires) {
		expires = sessionExpiresAt
	}
	if !expires.After(now) {
		return "", errors.New("session already expired")
	}

	claims := Claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse validates raw and returns its claims.
func (m *Manager) Parse(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.config.Leeway),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.config.Secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.SessionID == "" || claims.UserID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
