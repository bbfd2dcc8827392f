package slip

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// UUIDGenerator is the default IDGenerator: uuid v4 identifiers,
// crypto/rand verification codes over an unambiguous alphabet, and 32-byte
// reset secrets stored as sha256 hex.
type UUIDGenerator struct{}

// NewUUIDGenerator returns the default generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (UUIDGenerator) UserID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	return id.String(), nil
}

func (UUIDGenerator) SessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return id.String(), nil
}

// VerificationCode returns a code of length characters drawn from an
// alphabet without 0/O/1/I lookalikes.
func (UUIDGenerator) VerificationCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("verification code length must be positive, got %d", length)
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	code := make([]byte, length)
	for i, b := range raw {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}

// ResetToken returns a fresh opaque secret and its persistent hash. Only
// the hash ever reaches the store.
func (g UUIDGenerator) ResetToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}

	token := hex.EncodeToString(raw)
	return token, g.HashResetToken(token), nil
}

// HashResetToken maps a plaintext reset token to its stored form.
func (UUIDGenerator) HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ IDGenerator = (*UUIDGenerator)(nil)
