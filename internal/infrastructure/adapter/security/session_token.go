package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes yields 64 hex characters
const sessionTokenBytes = 32

// RandomSessionTokens mints opaque embedded-session tokens
type RandomSessionTokens struct{}

// NewRandomSessionTokens creates a generator
func NewRandomSessionTokens() *RandomSessionTokens {
	return &RandomSessionTokens{}
}

// Generate returns a new token and the hash to store
func (g *RandomSessionTokens) Generate() (string, string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("reading random bytes: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, g.Hash(token), nil
}

// Hash returns the hex SHA-256 of token
func (g *RandomSessionTokens) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
