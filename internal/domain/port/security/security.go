package security

import "time"

// TokenIssuer signs and verifies the bearer tokens of direct users
type TokenIssuer interface {
	Issue(userID string) (string, error)
	// Verify returns the user id carried by a valid, unexpired token
	Verify(token string) (string, error)
}

// HandshakeSigner produces and checks the short-lived embed handshake value
type HandshakeSigner interface {
	Sign(at time.Time) string
	Verify(value string, now time.Time, ttl time.Duration) bool
}

// SessionTokenGenerator mints opaque session tokens and hashes them for storage
type SessionTokenGenerator interface {
	Generate() (token string, hash string, err error)
	Hash(token string) string
}

// PasswordHasher hashes and compares passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	// Random returns the hash of an unguessable password
	Random() (string, error)
}
