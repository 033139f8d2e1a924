package entity

import (
	"time"

	"github.com/google/uuid"

	tport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// EmbeddedSession is the server side of an opaque embedded-session token.
// Only the SHA-256 hash of the token is stored.
type EmbeddedSession struct {
	ID         uuid.UUID
	LocationID string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// NewEmbeddedSession creates a session for locationID living ttl
func NewEmbeddedSession(locationID, tokenHash string, ttl time.Duration, timeProvider tport.TimeProvider) *EmbeddedSession {
	now := timeProvider.Now()
	return &EmbeddedSession{
		ID:         uuid.New(),
		LocationID: locationID,
		TokenHash:  tokenHash,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
}

// Expired reports whether the session can no longer be used at now
func (s *EmbeddedSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
