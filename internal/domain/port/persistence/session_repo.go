package persistence

import (
	"context"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// SessionRepository stores embedded sessions
type SessionRepository interface {
	// Replace deletes every session of the location and stores session
	Replace(ctx context.Context, session *entity.EmbeddedSession) error

	// GetByTokenHash
	//
	// Possible errors:
	// - ErrSessionNotFound
	GetByTokenHash(ctx context.Context, tokenHash string) (*entity.EmbeddedSession, error)

	// DeleteByTokenHash removes a session; a missing one is not an error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}
