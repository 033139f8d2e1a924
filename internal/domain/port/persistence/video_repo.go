package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// VideoRepository stores generation jobs
type VideoRepository interface {
	Create(ctx context.Context, video *entity.Video) error

	// GetByIDForUpdate loads a job and locks it until the transaction ends
	//
	// Possible errors:
	// - ErrVideoNotFound
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Video, error)

	// GetByID loads a job regardless of owner, without locking
	//
	// Possible errors:
	// - ErrVideoNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Video, error)

	// GetForOwner loads a job only if it belongs to userID
	//
	// Possible errors:
	// - ErrVideoNotFound: If the job is missing or owned by someone else
	GetForOwner(ctx context.Context, id, userID uuid.UUID) (*entity.Video, error)

	// ListByOwner returns the owner's jobs, most recent first
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*entity.Video, error)

	// Update persists status, result and error fields
	Update(ctx context.Context, video *entity.Video) error

	// Delete removes a job owned by userID
	//
	// Possible errors:
	// - ErrVideoNotFound
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
