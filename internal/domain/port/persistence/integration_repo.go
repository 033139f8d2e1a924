package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// IntegrationRepository stores CRM connections, one per user
type IntegrationRepository interface {
	// GetByUserID
	//
	// Possible errors:
	// - ErrIntegrationNotFound
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Integration, error)

	// Upsert creates or replaces the user's integration keyed by user id
	Upsert(ctx context.Context, integration *entity.Integration) error

	// DeleteByUserID removes the integration; deleting a missing one is not an error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}
