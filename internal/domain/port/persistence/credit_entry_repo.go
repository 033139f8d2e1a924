package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// CreditEntryRepository stores the append-only credit history
type CreditEntryRepository interface {
	// Append inserts a new entry
	//
	// Possible errors:
	// - ErrDuplicateLedgerEntry: If an entry with the same non-empty reference exists
	Append(ctx context.Context, entry *entity.CreditEntry) error

	// ListByUser returns up to limit entries, newest first; limit <= 0 means all
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.CreditEntry, error)

	// SumByUser returns the sum of all entry amounts of a user
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
