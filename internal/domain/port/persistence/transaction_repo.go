package persistence

import (
	"context"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// TransactionRepository stores payment transactions
type TransactionRepository interface {
	// Create saves a new pending transaction
	Create(ctx context.Context, transaction *entity.Transaction) error

	// Update persists status and session id
	//
	// Possible errors:
	// - ErrPaymentNotFound
	Update(ctx context.Context, transaction *entity.Transaction) error

	// GetBySessionIDForUpdate loads the transaction of a checkout session and
	// locks it until the surrounding transaction ends
	//
	// Possible errors:
	// - ErrPaymentNotFound
	GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*entity.Transaction, error)
}
