package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// LedgerUseCase mutates and reports credit balances
type LedgerUseCase interface {
	// Debit removes amount from the balance, failing without side effects when
	// the balance is lower than amount
	Debit(ctx context.Context, userID uuid.UUID, amount int64, reason, reference string) (*entity.User, error)

	// Credit adds amount to the balance. A repeated non-empty reference returns
	// ErrDuplicateLedgerEntry and changes nothing.
	Credit(ctx context.Context, userID uuid.UUID, amount int64, kind entity.CreditKind, reason, reference string) (*entity.User, error)

	// History returns the newest entries first
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.CreditEntry, error)

	// Reconcile returns balance - sum(history); zero means consistent
	Reconcile(ctx context.Context, userID uuid.UUID) (int64, error)
}
