package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// CreditKind classifies a ledger entry
type CreditKind string

// Ledger entry kinds
const (
	CreditKindPurchase CreditKind = "purchase"
	CreditKindUsage    CreditKind = "usage"
	CreditKindRefund   CreditKind = "refund"
)

// CreditEntry is one append-only row of a user's credit history.
// Amount is signed: usage rows are negative, purchases and refunds positive.
type CreditEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Kind        CreditKind
	Description string
	Reference   string // idempotency key; empty means none
	CreatedAt   time.Time
}

// NewCreditEntry builds a ledger entry, checking that the sign matches the kind
func NewCreditEntry(userID uuid.UUID, amount int64, kind CreditKind, description, reference string, timeProvider coreport.TimeProvider) (*CreditEntry, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUserNotFound
	}
	switch kind {
	case CreditKindUsage:
		if amount >= 0 {
			return nil, fmt.Errorf("%w: usage entries must be negative", errs.ErrInvalidAmount)
		}
	case CreditKindPurchase, CreditKindRefund:
		if amount <= 0 {
			return nil, errs.ErrInvalidAmount
		}
	default:
		return nil, errs.NewValidationError("kind", "is invalid")
	}

	return &CreditEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Reference:   reference,
		CreatedAt:   timeProvider.Now(),
	}, nil
}

// Reference helpers keep idempotency keys uniform across use cases.

// VideoUsageReference is the key of the debit charged for a video
func VideoUsageReference(videoID uuid.UUID) string {
	return "video:" + videoID.String() + ":usage"
}

// VideoRefundReference is the key of the single refund a video may receive
func VideoRefundReference(videoID uuid.UUID) string {
	return "video:" + videoID.String() + ":refund"
}

// PaymentReference is the key of the purchase credited for a completed payment
func PaymentReference(paymentID uuid.UUID) string {
	return "payment:" + paymentID.String()
}
