package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	tport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// TransactionStatus defines possible status values for a payment transaction
type TransactionStatus string

// TransactionStatus constants
const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
)

// CreditPackage is a purchasable bundle of credits
type CreditPackage struct {
	Credits     int64 `json:"credits"`
	AmountCents int64 `json:"amount"`
}

// creditPackages lists the bundles on sale, smallest first
var creditPackages = []CreditPackage{
	{Credits: 5, AmountCents: 500},
	{Credits: 10, AmountCents: 970},
	{Credits: 20, AmountCents: 1800},
	{Credits: 50, AmountCents: 4000},
}

// CreditPackages returns a copy of the package catalogue
func CreditPackages() []CreditPackage {
	out := make([]CreditPackage, len(creditPackages))
	copy(out, creditPackages)
	return out
}

// PackageForCredits finds the package selling exactly credits
func PackageForCredits(credits int64) (CreditPackage, error) {
	for _, p := range creditPackages {
		if p.Credits == credits {
			return p, nil
		}
	}
	return CreditPackage{}, errs.NewValidationError("credits", fmt.Sprintf("package of %d credits does not exist", credits))
}

// Transaction represents a payment intent that buys credits
type Transaction struct {
	ID          uuid.UUID         // Unique identifier for the transaction
	UserID      uuid.UUID         // Buyer
	AmountCents int64             // Price charged, in cents
	Credits     int64             // Credits granted on completion
	Status      TransactionStatus // pending until the payment webhook confirms it
	SessionID   *string           // Payment provider checkout session, unique
	CreatedAt   time.Time         // When checkout started
	UpdatedAt   time.Time         // Last status change
}

// NewTransaction creates a pending transaction for the given package
func NewTransaction(userID uuid.UUID, pkg CreditPackage, timeProvider tport.TimeProvider) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUserNotFound
	}
	if pkg.Credits <= 0 || pkg.AmountCents <= 0 {
		return nil, errs.ErrInvalidAmount
	}

	now := timeProvider.Now()
	return &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		AmountCents: pkg.AmountCents,
		Credits:     pkg.Credits,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AttachSession records the provider checkout session
func (t *Transaction) AttachSession(sessionID string, timeProvider tport.TimeProvider) {
	t.SessionID = &sessionID
	t.UpdatedAt = timeProvider.Now()
}

// MarkCompleted moves the transaction to completed; it succeeds only once
func (t *Transaction) MarkCompleted(timeProvider tport.TimeProvider) error {
	if t.IsCompleted() {
		return errs.ErrPaymentAlreadyCompleted
	}
	t.Status = StatusCompleted
	t.UpdatedAt = timeProvider.Now()
	return nil
}

// IsCompleted reports whether the payment was confirmed
func (t *Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}
