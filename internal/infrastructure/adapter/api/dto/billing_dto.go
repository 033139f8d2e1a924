package dto

import "time"

// CheckoutRequest is the body of POST /api/stripe/checkout
type CheckoutRequest struct {
	Credits int64 `json:"credits" binding:"required"`
}

// WebhookResponse acknowledges a verified payment webhook
type WebhookResponse struct {
	Received bool `json:"received"`
}

// CreditEntryResponse is one row of the credit history
type CreditEntryResponse struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Kind        string    `json:"transactionType"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
