package usecase

import (
	"context"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// CheckoutResult points the client at the hosted payment page
type CheckoutResult struct {
	SessionID     string `json:"sessionId"`
	URL           string `json:"url"`
	TransactionID string `json:"transactionId"`
}

// WebhookOutcome tells what a payment webhook did
type WebhookOutcome string

// Webhook outcomes
const (
	WebhookCredited  WebhookOutcome = "credited"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// BillingUseCase sells credits through hosted checkout
type BillingUseCase interface {
	Packages() []entity.CreditPackage
	CreateCheckout(ctx context.Context, user *entity.User, credits int64) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error)
	History(ctx context.Context, user *entity.User, limit int) ([]*entity.CreditEntry, error)
}
