package gateway

import "context"

// EventCheckoutCompleted is the provider event that finalises a purchase
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutRequest describes one hosted checkout
type CheckoutRequest struct {
	UserID        string
	TransactionID string
	Credits       int64
	AmountCents   int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentEvent is a verified webhook event reduced to the fields we use
type PaymentEvent struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}

// PaymentGateway is the hosted payment provider
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the signature header and decodes the event
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}
