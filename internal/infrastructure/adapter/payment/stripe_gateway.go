// Package payment implements the hosted checkout provider on Stripe.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
)

// Config for the Stripe gateway
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// StripeGateway creates checkout sessions and verifies webhooks
type StripeGateway struct {
	webhookSecret string
	currency      string
	logger        coreport.Logger
}

// NewStripeGateway configures the stripe-go client
func NewStripeGateway(cfg Config, logger coreport.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		logger:        logger,
	}
}

// CreateCheckoutSession opens a one-off payment for a credit package
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if stripe.Key == "" {
		return nil, errs.NewUpstreamError("stripe", "Payments are not configured", 0, nil)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%d Credits", req.Credits)),
						Description: stripe.String(fmt.Sprintf("Purchase %d credits for video generation", req.Credits)),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata: map[string]string{
			"userId":        req.UserID,
			"transactionId": req.TransactionID,
			"credits":       strconv.FormatInt(req.Credits, 10),
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, errs.NewUpstreamError("stripe", "Failed to create checkout session", 0, err)
	}

	g.logger.Info("Created Stripe checkout session", map[string]any{
		"session_id":     sess.ID,
		"user_id":        req.UserID,
		"transaction_id": req.TransactionID,
	})
	return &gateway.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*gateway.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &gateway.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != gateway.EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := sess.UnmarshalJSON(event.Data.Raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	out.SessionID = sess.ID
	out.Metadata = sess.Metadata
	return out, nil
}
