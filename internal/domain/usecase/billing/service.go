package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
)

const historyLimit = 50

// Service sells credit packages through the hosted payment provider
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	payments     gateway.PaymentGateway
	baseURL      string
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new billing service. baseURL is the public frontend
// origin the provider redirects back to.
func NewService(
	uow persistence.UnitOfWork,
	ledger usecase.LedgerUseCase,
	payments gateway.PaymentGateway,
	baseURL string,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		ledger:       ledger,
		payments:     payments,
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Packages lists the credit packages on sale
func (s *Service) Packages() []entity.CreditPackage {
	return entity.CreditPackages()
}

// CreateCheckout records a pending transaction and opens a hosted checkout for it
func (s *Service) CreateCheckout(ctx context.Context, user *entity.User, credits int64) (*usecase.CheckoutResult, error) {
	pkg, err := entity.PackageForCredits(credits)
	if err != nil {
		return nil, err
	}
	tx, err := entity.NewTransaction(user.ID, pkg, s.timeProvider)
	if err != nil {
		return nil, err
	}
	repo := s.uow.Transactions(ctx)
	if err := repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	req := gateway.CheckoutRequest{
		UserID:        user.ID.String(),
		TransactionID: tx.ID.String(),
		Credits:       pkg.Credits,
		AmountCents:   pkg.AmountCents,
		SuccessURL:    s.baseURL + "/dashboard?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.baseURL + "/dashboard?canceled=true",
	}
	if !user.HasPlaceholderEmail() {
		req.CustomerEmail = user.Email
	}
	session, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger.Error("Checkout session creation failed", map[string]any{
			"user_id":        user.ID.String(),
			"transaction_id": tx.ID.String(),
			"error":          err.Error(),
		})
		var upstream *errs.UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		return nil, errs.NewUpstreamError("payment", "failed to create checkout session", 0, err)
	}

	tx.AttachSession(session.ID, s.timeProvider)
	if err := repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout session created", map[string]any{
		"user_id":        user.ID.String(),
		"transaction_id": tx.ID.String(),
		"session_id":     session.ID,
		"credits":        pkg.Credits,
	})
	return &usecase.CheckoutResult{
		SessionID:     session.ID,
		URL:           session.URL,
		TransactionID: tx.ID.String(),
	}, nil
}

// HandleWebhook verifies a provider event and credits completed purchases
// exactly once
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (usecase.WebhookOutcome, error) {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected payment webhook", map[string]any{"error": err.Error()})
		return "", errs.NewValidationError("signature", "webhook signature verification failed")
	}
	if event.Type != gateway.EventCheckoutCompleted {
		s.logger.Debug("Ignoring payment event", map[string]any{
			"event_id": event.ID,
			"type":     event.Type,
		})
		return usecase.WebhookIgnored, nil
	}

	outcome := usecase.WebhookIgnored
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		tx, err := s.uow.Transactions(txCtx).GetBySessionIDForUpdate(txCtx, event.SessionID)
		if errors.Is(err, errs.ErrPaymentNotFound) {
			s.logger.Warn("Payment event for unknown session", map[string]any{
				"event_id":   event.ID,
				"session_id": event.SessionID,
			})
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.MarkCompleted(s.timeProvider); errors.Is(err, errs.ErrPaymentAlreadyCompleted) {
			outcome = usecase.WebhookDuplicate
			return nil
		}
		if err := s.uow.Transactions(txCtx).Update(txCtx, tx); err != nil {
			return err
		}

		reason := fmt.Sprintf("Purchased %d credits", tx.Credits)
		_, err = s.ledger.Credit(txCtx, tx.UserID, tx.Credits, entity.CreditKindPurchase, reason, entity.PaymentReference(tx.ID))
		switch {
		case err == nil:
			outcome = usecase.WebhookCredited
		case errs.IsDuplicateLedgerEntry(err):
			outcome = usecase.WebhookDuplicate
		default:
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply payment", map[string]any{
			"event_id":   event.ID,
			"session_id": event.SessionID,
			"error":      err.Error(),
		})
		return "", err
	}

	s.logger.Info("Payment webhook handled", map[string]any{
		"event_id":   event.ID,
		"session_id": event.SessionID,
		"outcome":    string(outcome),
	})
	return outcome, nil
}

// History returns the user's recent credit movements
func (s *Service) History(ctx context.Context, user *entity.User, limit int) ([]*entity.CreditEntry, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return s.ledger.History(ctx, user.ID, limit)
}
