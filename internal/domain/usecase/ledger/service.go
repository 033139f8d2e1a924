package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
)

// Service applies credit mutations. Every balance change and its history row
// are written in the same database transaction; when the caller's context
// already carries a transaction both join it.
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new ledger service
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Debit removes amount credits from the user with a usage entry.
// An insufficient balance leaves both the balance and the history untouched.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, reason, reference string) (*entity.User, error) {
	if amount <= 0 {
		return nil, errs.ErrInvalidAmount
	}

	entry, err := entity.NewCreditEntry(userID, -amount, entity.CreditKindUsage, reason, reference, s.timeProvider)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		// The conditional decrement runs first so a rejected debit never
		// writes a history row.
		updated, err := s.uow.Users(txCtx).AdjustCredits(txCtx, userID, -amount)
		if err != nil {
			return err
		}
		if err := s.uow.CreditEntries(txCtx).Append(txCtx, entry); err != nil {
			return err
		}
		user = updated
		return nil
	})
	if err != nil {
		if errs.IsInsufficientCreditsError(err) {
			s.logger.Info("Debit rejected for insufficient credits", map[string]any{
				"user_id":   userID.String(),
				"amount":    amount,
				"reference": reference,
			})
			return nil, err
		}
		s.logFailure("Failed to debit credits", userID, -amount, reference, err)
		return nil, errs.NewLedgerError(userID.String(), -amount, reference, err)
	}

	s.logger.Info("Credits debited", map[string]any{
		"user_id":     userID.String(),
		"amount":      amount,
		"reference":   reference,
		"new_balance": user.Credits(),
	})
	return user, nil
}

// Credit adds amount credits. A reference that was already applied yields
// ErrDuplicateLedgerEntry and no mutation.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, kind entity.CreditKind, reason, reference string) (*entity.User, error) {
	if amount <= 0 {
		return nil, errs.ErrInvalidAmount
	}
	if kind == entity.CreditKindUsage {
		return nil, errs.NewValidationError("kind", "usage cannot be credited")
	}

	entry, err := entity.NewCreditEntry(userID, amount, kind, reason, reference, s.timeProvider)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		// History first: the unique reference is the exactly-once guard.
		if err := s.uow.CreditEntries(txCtx).Append(txCtx, entry); err != nil {
			return err
		}
		updated, err := s.uow.Users(txCtx).AdjustCredits(txCtx, userID, amount)
		if err != nil {
			return err
		}
		user = updated
		return nil
	})
	if err != nil {
		if errs.IsDuplicateLedgerEntry(err) {
			s.logger.Info("Ledger reference already applied", map[string]any{
				"user_id":   userID.String(),
				"reference": reference,
			})
			return nil, err
		}
		s.logFailure("Failed to credit credits", userID, amount, reference, err)
		return nil, errs.NewLedgerError(userID.String(), amount, reference, err)
	}

	s.logger.Info("Credits added", map[string]any{
		"user_id":     userID.String(),
		"amount":      amount,
		"kind":        string(kind),
		"reference":   reference,
		"new_balance": user.Credits(),
	})
	return user, nil
}

// History returns the user's ledger entries, newest first
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.CreditEntry, error) {
	if _, err := s.uow.Users(ctx).GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.uow.CreditEntries(ctx).ListByUser(ctx, userID, limit)
}

// Reconcile returns the stored balance minus the sum of the user's history.
// Anything other than zero means a mutation bypassed the ledger.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (int64, error) {
	var drift int64
	err := persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		user, err := s.uow.Users(txCtx).GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		sum, err := s.uow.CreditEntries(txCtx).SumByUser(txCtx, userID)
		if err != nil {
			return err
		}
		drift = user.Credits() - sum
		return nil
	})
	if err != nil {
		return 0, err
	}
	if drift != 0 {
		s.logger.Warn("Ledger drift detected", map[string]any{
			"user_id": userID.String(),
			"drift":   drift,
		})
	}
	return drift, nil
}

func (s *Service) logFailure(msg string, userID uuid.UUID, amount int64, reference string, err error) {
	fields := map[string]any{
		"user_id":   userID.String(),
		"amount":    amount,
		"reference": reference,
		"error":     err.Error(),
	}
	if errors.Is(err, errs.ErrUserNotFound) {
		s.logger.Warn(msg, fields)
		return
	}
	s.logger.Error(msg, fields)
}
