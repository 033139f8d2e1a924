package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Create saves a new pending transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Creating payment transaction", map[string]any{
		"transaction_id": transaction.ID.String(),
		"user_id":        transaction.UserID.String(),
	})

	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(model.TransactionFromEntity(transaction))
	if result.Error != nil {
		r.logger.Error("Failed to create transaction", map[string]any{
			"transaction_id": transaction.ID.String(),
			"error":          result.Error.Error(),
		})
		return r.errorClassifier.MapError(result.Error, errs.ErrPaymentNotFound, nil)
	}
	return nil
}

// Update persists status and session id
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]any{
			"status":     string(transaction.Status),
			"session_id": transaction.SessionID,
			"updated_at": transaction.UpdatedAt,
		})
	if result.Error != nil {
		return r.errorClassifier.MapError(result.Error, errs.ErrPaymentNotFound, nil)
	}
	if result.RowsAffected == 0 {
		return errs.ErrPaymentNotFound
	}
	return nil
}

// GetBySessionIDForUpdate loads and row-locks the transaction of a checkout session
func (r *TransactionRepository) GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*entity.Transaction, error) {
	var row model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&row).Error
	if err != nil {
		return nil, r.errorClassifier.MapError(err, errs.ErrPaymentNotFound, nil)
	}
	return row.ToEntity(), nil
}
