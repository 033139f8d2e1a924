package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// CreditEntryRepository implements persistence.CreditEntryRepository using GORM
type CreditEntryRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCreditEntryRepository creates a new CreditEntryRepository
func NewCreditEntryRepository(db *gorm.DB, logger coreport.Logger) *CreditEntryRepository {
	return &CreditEntryRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Append inserts the entry. A clashing reference is skipped with ON CONFLICT
// DO NOTHING so the surrounding Postgres transaction stays usable.
func (r *CreditEntryRepository) Append(ctx context.Context, entry *entity.CreditEntry) error {
	row := model.CreditEntryFromEntity(entry)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(row)
	if result.Error != nil {
		r.logger.Error("Failed to append credit entry", map[string]any{
			"user_id":   entry.UserID.String(),
			"reference": entry.Reference,
			"error":     result.Error.Error(),
		})
		return r.errorClassifier.MapError(result.Error, errs.ErrUserNotFound, errs.ErrDuplicateLedgerEntry)
	}
	if result.RowsAffected == 0 {
		return errs.ErrDuplicateLedgerEntry
	}
	return nil
}

// ListByUser returns the newest entries first
func (r *CreditEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.CreditEntry, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.CreditEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.errorClassifier.MapError(err, errs.ErrUserNotFound, nil)
	}

	entries := make([]*entity.CreditEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToEntity())
	}
	return entries, nil
}

// SumByUser totals every entry of the user
func (r *CreditEntryRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.CreditEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, r.errorClassifier.MapError(err, errs.ErrUserNotFound, nil)
	}
	return total, nil
}
