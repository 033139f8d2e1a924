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

// IntegrationRepository implements persistence.IntegrationRepository using GORM
type IntegrationRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewIntegrationRepository creates a new IntegrationRepository
func NewIntegrationRepository(db *gorm.DB, logger coreport.Logger) *IntegrationRepository {
	return &IntegrationRepository{db: db, logger: logger, errorClassifier: NewErrorClassifier()}
}

// GetByUserID returns the user's integration
func (r *IntegrationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Integration, error) {
	var row model.Integration
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, r.errorClassifier.MapError(err, errs.ErrIntegrationNotFound, nil)
	}
	return row.ToEntity(), nil
}

// Upsert inserts the integration or overwrites the existing one of the user.
// The original id and creation time are kept on conflict.
func (r *IntegrationRepository) Upsert(ctx context.Context, integration *entity.Integration) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"api_key", "location_id", "business_name", "email", "phone", "is_connected", "updated_at",
			}),
		}).
		Create(model.IntegrationFromEntity(integration)).Error
	if err != nil {
		r.logger.Error("Failed to save integration", map[string]any{
			"user_id": integration.UserID.String(),
			"error":   err.Error(),
		})
		return r.errorClassifier.MapError(err, errs.ErrIntegrationNotFound, nil)
	}
	return nil
}

// DeleteByUserID removes the user's integration if any
func (r *IntegrationRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Integration{}).Error
	return r.errorClassifier.MapError(err, errs.ErrIntegrationNotFound, nil)
}
