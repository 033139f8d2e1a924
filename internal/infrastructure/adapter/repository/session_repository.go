package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// SessionRepository implements persistence.SessionRepository using GORM
type SessionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB, logger coreport.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger, errorClassifier: NewErrorClassifier()}
}

// Replace drops the location's sessions and stores the new one. Callers run
// it inside a transaction so a location never has two live sessions.
func (r *SessionRepository) Replace(ctx context.Context, session *entity.EmbeddedSession) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("location_id = ?", session.LocationID).Delete(&model.EmbeddedSession{}).Error; err != nil {
		return r.errorClassifier.MapError(err, errs.ErrSessionNotFound, nil)
	}
	if err := db.Create(model.EmbeddedSessionFromEntity(session)).Error; err != nil {
		return r.errorClassifier.MapError(err, errs.ErrSessionNotFound, nil)
	}
	return nil
}

// GetByTokenHash looks a session up by token hash
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.EmbeddedSession, error) {
	var row model.EmbeddedSession
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error; err != nil {
		return nil, r.errorClassifier.MapError(err, errs.ErrSessionNotFound, nil)
	}
	return row.ToEntity(), nil
}

// DeleteByTokenHash removes a session if present
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&model.EmbeddedSession{}).Error
	return r.errorClassifier.MapError(err, errs.ErrSessionNotFound, nil)
}

// DeleteExpired purges sessions whose expiry has passed and returns how many were removed
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.EmbeddedSession{})
	if result.Error != nil {
		return 0, r.errorClassifier.MapError(result.Error, errs.ErrSessionNotFound, nil)
	}
	if result.RowsAffected > 0 {
		r.logger.Info("Expired embedded sessions purged", map[string]any{"count": result.RowsAffected})
	}
	return result.RowsAffected, nil
}
