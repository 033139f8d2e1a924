package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// VideoRepository implements persistence.VideoRepository using GORM
type VideoRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *VideoRepository {
	return &VideoRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *VideoRepository) mapError(err error) error {
	return r.errorClassifier.MapError(err, errs.ErrVideoNotFound, nil)
}

func (r *VideoRepository) load(query *gorm.DB) (*entity.Video, error) {
	var row model.Video
	if err := query.First(&row).Error; err != nil {
		return nil, r.mapError(err)
	}
	video, err := row.ToEntity()
	if err != nil {
		return nil, fmt.Errorf("decoding video %s: %w", row.ID, err)
	}
	return video, nil
}

// Create inserts a new job
func (r *VideoRepository) Create(ctx context.Context, video *entity.Video) error {
	row, err := model.VideoFromEntity(video)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		r.logger.Error("Failed to create video", map[string]any{
			"video_id": video.ID.String(),
			"error":    err.Error(),
		})
		return r.mapError(err)
	}
	return nil
}

// GetByIDForUpdate loads and row-locks a job
func (r *VideoRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	return r.load(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// GetByID loads a job without locking
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	return r.load(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetForOwner loads a job scoped to its owner
func (r *VideoRepository) GetForOwner(ctx context.Context, id, userID uuid.UUID) (*entity.Video, error) {
	return r.load(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// ListByOwner returns the owner's jobs, newest first
func (r *VideoRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*entity.Video, error) {
	var rows []model.Video
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, r.mapError(err)
	}

	videos := make([]*entity.Video, 0, len(rows))
	for i := range rows {
		video, err := rows[i].ToEntity()
		if err != nil {
			return nil, fmt.Errorf("decoding video %s: %w", rows[i].ID, err)
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// Update writes the lifecycle columns
func (r *VideoRepository) Update(ctx context.Context, video *entity.Video) error {
	result := r.db.WithContext(ctx).Model(&model.Video{}).
		Where("id = ?", video.ID).
		Updates(map[string]any{
			"status":        string(video.Status),
			"video_url":     video.VideoURL,
			"error_message": video.ErrorMessage,
			"task_id":       video.TaskID,
			"completed_at":  video.CompletedAt,
			"updated_at":    video.UpdatedAt,
		})
	if result.Error != nil {
		return r.mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrVideoNotFound
	}
	return nil
}

// Delete removes a job owned by userID
func (r *VideoRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Video{})
	if result.Error != nil {
		return r.mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrVideoNotFound
	}
	r.logger.Info("Video deleted", map[string]any{
		"video_id": id.String(),
		"user_id":  userID.String(),
	})
	return nil
}
