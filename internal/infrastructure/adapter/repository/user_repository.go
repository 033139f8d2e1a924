package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *UserRepository) mapError(operation string, err error) error {
	mapped := r.errorClassifier.MapError(err, errs.ErrUserNotFound, errs.ErrDuplicateUser)
	if mapped != errs.ErrUserNotFound && mapped != errs.ErrDuplicateUser {
		r.logger.Error("Database error when "+operation, map[string]any{"error": err.Error()})
	}
	return mapped
}

func (r *UserRepository) first(ctx context.Context, operation string, query any, args ...any) (*entity.User, error) {
	var row model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, r.mapError(operation, err)
	}
	return row.ToEntity(), nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.first(ctx, "getting user", "id = ?", id)
}

// GetByLogin matches the username case-insensitively or the email exactly
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*entity.User, error) {
	login = strings.TrimSpace(login)
	return r.first(ctx, "getting user by login", "LOWER(username) = LOWER(?) OR email = LOWER(?)", login, login)
}

// GetByLocationID retrieves the embedded user of a location
func (r *UserRepository) GetByLocationID(ctx context.Context, locationID string) (*entity.User, error) {
	return r.first(ctx, "getting user by location", "location_id = ?", locationID)
}

// ExistsByUsernameOrEmail reports whether either identifier is taken
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(username) = LOWER(?) OR email = LOWER(?)", username, email).
		Count(&count).Error
	if err != nil {
		return false, r.mapError("checking user existence", err)
	}
	return count > 0, nil
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	var rows []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.mapError("listing users", err)
	}
	users := make([]*entity.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].ToEntity())
	}
	return users, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(model.UserFromEntity(user)).Error; err != nil {
		return r.mapError("creating user", err)
	}
	return nil
}

// UpdateProfile writes the editable profile columns. The balance is never
// touched here; only AdjustCredits changes it.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email":         user.Email,
			"business_name": user.BusinessName,
			"password_hash": user.PasswordHash,
			"updated_at":    r.timeProvider.Now(),
		})
	if result.Error != nil {
		return r.mapError("updating user", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

// AdjustCredits adds delta to the balance in one conditional UPDATE, so a
// concurrent debit can never drive the balance below zero.
func (r *UserRepository) AdjustCredits(ctx context.Context, userID uuid.UUID, delta int64) (*entity.User, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.User{}).
		Where("id = ? AND credits_balance + ? >= 0", userID, delta).
		Updates(map[string]any{
			"credits_balance": gorm.Expr("credits_balance + ?", delta),
			"updated_at":      r.timeProvider.Now(),
		})
	if result.Error != nil {
		return nil, r.mapError("adjusting credits", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return nil, r.mapError("adjusting credits", err)
		}
		if count == 0 {
			return nil, errs.ErrUserNotFound
		}
		return nil, errs.NewInsufficientCreditsError(userID.String(), -delta)
	}

	return r.GetByID(ctx, userID)
}
