package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// UserRepository defines the methods to interact with user data and balances
type UserRepository interface {
	// GetByID retrieves a user by ID
	//
	// Possible errors:
	// - ErrUserNotFound: If user with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// GetByLogin retrieves a user whose username or email equals login
	//
	// Possible errors:
	// - ErrUserNotFound: If no user matches
	GetByLogin(ctx context.Context, login string) (*entity.User, error)

	// GetByLocationID retrieves the embedded user bound to an external location
	//
	// Possible errors:
	// - ErrUserNotFound: If no user is bound to the location
	GetByLocationID(ctx context.Context, locationID string) (*entity.User, error)

	// ExistsByUsernameOrEmail checks uniqueness before registration
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// List returns all users ordered by creation time, newest first
	List(ctx context.Context) ([]*entity.User, error)

	// Create creates a new user
	//
	// Possible errors:
	// - ErrDuplicateUser: If username, email or location is already taken
	Create(ctx context.Context, user *entity.User) error

	// UpdateProfile persists email, business name and password hash
	//
	// Possible errors:
	// - ErrUserNotFound: If user doesn't exist
	// - ErrDuplicateUser: If the new email is taken
	UpdateProfile(ctx context.Context, user *entity.User) error

	// AdjustCredits changes the balance by delta in a single conditional
	// statement that never lets the balance go below zero, and locks the row
	// for the rest of the surrounding transaction.
	// Returns the updated user.
	//
	// Possible errors:
	// - ErrInsufficientCredits: If balance + delta would be negative
	// - ErrUserNotFound: If user doesn't exist
	AdjustCredits(ctx context.Context, userID uuid.UUID, delta int64) (*entity.User, error)
}
