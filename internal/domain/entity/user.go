package entity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// AuthType tells which credential scheme created the user
type AuthType string

// Auth types
const (
	AuthTypePassword AuthType = "password"
	AuthTypeEmbedded AuthType = "embedded"
)

// PlaceholderEmailDomain marks emails generated for embedded users
const PlaceholderEmailDomain = "@ghl.placeholder"

// User represents an account holding a credit balance
type User struct {
	ID             uuid.UUID // Unique identifier for the user
	Username       string    // Display name, unique
	Email          string    // Unique; a placeholder for embedded users
	PasswordHash   string    // bcrypt hash; random and unused for embedded users
	BusinessName   string    // Optional display metadata
	credits        int64     // Current credit balance, never negative
	LocationID     *string   // External location identifier for embedded users
	AuthType       AuthType  // Credential scheme
	CreatedAt      time.Time // When the user was created
	UpdatedAt      time.Time // When the user was last updated
}

// UserProjection is the public user shape returned by every identity path
type UserProjection struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Credits    int64    `json:"creditsBalance"`
	AuthType   AuthType `json:"authType"`
	LocationID *string  `json:"locationId,omitempty"`
}

// NewUser creates a new user with the given identity and initial balance
func NewUser(username, email, passwordHash string, initialCredits int64, authType AuthType, timeProvider coreport.TimeProvider) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 50 {
		return nil, errs.NewValidationError("username", "must be between 3 and 50 characters")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !ValidEmail(email) {
		return nil, errs.NewValidationError("email", "is invalid")
	}
	if passwordHash == "" {
		return nil, errs.NewValidationError("password", "is required")
	}
	if initialCredits < 0 {
		return nil, errs.NewValidationError("credits", "cannot be negative")
	}
	if authType != AuthTypePassword && authType != AuthTypeEmbedded {
		return nil, errs.NewValidationError("authType", "is invalid")
	}

	now := timeProvider.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		credits:      initialCredits,
		AuthType:     authType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewEmbeddedUser creates the user backing an embedded location
func NewEmbeddedUser(locationID, passwordHash string, timeProvider coreport.TimeProvider) (*User, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, errs.NewValidationError("location_id", "is required")
	}
	user, err := NewUser(
		"ghl_"+locationID,
		"location_"+strings.ToLower(locationID)+PlaceholderEmailDomain,
		passwordHash,
		0,
		AuthTypeEmbedded,
		timeProvider,
	)
	if err != nil {
		return nil, err
	}
	loc := locationID
	user.LocationID = &loc
	return user, nil
}

// Credits returns the current credit balance
func (u *User) Credits() int64 {
	return u.credits
}

// SetCredits updates the balance directly (for repositories hydrating stored rows)
func (u *User) SetCredits(credits int64) {
	u.credits = credits
}

// HasPlaceholderEmail reports whether the email was generated for an embedded user
func (u *User) HasPlaceholderEmail() bool {
	return strings.HasSuffix(u.Email, PlaceholderEmailDomain)
}

// IsEmbedded reports whether the user was created through an embedded session
func (u *User) IsEmbedded() bool {
	return u.AuthType == AuthTypeEmbedded
}

// Projection returns the public view of the user
func (u *User) Projection() UserProjection {
	return UserProjection{
		ID:         u.ID.String(),
		Username:   u.Username,
		Email:      u.Email,
		Credits:    u.credits,
		AuthType:   u.AuthType,
		LocationID: u.LocationID,
	}
}

// ValidEmail reports whether s is a bare, well-formed address
func ValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
