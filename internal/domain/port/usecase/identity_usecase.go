package usecase

import (
	"context"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// AuthResult is returned by register, login and embedded init
type AuthResult struct {
	Token string                `json:"token"`
	User  entity.UserProjection `json:"user"`
}

// Profile is the authenticated user's own view
type Profile struct {
	entity.UserProjection
	BusinessName string `json:"businessName,omitempty"`
	CRMConnected bool   `json:"crmConnected"`
}

// IdentityUseCase resolves both credential schemes to a User
type IdentityUseCase interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, login, password string) (*AuthResult, error)
	// Resolve dispatches on the token's shape to exactly one verifier
	Resolve(ctx context.Context, bearer string) (*entity.User, error)
	// InitEmbedded exchanges a verified handshake for a session token
	InitEmbedded(ctx context.Context, locationID, handshake string) (*AuthResult, error)
	Logout(ctx context.Context, bearer string) error
	Profile(ctx context.Context, user *entity.User) (*Profile, error)
	// Handshake returns a fresh signed handshake value
	Handshake() string
}
