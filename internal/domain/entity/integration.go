package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	tport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// Integration is a user's connection to the external CRM
type Integration struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	APIKey       string
	LocationID   string
	BusinessName string
	Email        string
	Phone        string
	Connected    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicIntegration omits the credential
type PublicIntegration struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"locationId"`
	BusinessName string    `json:"businessName,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Connected    bool      `json:"isConnected"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewIntegration validates and builds a connected integration
func NewIntegration(userID uuid.UUID, apiKey, locationID string, timeProvider tport.TimeProvider) (*Integration, error) {
	apiKey = strings.TrimSpace(apiKey)
	locationID = strings.TrimSpace(locationID)
	if apiKey == "" {
		return nil, errs.NewValidationError("apiKey", "is required")
	}
	if locationID == "" {
		return nil, errs.NewValidationError("locationId", "is required")
	}

	now := timeProvider.Now()
	return &Integration{
		ID:         uuid.New(),
		UserID:     userID,
		APIKey:     apiKey,
		LocationID: locationID,
		Connected:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Public returns the integration without its API key
func (i *Integration) Public() PublicIntegration {
	return PublicIntegration{
		ID:           i.ID.String(),
		LocationID:   i.LocationID,
		BusinessName: i.BusinessName,
		Email:        i.Email,
		Phone:        i.Phone,
		Connected:    i.Connected,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
