package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
)

// IntegrationStatus is the settings view of the CRM connection
type IntegrationStatus struct {
	Integration    *entity.PublicIntegration `json:"integration"`
	UserLocationID *string                   `json:"userLocationId"`
	IsEmbeddedUser bool                      `json:"isGhlUser"`
}

// PublishInput asks to post a finished video
type PublishInput struct {
	VideoID      string
	AccountIDs   []string
	Summary      string
	ScheduleDate *time.Time
}

// PublishResult reports the CRM's answer
type PublishResult struct {
	Post       map[string]any `json:"post"`
	UsedUpload bool           `json:"usedUpload"`
	MediaURL   string         `json:"mediaUrl"`
}

// IntegrationUseCase manages the CRM connection and social publishing
type IntegrationUseCase interface {
	Connect(ctx context.Context, user *entity.User, apiKey, locationID string) (*entity.PublicIntegration, error)
	Status(ctx context.Context, user *entity.User) (*IntegrationStatus, error)
	Disconnect(ctx context.Context, user *entity.User) error
	SocialAccounts(ctx context.Context, user *entity.User) ([]gateway.SocialAccount, error)
	PublishVideo(ctx context.Context, user *entity.User, in PublishInput) (*PublishResult, error)
}
