package gateway

import (
	"context"
	"time"
)

// CRMLocation is the account metadata returned when validating credentials
type CRMLocation struct {
	ID           string
	Name         string
	BusinessName string
	Email        string
	Phone        string
	CompanyID    string
}

// SocialAccount is a connected social profile of a location
type SocialAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Type     string `json:"type,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// SocialPost is a post to publish on one or more accounts
type SocialPost struct {
	CRMUserID    string
	AccountIDs   []string
	Summary      string
	MediaURL     string
	ScheduleDate *time.Time
}

// CRMClient wraps the CRM API used for embedded locations and social publishing.
// Calls taking apiKey act on behalf of a connected sub-account.
type CRMClient interface {
	// VerifyLocation checks a location with the agency credential
	VerifyLocation(ctx context.Context, locationID string) (*CRMLocation, error)
	// AgencyConfigured reports whether VerifyLocation can be used
	AgencyConfigured() bool

	GetLocation(ctx context.Context, apiKey, locationID string) (*CRMLocation, error)
	GetBusiness(ctx context.Context, apiKey, locationID string) (*CRMLocation, error)
	ListSocialAccounts(ctx context.Context, apiKey, locationID string) ([]SocialAccount, error)
	FirstUserID(ctx context.Context, apiKey, locationID string) (string, error)
	CreateSocialPost(ctx context.Context, apiKey, locationID string, post SocialPost) (map[string]any, error)
	// UploadMediaFromURL re-hosts a remote file in the CRM media library and returns its URL
	UploadMediaFromURL(ctx context.Context, apiKey, locationID, sourceURL string) (string, error)
}
