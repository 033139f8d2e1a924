package dto

import "time"

// ConnectCRMRequest is the body of POST /api/settings/crm
type ConnectCRMRequest struct {
	APIKey     string `json:"apiKey" binding:"required"`
	LocationID string `json:"locationId"`
}

// SocialPostRequest is the body of POST /api/social/post
type SocialPostRequest struct {
	VideoID       string     `json:"videoId"`
	AccountIDs    []string   `json:"accountIds"`
	Summary       string     `json:"summary"`
	ScheduledDate *time.Time `json:"scheduledDate"`
}
