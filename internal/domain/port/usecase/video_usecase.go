package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// CreateVideoInput is a generation request as received from a client
type CreateVideoInput struct {
	Prompt            string
	AdditionalDetails string
	Service           string
	Model             string
	VideoType         string
	AspectRatio       string
	RequestedEmail    string
	ImageURL          string
	StartFrameURL     string
	EndFrameURL       string
}

// CreateVideoResult is returned once the job is charged and stored
type CreateVideoResult struct {
	ID        string             `json:"id"`
	Status    entity.VideoStatus `json:"status"`
	Credits   int64              `json:"creditsCharged"`
	Balance   int64              `json:"creditsBalance"`
	CreatedAt time.Time          `json:"createdAt"`
}

// CallbackInput is a status report from the external worker
type CallbackInput struct {
	VideoID      string
	VideoURL     string
	Status       string
	TaskID       string
	ErrorMessage string
}

// CallbackOutcome tells what a callback did
type CallbackOutcome string

// Callback outcomes
const (
	CallbackApplied CallbackOutcome = "applied"
	CallbackIgnored CallbackOutcome = "ignored"
)

// VideoView is a job as shown to its owner
type VideoView struct {
	ID                string              `json:"id"`
	Prompt            string              `json:"prompt"`
	AdditionalDetails string              `json:"additionalDetails,omitempty"`
	Service           entity.Service      `json:"service"`
	Tier              entity.Tier         `json:"tier"`
	VideoType         entity.VideoType    `json:"videoType"`
	AspectRatio       string              `json:"aspectRatio"`
	Images            entity.SourceImages `json:"images,omitempty"`
	Status            entity.VideoStatus  `json:"status"`
	VideoURL          string              `json:"videoUrl,omitempty"`
	ErrorMessage      string              `json:"errorMessage,omitempty"`
	ChargedCredits    int64               `json:"creditsCharged"`
	Stale             bool                `json:"stale"`
	CreatedAt         time.Time           `json:"createdAt"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty"`
}

// VideoUseCase runs the generation job lifecycle
type VideoUseCase interface {
	Create(ctx context.Context, user *entity.User, in CreateVideoInput) (*CreateVideoResult, error)
	HandleCallback(ctx context.Context, in CallbackInput) (CallbackOutcome, error)
	List(ctx context.Context, userID uuid.UUID) ([]VideoView, error)
	Get(ctx context.Context, userID, videoID uuid.UUID) (*VideoView, error)
	// Delete removes an owned job; unresolved jobs are refunded
	Delete(ctx context.Context, userID, videoID uuid.UUID) error
	EnhancePrompt(ctx context.Context, prompt, videoType string) (string, error)
}
