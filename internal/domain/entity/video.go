package entity

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	tport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// VideoStatus is a step of the generation job lifecycle
type VideoStatus string

// Video statuses
const (
	VideoPending    VideoStatus = "pending"
	VideoProcessing VideoStatus = "processing"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
)

// VideoType tells whether the job starts from text or from images
type VideoType string

// Video types
const (
	TextToVideo  VideoType = "text-to-video"
	ImageToVideo VideoType = "image-to-video"
)

// DefaultAspectRatio is used when the request does not specify one
const DefaultAspectRatio = "landscape"

// StaleAfter is the age past which an unresolved job is flagged stale
const StaleAfter = time.Hour

// SourceImages holds the image URLs an image-to-video job starts from
type SourceImages struct {
	ImageURL      string `json:"image_url,omitempty"`
	StartFrameURL string `json:"start_frame_url,omitempty"`
	EndFrameURL   string `json:"end_frame_url,omitempty"`
}

// Empty reports whether no image was supplied
func (s SourceImages) Empty() bool {
	return s.ImageURL == "" && s.StartFrameURL == "" && s.EndFrameURL == ""
}

// VideoRequest carries the validated inputs of a new job
type VideoRequest struct {
	Prompt            string
	AdditionalDetails string
	Service           Service
	Tier              Tier
	Type              VideoType
	AspectRatio       string
	RequestedEmail    string
	Images            SourceImages
}

// Video is a generation job and its lifecycle record
type Video struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Prompt            string
	AdditionalDetails string
	Service           Service
	Tier              Tier
	Type              VideoType
	AspectRatio       string
	RequestedEmail    string
	Images            SourceImages
	ChargedCredits    int64 // exact amount debited at creation; refunds use this
	Status            VideoStatus
	VideoURL          string
	ErrorMessage      string
	TaskID            string // identifier assigned by the external worker
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// Validate checks a request before anything is charged
func (r *VideoRequest) Validate() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return errs.NewValidationError("prompt", "is required")
	}
	if r.Type == "" {
		r.Type = TextToVideo
	}
	if r.Type != TextToVideo && r.Type != ImageToVideo {
		return errs.NewValidationError("videoType", "must be text-to-video or image-to-video")
	}
	if r.Tier == "" {
		r.Tier = TierStandard
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.RequestedEmail != "" && !ValidEmail(strings.ToLower(strings.TrimSpace(r.RequestedEmail))) {
		return errs.NewValidationError("requestedEmail", "is invalid")
	}

	if r.Type == TextToVideo {
		r.Images = SourceImages{}
		return nil
	}
	switch r.Service {
	case ServiceVeo3:
		if r.Images.StartFrameURL == "" || r.Images.EndFrameURL == "" {
			return errs.NewValidationError("images", "VEO 3 requires both start and end frame images")
		}
		r.Images.ImageURL = ""
	default:
		if r.Images.ImageURL == "" {
			return errs.NewValidationError("imageUrl", "is required for image-to-video")
		}
		r.Images.StartFrameURL, r.Images.EndFrameURL = "", ""
	}
	for _, u := range []string{r.Images.ImageURL, r.Images.StartFrameURL, r.Images.EndFrameURL} {
		if u != "" && !isHTTPURL(u) {
			return errs.NewValidationError("images", "must be absolute http(s) URLs")
		}
	}
	return nil
}

// NewVideo creates a pending job that has been charged cost credits
func NewVideo(userID uuid.UUID, req VideoRequest, cost int64, timeProvider tport.TimeProvider) (*Video, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUserNotFound
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if cost <= 0 {
		return nil, errs.ErrInvalidAmount
	}

	now := timeProvider.Now()
	return &Video{
		ID:                uuid.New(),
		UserID:            userID,
		Prompt:            req.Prompt,
		AdditionalDetails: req.AdditionalDetails,
		Service:           req.Service,
		Tier:              req.Tier,
		Type:              req.Type,
		AspectRatio:       req.AspectRatio,
		RequestedEmail:    req.RequestedEmail,
		Images:            req.Images,
		ChargedCredits:    cost,
		Status:            VideoPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsTerminal reports whether the job reached completed or failed
func (v *Video) IsTerminal() bool {
	return v.Status == VideoCompleted || v.Status == VideoFailed
}

// IsStale flags jobs still unresolved after StaleAfter. Display only.
func (v *Video) IsStale(now time.Time) bool {
	return !v.IsTerminal() && now.Sub(v.CreatedAt) > StaleAfter
}

// MarkProcessing moves a pending job to processing
func (v *Video) MarkProcessing(taskID string, timeProvider tport.TimeProvider) error {
	if v.Status != VideoPending {
		return errs.ErrInvalidTransition
	}
	v.Status = VideoProcessing
	if taskID != "" {
		v.TaskID = taskID
	}
	v.UpdatedAt = timeProvider.Now()
	return nil
}

// MarkCompleted records the result URL of an unresolved job
func (v *Video) MarkCompleted(videoURL, taskID string, timeProvider tport.TimeProvider) error {
	if v.IsTerminal() {
		return errs.ErrInvalidTransition
	}
	if videoURL == "" {
		return errs.NewValidationError("video_url", "is required for completed videos")
	}
	now := timeProvider.Now()
	v.Status = VideoCompleted
	v.VideoURL = videoURL
	if taskID != "" {
		v.TaskID = taskID
	}
	v.CompletedAt = &now
	v.UpdatedAt = now
	return nil
}

// MarkFailed records the failure of an unresolved job
func (v *Video) MarkFailed(message, taskID string, timeProvider tport.TimeProvider) error {
	if v.IsTerminal() {
		return errs.ErrInvalidTransition
	}
	now := timeProvider.Now()
	v.Status = VideoFailed
	v.ErrorMessage = message
	if taskID != "" {
		v.TaskID = taskID
	}
	v.CompletedAt = &now
	v.UpdatedAt = now
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
