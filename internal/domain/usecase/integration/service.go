package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
)

// Service connects users to the CRM and publishes their videos
type Service struct {
	uow          persistence.UnitOfWork
	crm          gateway.CRMClient
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new integration service
func NewService(
	uow persistence.UnitOfWork,
	crm gateway.CRMClient,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		crm:          crm,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Connect validates a sub-account key and stores it for the user. An empty
// locationID falls back to the user's own location.
func (s *Service) Connect(ctx context.Context, user *entity.User, apiKey, locationID string) (*entity.PublicIntegration, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" && user.LocationID != nil {
		locationID = *user.LocationID
	}
	integration, err := entity.NewIntegration(user.ID, apiKey, locationID, s.timeProvider)
	if err != nil {
		return nil, err
	}

	location, err := s.crm.GetLocation(ctx, integration.APIKey, integration.LocationID)
	if err != nil {
		s.logger.Warn("CRM credentials rejected", map[string]any{
			"user_id":     user.ID.String(),
			"location_id": locationID,
			"error":       err.Error(),
		})
		return nil, asUpstream(err, "Failed to validate API key")
	}
	integration.BusinessName = location.Name
	integration.Email = location.Email
	integration.Phone = location.Phone

	// Business details are optional; the location alone proves the key works.
	if business, err := s.crm.GetBusiness(ctx, integration.APIKey, integration.LocationID); err == nil {
		integration.BusinessName = firstNonEmpty(business.Name, integration.BusinessName)
		integration.Email = firstNonEmpty(business.Email, integration.Email)
		integration.Phone = firstNonEmpty(business.Phone, integration.Phone)
	} else {
		s.logger.Debug("CRM business lookup failed", map[string]any{
			"location_id": locationID,
			"error":       err.Error(),
		})
	}

	if err := s.uow.Integrations(ctx).Upsert(ctx, integration); err != nil {
		return nil, err
	}
	s.adoptEmail(ctx, user, integration)

	s.logger.Info("CRM integration connected", map[string]any{
		"user_id":     user.ID.String(),
		"location_id": integration.LocationID,
	})
	public := integration.Public()
	return &public, nil
}

// adoptEmail swaps a placeholder email for the CRM's address when nobody
// else holds it. Failures leave the placeholder in place.
func (s *Service) adoptEmail(ctx context.Context, user *entity.User, integration *entity.Integration) {
	email := strings.ToLower(strings.TrimSpace(integration.Email))
	if !user.HasPlaceholderEmail() || !entity.ValidEmail(email) {
		return
	}

	users := s.uow.Users(ctx)
	if other, err := users.GetByLogin(ctx, email); err == nil && other.ID != user.ID {
		s.logger.Warn("CRM email already belongs to another user", map[string]any{
			"user_id": user.ID.String(),
		})
		return
	}

	updated := *user
	updated.Email = email
	updated.BusinessName = firstNonEmpty(updated.BusinessName, integration.BusinessName)
	updated.UpdatedAt = s.timeProvider.Now()
	if err := users.UpdateProfile(ctx, &updated); err != nil {
		s.logger.Warn("Could not replace placeholder email", map[string]any{
			"user_id": user.ID.String(),
			"error":   err.Error(),
		})
		return
	}
	*user = updated
}

// Status reports the connection state for the settings page
func (s *Service) Status(ctx context.Context, user *entity.User) (*usecase.IntegrationStatus, error) {
	status := &usecase.IntegrationStatus{
		UserLocationID: user.LocationID,
		IsEmbeddedUser: user.IsEmbedded(),
	}
	integration, err := s.uow.Integrations(ctx).GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		public := integration.Public()
		status.Integration = &public
	case !errors.Is(err, errs.ErrIntegrationNotFound):
		return nil, err
	}
	return status, nil
}

// Disconnect removes the user's integration
func (s *Service) Disconnect(ctx context.Context, user *entity.User) error {
	if err := s.uow.Integrations(ctx).DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("CRM integration removed", map[string]any{"user_id": user.ID.String()})
	return nil
}

// SocialAccounts lists the social profiles connected to the user's location
func (s *Service) SocialAccounts(ctx context.Context, user *entity.User) ([]gateway.SocialAccount, error) {
	integration, err := s.connected(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.crm.ListSocialAccounts(ctx, integration.APIKey, integration.LocationID)
	if err != nil {
		return nil, asUpstream(err, "Failed to fetch connected social media accounts.")
	}
	if accounts == nil {
		accounts = []gateway.SocialAccount{}
	}
	return accounts, nil
}

// PublishVideo posts a completed video. The direct URL is tried first; if
// the CRM refuses it the file is re-hosted in the CRM and posted again.
func (s *Service) PublishVideo(ctx context.Context, user *entity.User, in usecase.PublishInput) (*usecase.PublishResult, error) {
	summary := strings.TrimSpace(in.Summary)
	if strings.TrimSpace(in.VideoID) == "" {
		return nil, errs.NewValidationError("videoId", "is required")
	}
	if len(in.AccountIDs) == 0 {
		return nil, errs.NewValidationError("accountIds", "at least one social account must be selected")
	}
	if summary == "" {
		return nil, errs.NewValidationError("summary", "a caption is required")
	}
	videoID, err := uuid.Parse(in.VideoID)
	if err != nil {
		return nil, errs.NewValidationError("videoId", "is invalid")
	}

	integration, err := s.connected(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	video, err := s.uow.Videos(ctx).GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != user.ID {
		return nil, errs.ErrForbidden
	}
	if video.Status != entity.VideoCompleted || video.VideoURL == "" {
		return nil, errs.NewValidationError("videoId", "video is not yet completed or has no URL")
	}

	crmUserID, err := s.crm.FirstUserID(ctx, integration.APIKey, integration.LocationID)
	if err != nil {
		// The post is still attempted; the CRM accepts posts without an author.
		s.logger.Warn("CRM user lookup failed", map[string]any{
			"location_id": integration.LocationID,
			"error":       err.Error(),
		})
	}

	post := gateway.SocialPost{
		CRMUserID:    crmUserID,
		AccountIDs:   in.AccountIDs,
		Summary:      summary,
		MediaURL:     video.VideoURL,
		ScheduleDate: in.ScheduleDate,
	}
	fields := map[string]any{
		"user_id":     user.ID.String(),
		"video_id":    video.ID.String(),
		"location_id": integration.LocationID,
		"accounts":    len(in.AccountIDs),
	}

	result, err := s.crm.CreateSocialPost(ctx, integration.APIKey, integration.LocationID, post)
	if err == nil {
		s.logger.Info("Video published", fields)
		return &usecase.PublishResult{Post: result, MediaURL: post.MediaURL}, nil
	}

	s.logger.Warn("Direct media URL rejected, uploading to CRM", withError(fields, err))
	hosted, err := s.crm.UploadMediaFromURL(ctx, integration.APIKey, integration.LocationID, video.VideoURL)
	if err != nil {
		return nil, asUpstream(err, "Failed to upload video to CRM media storage.")
	}
	post.MediaURL = hosted
	result, err = s.crm.CreateSocialPost(ctx, integration.APIKey, integration.LocationID, post)
	if err != nil {
		s.logger.Error("Video publish failed", withError(fields, err))
		return nil, asUpstream(err, "Failed to create social media post.")
	}

	s.logger.Info("Video published through hosted media", fields)
	return &usecase.PublishResult{Post: result, UsedUpload: true, MediaURL: hosted}, nil
}

func (s *Service) connected(ctx context.Context, userID uuid.UUID) (*entity.Integration, error) {
	integration, err := s.uow.Integrations(ctx).GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrIntegrationNotFound) || (err == nil && !integration.Connected) {
		return nil, errs.NewValidationError("integration", "CRM integration not connected")
	}
	return integration, err
}

func asUpstream(err error, message string) error {
	var upstream *errs.UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return errs.NewUpstreamError("crm", message, 0, err)
}

func withError(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
