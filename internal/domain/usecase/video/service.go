package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
)

// Service runs the generation job lifecycle
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	table        *DispatchTable
	queue        *DispatchQueue
	enhancer     gateway.PromptEnhancer
	callbackURL  string
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	observer     Observer
}

// Config carries the wiring of a video Service
type Config struct {
	UnitOfWork   persistence.UnitOfWork
	Ledger       usecase.LedgerUseCase
	Table        *DispatchTable
	Queue        *DispatchQueue
	Enhancer     gateway.PromptEnhancer
	CallbackURL  string
	TimeProvider coreport.TimeProvider
	Logger       coreport.Logger
	Observer     Observer
}

// NewService creates a new video service
func NewService(cfg Config) *Service {
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Service{
		uow:          cfg.UnitOfWork,
		ledger:       cfg.Ledger,
		table:        cfg.Table,
		queue:        cfg.Queue,
		enhancer:     cfg.Enhancer,
		callbackURL:  cfg.CallbackURL,
		timeProvider: cfg.TimeProvider,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
	}
}

// Create charges the user and stores a pending job in one transaction, then
// queues the dispatch. A dispatch failure never undoes the charge.
func (s *Service) Create(ctx context.Context, user *entity.User, in usecase.CreateVideoInput) (*usecase.CreateVideoResult, error) {
	service, ok := entity.ParseService(in.Service)
	if !ok {
		return nil, errs.NewValidationError("service", fmt.Sprintf("%q is not supported", in.Service))
	}

	req := entity.VideoRequest{
		Prompt:            in.Prompt,
		AdditionalDetails: strings.TrimSpace(in.AdditionalDetails),
		Service:           service,
		Tier:              entity.ParseTier(in.Model),
		Type:              entity.VideoType(strings.ToLower(strings.TrimSpace(in.VideoType))),
		AspectRatio:       strings.TrimSpace(in.AspectRatio),
		RequestedEmail:    strings.TrimSpace(in.RequestedEmail),
		Images: entity.SourceImages{
			ImageURL:      strings.TrimSpace(in.ImageURL),
			StartFrameURL: strings.TrimSpace(in.StartFrameURL),
			EndFrameURL:   strings.TrimSpace(in.EndFrameURL),
		},
	}
	if req.Type == "" && !req.Images.Empty() {
		req.Type = entity.ImageToVideo
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	route, ok := s.table.Lookup(RouteKey{Service: req.Service, Tier: req.Tier, Type: req.Type})
	if !ok {
		return nil, errs.NewValidationError("service", "is currently unavailable")
	}

	cost := entity.CostFor(req.Service, req.Tier)
	video, err := entity.NewVideo(user.ID, req, cost, s.timeProvider)
	if err != nil {
		return nil, err
	}

	var charged *entity.User
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		updated, err := s.ledger.Debit(txCtx, user.ID, cost,
			fmt.Sprintf("Used %d credits for video generation", cost),
			entity.VideoUsageReference(video.ID))
		if err != nil {
			return err
		}
		if err := s.uow.Videos(txCtx).Create(txCtx, video); err != nil {
			return err
		}
		charged = updated
		return nil
	})
	if err != nil {
		if !errs.IsInsufficientCreditsError(err) {
			s.logger.Error("Failed to create video job", map[string]any{
				"user_id": user.ID.String(),
				"service": string(req.Service),
				"error":   err.Error(),
			})
		}
		return nil, err
	}

	s.observer.JobCreated(string(video.Service), string(video.Tier), cost)
	s.logger.Info("Video job created", map[string]any{
		"video_id": video.ID.String(),
		"user_id":  user.ID.String(),
		"service":  string(video.Service),
		"tier":     string(video.Tier),
		"type":     string(video.Type),
		"credits":  cost,
	})

	s.queue.Enqueue(DispatchJob{
		Endpoint: route.Endpoint,
		Payload:  route.Payload(video, user, s.callbackURL),
	})

	return &usecase.CreateVideoResult{
		ID:        video.ID.String(),
		Status:    video.Status,
		Credits:   cost,
		Balance:   charged.Credits(),
		CreatedAt: video.CreatedAt,
	}, nil
}

// HandleCallback applies a worker report. Reports for unknown or already
// resolved jobs are ignored; a failure refunds the charged credits once.
func (s *Service) HandleCallback(ctx context.Context, in usecase.CallbackInput) (usecase.CallbackOutcome, error) {
	rawID := strings.TrimSpace(in.VideoID)
	if rawID == "" {
		return "", errs.NewValidationError("video_id", "is required")
	}
	// an id that is not ours can never match a job; answer like an unknown job
	videoID, err := uuid.Parse(rawID)
	if err != nil {
		s.logger.Warn("Callback for unparseable video id", map[string]any{
			"video_id": rawID,
			"status":   in.Status,
		})
		return usecase.CallbackIgnored, nil
	}

	status := entity.VideoStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if status == "" {
		status = entity.VideoCompleted
	}
	switch status {
	case entity.VideoProcessing, entity.VideoFailed:
	case entity.VideoCompleted:
		if strings.TrimSpace(in.VideoURL) == "" {
			return "", errs.NewValidationError("video_url", "is required for completed videos")
		}
	default:
		return "", errs.NewValidationError("status", fmt.Sprintf("%q is not a valid status", in.Status))
	}

	outcome := usecase.CallbackIgnored
	var refunded int64
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		video, err := s.uow.Videos(txCtx).GetByIDForUpdate(txCtx, videoID)
		if errors.Is(err, errs.ErrVideoNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var transitionErr error
		switch status {
		case entity.VideoProcessing:
			transitionErr = video.MarkProcessing(in.TaskID, s.timeProvider)
		case entity.VideoCompleted:
			transitionErr = video.MarkCompleted(strings.TrimSpace(in.VideoURL), in.TaskID, s.timeProvider)
		case entity.VideoFailed:
			transitionErr = video.MarkFailed(failureMessage(in.ErrorMessage), in.TaskID, s.timeProvider)
		}
		if errors.Is(transitionErr, errs.ErrInvalidTransition) {
			return nil
		}
		if transitionErr != nil {
			return transitionErr
		}

		if err := s.uow.Videos(txCtx).Update(txCtx, video); err != nil {
			return err
		}
		if status == entity.VideoFailed {
			n, err := s.refund(txCtx, video, "Refund for failed video generation")
			if err != nil {
				return err
			}
			refunded = n
		}
		outcome = usecase.CallbackApplied
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply video callback", map[string]any{
			"video_id": videoID.String(),
			"status":   string(status),
			"error":    err.Error(),
		})
		return "", err
	}

	s.observer.CallbackHandled(string(status), outcome == usecase.CallbackApplied)
	if refunded > 0 {
		s.observer.Refunded("failed", refunded)
	}
	fields := map[string]any{
		"video_id": videoID.String(),
		"status":   string(status),
		"task_id":  in.TaskID,
		"outcome":  string(outcome),
	}
	if outcome == usecase.CallbackIgnored {
		s.logger.Warn("Video callback ignored", fields)
	} else {
		s.logger.Info("Video callback applied", fields)
	}
	return outcome, nil
}

// refund credits back what the job was charged, keyed by job id so it
// happens at most once whatever path triggers it
func (s *Service) refund(ctx context.Context, video *entity.Video, reason string) (int64, error) {
	if video.ChargedCredits <= 0 {
		return 0, nil
	}
	_, err := s.ledger.Credit(ctx, video.UserID, video.ChargedCredits, entity.CreditKindRefund,
		reason, entity.VideoRefundReference(video.ID))
	if errs.IsDuplicateLedgerEntry(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return video.ChargedCredits, nil
}

// List returns the user's jobs, most recent first
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]usecase.VideoView, error) {
	videos, err := s.uow.Videos(ctx).ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	views := make([]usecase.VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, toView(v, now))
	}
	return views, nil
}

// Get returns one of the user's jobs
func (s *Service) Get(ctx context.Context, userID, videoID uuid.UUID) (*usecase.VideoView, error) {
	v, err := s.uow.Videos(ctx).GetForOwner(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	view := toView(v, s.timeProvider.Now())
	return &view, nil
}

// Delete removes one of the user's jobs. A job still pending or processing
// is refunded in the same transaction; resolved jobs are not.
func (s *Service) Delete(ctx context.Context, userID, videoID uuid.UUID) error {
	var refunded int64
	err := persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		video, err := s.uow.Videos(txCtx).GetByIDForUpdate(txCtx, videoID)
		if err != nil {
			return err
		}
		if video.UserID != userID {
			return errs.ErrVideoNotFound
		}
		if !video.IsTerminal() {
			n, err := s.refund(txCtx, video, "Refund for deleted unfinished video")
			if err != nil {
				return err
			}
			refunded = n
		}
		return s.uow.Videos(txCtx).Delete(txCtx, videoID, userID)
	})
	if err != nil {
		if !errs.IsNotFoundError(err) {
			s.logger.Error("Failed to delete video", map[string]any{
				"video_id": videoID.String(),
				"user_id":  userID.String(),
				"error":    err.Error(),
			})
		}
		return err
	}

	if refunded > 0 {
		s.observer.Refunded("deleted", refunded)
	}
	s.logger.Info("Video deleted", map[string]any{
		"video_id": videoID.String(),
		"user_id":  userID.String(),
		"refunded": refunded,
	})
	return nil
}

// EnhancePrompt asks the automation workflow for a richer prompt
func (s *Service) EnhancePrompt(ctx context.Context, prompt, videoType string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errs.NewValidationError("prompt", "is required")
	}
	if videoType == "" {
		videoType = string(entity.TextToVideo)
	}
	if s.enhancer == nil {
		return "", errs.NewUpstreamError("prompt-enhancer", "Prompt enhancement is not available", 0, nil)
	}

	enhanced, err := s.enhancer.EnhancePrompt(ctx, prompt, videoType)
	if err != nil {
		if errors.Is(err, errs.ErrUpstream) {
			return "", err
		}
		return "", errs.NewUpstreamError("prompt-enhancer", "Failed to enhance prompt", 0, err)
	}
	if strings.TrimSpace(enhanced) == "" {
		return "", errs.NewUpstreamError("prompt-enhancer", "Prompt enhancement returned no result", 0, nil)
	}
	return enhanced, nil
}

func failureMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "Video generation failed"
	}
	return msg
}

func toView(v *entity.Video, now time.Time) usecase.VideoView {
	return usecase.VideoView{
		ID:                v.ID.String(),
		Prompt:            v.Prompt,
		AdditionalDetails: v.AdditionalDetails,
		Service:           v.Service,
		Tier:              v.Tier,
		VideoType:         v.Type,
		AspectRatio:       v.AspectRatio,
		Images:            v.Images,
		Status:            v.Status,
		VideoURL:          v.VideoURL,
		ErrorMessage:      v.ErrorMessage,
		ChargedCredits:    v.ChargedCredits,
		Stale:             v.IsStale(now),
		CreatedAt:         v.CreatedAt,
		CompletedAt:       v.CompletedAt,
	}
}
