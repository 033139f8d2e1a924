package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerr "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
)

// CallbackSecretHeader authenticates the automation worker when a secret is set
const CallbackSecretHeader = "X-Callback-Secret"

// VideoHandler handles video job requests and worker callbacks
type VideoHandler struct {
	videos         usecase.VideoUseCase
	callbackSecret string
	logger         coreport.Logger
}

// NewVideoHandler creates a new video handler instance
func NewVideoHandler(videos usecase.VideoUseCase, callbackSecret string, logger coreport.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, callbackSecret: callbackSecret, logger: logger}
}

// Generate handles POST /api/videos/generate
func (h *VideoHandler) Generate(c *gin.Context) {
	var req dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.videos.Create(c.Request.Context(), middleware.CurrentUser(c), usecase.CreateVideoInput{
		Prompt:            req.Prompt,
		AdditionalDetails: req.AdditionalDetails,
		Service:           req.Service,
		Model:             req.Model,
		VideoType:         req.VideoType,
		AspectRatio:       req.AspectRatio,
		RequestedEmail:    req.RequestedEmail,
		ImageURL:          req.ImageURL,
		StartFrameURL:     req.StartFrameURL,
		EndFrameURL:       req.EndFrameURL,
	})
	if err != nil {
		respondError(c, h.logger, "Video creation failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "video": result})
}

// List handles GET /api/videos/list
func (h *VideoHandler) List(c *gin.Context) {
	videos, err := h.videos.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, "Video listing failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// Get handles GET /api/videos/:id
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	video, err := h.videos.Get(c.Request.Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, "Video lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video})
}

// Delete handles DELETE /api/videos/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), middleware.CurrentUser(c).ID, id); err != nil {
		respondError(c, h.logger, "Video deletion failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// Callback handles POST /api/videos/callback from the automation worker
func (h *VideoHandler) Callback(c *gin.Context) {
	if h.callbackSecret != "" {
		got := c.GetHeader(CallbackSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackSecret)) != 1 {
			h.logger.Warn("Callback with a bad secret", map[string]any{"ip": c.ClientIP()})
			respondError(c, h.logger, "", domainerr.ErrUnauthorized)
			return
		}
	}

	var req dto.VideoCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.videos.HandleCallback(c.Request.Context(), usecase.CallbackInput{
		VideoID:      req.VideoID,
		VideoURL:     req.VideoURL,
		Status:       req.Status,
		TaskID:       req.TaskID,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		respondError(c, h.logger, "Callback handling failed", err)
		return
	}
	if outcome == usecase.CallbackIgnored {
		h.logger.Debug("Callback ignored", map[string]any{"video_id": req.VideoID, "status": req.Status})
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// EnhancePrompt handles POST /api/prompts/enhance
func (h *VideoHandler) EnhancePrompt(c *gin.Context) {
	var req dto.EnhancePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	enhanced, err := h.videos.EnhancePrompt(c.Request.Context(), req.Prompt, req.VideoType)
	if err != nil {
		respondError(c, h.logger, "Prompt enhancement failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.EnhancePromptResponse{EnhancedPrompt: enhanced})
}

func videoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(c.Request.Context(),
			domainerr.ErrorCode(domainerr.ErrVideoNotFound), domainerr.ErrVideoNotFound.Error()))
		return uuid.Nil, false
	}
	return id, true
}
