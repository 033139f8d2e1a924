package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
)

// IntegrationHandler handles CRM settings and social publishing
type IntegrationHandler struct {
	integration usecase.IntegrationUseCase
	logger      coreport.Logger
}

// NewIntegrationHandler creates a new integration handler instance
func NewIntegrationHandler(integration usecase.IntegrationUseCase, logger coreport.Logger) *IntegrationHandler {
	return &IntegrationHandler{integration: integration, logger: logger}
}

// Status handles GET /api/settings/crm
func (h *IntegrationHandler) Status(c *gin.Context) {
	status, err := h.integration.Status(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, "Integration status failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Connect handles POST /api/settings/crm
func (h *IntegrationHandler) Connect(c *gin.Context) {
	var req dto.ConnectCRMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	integration, err := h.integration.Connect(c.Request.Context(), middleware.CurrentUser(c), req.APIKey, req.LocationID)
	if err != nil {
		respondError(c, h.logger, "CRM connect failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "integration": integration})
}

// Disconnect handles DELETE /api/settings/crm
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	if err := h.integration.Disconnect(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, h.logger, "CRM disconnect failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// Accounts handles GET /api/social/accounts
func (h *IntegrationHandler) Accounts(c *gin.Context) {
	accounts, err := h.integration.SocialAccounts(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, "Social accounts failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// Post handles POST /api/social/post
func (h *IntegrationHandler) Post(c *gin.Context) {
	var req dto.SocialPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.integration.PublishVideo(c.Request.Context(), middleware.CurrentUser(c), usecase.PublishInput{
		VideoID:      req.VideoID,
		AccountIDs:   req.AccountIDs,
		Summary:      req.Summary,
		ScheduleDate: req.ScheduledDate,
	})
	if err != nil {
		respondError(c, h.logger, "Social post failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
