package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxWebhookBody      = 1 << 20
)

// BillingHandler handles credit packages, checkout and payment webhooks
type BillingHandler struct {
	billing usecase.BillingUseCase
	logger  coreport.Logger
}

// NewBillingHandler creates a new billing handler instance
func NewBillingHandler(billing usecase.BillingUseCase, logger coreport.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, logger: logger}
}

// Packages handles GET /api/credits/packages
func (h *BillingHandler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": h.billing.Packages()})
}

// History handles GET /api/credits/history
func (h *BillingHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxHistoryLimit)
		}
	}

	entries, err := h.billing.History(c.Request.Context(), middleware.CurrentUser(c), limit)
	if err != nil {
		respondError(c, h.logger, "Credit history failed", err)
		return
	}

	history := make([]dto.CreditEntryResponse, 0, len(entries))
	for _, e := range entries {
		history = append(history, dto.CreditEntryResponse{
			ID:          e.ID.String(),
			Amount:      e.Amount,
			Kind:        string(e.Kind),
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Checkout handles POST /api/stripe/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.billing.CreateCheckout(c.Request.Context(), middleware.CurrentUser(c), req.Credits)
	if err != nil {
		respondError(c, h.logger, "Checkout failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Webhook handles POST /api/stripe/webhook. The raw body is needed for the
// signature check.
func (h *BillingHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, h.logger, "Payment webhook failed", err)
		return
	}
	h.logger.Debug("Payment webhook handled", map[string]any{"outcome": string(outcome)})
	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
