package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups every handler the router serves
type Handlers struct {
	Auth        *handler.AuthHandler
	Videos      *handler.VideoHandler
	Billing     *handler.BillingHandler
	Integration *handler.IntegrationHandler
	Health      *handler.HealthHandler
	// Metrics serves the Prometheus endpoint; nil disables it
	Metrics gin.HandlerFunc
}

// EmbedOptions configures the embed handshake on GET /embed
type EmbedOptions struct {
	Sign           func() string
	RefererDomains []string
	TTL            time.Duration
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, resolver middleware.Resolver, embed EmbedOptions, metricsPath string) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET(metricsPath, h.Metrics)
	}
	router.GET("/embed", middleware.EmbedHandshake(embed.Sign, embed.RefererDomains, embed.TTL), h.Auth.Embed)

	api := router.Group("/api")
	auth := middleware.Auth(resolver)

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/init", h.Auth.Init)
	api.GET("/credits/packages", h.Billing.Packages)
	api.POST("/videos/callback", h.Videos.Callback)
	api.POST("/stripe/webhook", h.Billing.Webhook)

	// Authenticated routes
	private := api.Group("", auth)
	{
		private.GET("/auth/profile", h.Auth.Profile)
		private.POST("/auth/logout", h.Auth.Logout)

		private.POST("/videos/generate", h.Videos.Generate)
		private.GET("/videos/list", h.Videos.List)
		private.GET("/videos/:id", h.Videos.Get)
		private.DELETE("/videos/:id", h.Videos.Delete)
		private.POST("/prompts/enhance", h.Videos.EnhancePrompt)

		private.GET("/credits/history", h.Billing.History)
		private.POST("/stripe/checkout", h.Billing.Checkout)

		private.GET("/settings/crm", h.Integration.Status)
		private.POST("/settings/crm", h.Integration.Connect)
		private.DELETE("/settings/crm", h.Integration.Disconnect)

		private.GET("/social/accounts", h.Integration.Accounts)
		private.POST("/social/post", h.Integration.Post)
	}
}

// SetupMiddlewares configures global middlewares for the API.
// metrics and reporter may be nil.
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, reporter middleware.ErrorReporter, corsOrigins []string, metrics gin.HandlerFunc) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger, reporter))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(corsOrigins))
	if metrics != nil {
		router.Use(metrics)
	}
}
