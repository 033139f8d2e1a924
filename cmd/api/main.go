package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/billing"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/identity"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/integration"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/video"

	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/crm"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/dispatch"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/errortracking"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/payment"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/security"
	timeProvider "github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/config"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

// sessionPurgeInterval is how often expired embedded sessions are deleted
const sessionPurgeInterval = 15 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		CallerInfo: cfg.Logger.CallerInfo,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Flush() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server stopped with error", map[string]any{"error": err.Error()})
		_ = appLogger.Flush()
		os.Exit(1)
	}
	appLogger.Info("Server exited gracefully", nil)
}

func run(cfg *config.Config, appLogger coreport.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := timeProvider.NewRealTimeProvider()

	reporter, err := errortracking.NewReporter(errortracking.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.App.Name + "@" + version,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("error tracking: %w", err)
	}
	defer reporter.Flush(2 * time.Second)

	// Connect to the database
	dbManager := database.NewManager(database.FromAppConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			appLogger.Error("Failed to close database", map[string]any{"error": err.Error()})
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := dbManager.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	uow := dbManager.CreateUnitOfWork()

	var collector *metrics.Collector
	var observer video.Observer
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(version)
		if sqlDB, err := dbManager.DB().DB(); err == nil {
			collector.RegisterDB(sqlDB)
		}
		observer = collector
	}

	// Security adapters
	tokens, err := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, tp)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	handshakes := security.NewHMACHandshakeSigner(cfg.Auth.JWTSecret)
	sessions := security.NewRandomSessionTokens()
	passwords := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Outbound gateways
	crmClient := crm.NewClient(crm.Config{
		BaseURL:      cfg.CRM.BaseURL,
		APIVersion:   cfg.CRM.APIVersion,
		AgencyAPIKey: cfg.CRM.AgencyAPIKey,
		CompanyID:    cfg.CRM.CompanyID,
		Timeout:      cfg.CRM.Timeout,
		MaxRetries:   cfg.CRM.MaxRetries,
	}, appLogger)
	worker := dispatch.NewClient(dispatch.Config{
		PromptEnhanceURL: cfg.Dispatch.PromptEnhanceURL,
		Timeout:          cfg.Dispatch.Timeout,
		MaxRetries:       cfg.Dispatch.MaxRetries,
	}, appLogger)
	payments := payment.NewStripeGateway(payment.Config{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		Currency:      cfg.Payment.Currency,
	}, appLogger)

	table, err := video.NewDispatchTable(cfg.Dispatch.DefaultURL, cfg.Dispatch.Endpoints)
	if err != nil {
		return err
	}
	queue := video.NewDispatchQueue(worker, cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.Timeout, appLogger, observer)

	// Use cases
	ledgerService := ledger.NewService(uow, tp, appLogger)
	identityService := identity.NewService(uow, tokens, handshakes, sessions, passwords, crmClient, identity.Settings{
		SessionTTL:   cfg.Auth.SessionTTL,
		HandshakeTTL: cfg.Auth.HandshakeTTL,
		DevMode:      cfg.App.DevMode,
	}, tp, appLogger)
	videoService := video.NewService(video.Config{
		UnitOfWork:   uow,
		Ledger:       ledgerService,
		Table:        table,
		Queue:        queue,
		Enhancer:     worker,
		CallbackURL:  strings.TrimRight(cfg.App.PublicBaseURL, "/") + "/api/videos/callback",
		TimeProvider: tp,
		Logger:       appLogger,
		Observer:     observer,
	})
	billingService := billing.NewService(uow, ledgerService, payments, cfg.App.PublicBaseURL, tp, appLogger)
	integrationService := integration.NewService(uow, crmClient, tp, appLogger)

	// HTTP surface
	handlers := routes.Handlers{
		Auth:        handler.NewAuthHandler(identityService, appLogger),
		Videos:      handler.NewVideoHandler(videoService, cfg.Callback.Secret, appLogger),
		Billing:     handler.NewBillingHandler(billingService, appLogger),
		Integration: handler.NewIntegrationHandler(integrationService, appLogger),
		Health:      handler.NewHealthHandler(dbManager, version, appLogger),
	}
	var metricsMiddleware gin.HandlerFunc
	if collector != nil {
		handlers.Metrics = collector.Handler()
		metricsMiddleware = collector.Middleware()
	}

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, reporter, cfg.Server.CORSOrigins, metricsMiddleware)
	routes.SetupRoutes(router, handlers, identityService, routes.EmbedOptions{
		Sign:           identityService.Handshake,
		RefererDomains: cfg.Auth.AllowedRefererDomains,
		TTL:            cfg.Auth.HandshakeTTL,
	}, cfg.Metrics.Path)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting server", map[string]any{
			"addr":    server.Addr,
			"env":     cfg.Environment,
			"version": version,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		purgeSessions(gctx, uow, tp, appLogger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
		}
		// Jobs already accepted still reach the worker
		appLogger.Info("Draining dispatch queue...", nil)
		if err := queue.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("Dispatch queue did not drain", map[string]any{"error": err.Error()})
		}
		return nil
	})

	return g.Wait()
}

// purgeSessions deletes expired embedded sessions until ctx is done
func purgeSessions(ctx context.Context, uow *database.UnitOfWork, tp coreport.TimeProvider, appLogger coreport.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uow.PurgeExpiredSessions(ctx, tp.Now())
			if err != nil {
				appLogger.Warn("Failed to purge expired sessions", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				appLogger.Debug("Purged expired sessions", map[string]any{"count": n})
			}
		}
	}
}
