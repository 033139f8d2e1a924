package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/security"
	timeProvider "github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(connect).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect opens the configured database and builds the services the
// commands share
func connect(ctx context.Context, verbose bool) (*environment, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	appLogger := logger.NewNoopLogger()
	if verbose {
		appLogger = logger.NewDefaultLogger()
	}
	tp := timeProvider.NewRealTimeProvider()

	dbManager := database.NewManager(database.FromAppConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(ctx); err != nil {
		return nil, nil, err
	}
	uow := dbManager.CreateUnitOfWork()

	env := &environment{
		uow:       uow,
		ledger:    ledger.NewService(uow, tp, appLogger),
		passwords: security.NewBcryptHasher(cfg.Auth.BcryptCost),
		clock:     tp,
		migrate: func(ctx context.Context) (string, error) {
			if err := dbManager.Migrate(ctx); err != nil {
				return "", err
			}
			return dbManager.SchemaVersion(ctx)
		},
	}
	return env, func() { _ = dbManager.Close() }, nil
}
