package migration

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/model"
)

// step is one versioned schema change. Steps run in order, each inside its
// own transaction together with its version row.
type step struct {
	version string
	details string
	run     func(tx *gorm.DB) error
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	steps        []step
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	indexes := NewIndexManager(logger)
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		steps: []step{
			{version: "1.0.0", details: "Base schema", run: autoMigrateModels},
			{version: "1.1.0", details: "Lookup and partial indexes", run: indexes.CreateIndexes},
			{version: "1.1.1", details: "Storage tweaks", run: indexes.ApplyStorageTweaks},
		},
	}
}

// CurrentSchemaVersion is the version of the last known step
func (m *MigrationManager) CurrentSchemaVersion() string {
	return m.steps[len(m.steps)-1].version
}

// RunMigrations applies every step not yet recorded
func (m *MigrationManager) RunMigrations() error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": m.CurrentSchemaVersion(),
	})

	if err := m.db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{"error": err.Error()})
		return err
	}

	applied, err := m.appliedVersions(context.Background())
	if err != nil {
		return err
	}

	for _, s := range m.steps {
		if applied[s.version] {
			continue
		}
		m.logger.Info("Applying migration", map[string]any{"version": s.version, "details": s.details})

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := s.run(tx); err != nil {
				return err
			}
			return tx.Create(&model.MigrationVersion{
				Version:   s.version,
				AppliedAt: m.timeProvider.Now(),
				Details:   s.details,
			}).Error
		})
		if err != nil {
			m.logger.Error("Migration failed", map[string]any{"version": s.version, "error": err.Error()})
			return fmt.Errorf("migration %s: %w", s.version, err)
		}
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": m.CurrentSchemaVersion(),
	})
	return nil
}

// GetCurrentVersion returns the most recently applied version, or "" for a fresh database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	var version model.MigrationVersion
	err := m.db.WithContext(ctx).Order("applied_at desc, id desc").First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version.Version, nil
}

func (m *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var rows []model.MigrationVersion
	if err := m.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(rows))
	for _, r := range rows {
		applied[r.Version] = true
	}
	return applied, nil
}

func autoMigrateModels(tx *gorm.DB) error {
	return tx.AutoMigrate(
		&model.User{},
		&model.CreditEntry{},
		&model.Video{},
		&model.Transaction{},
		&model.Integration{},
		&model.EmbeddedSession{},
	)
}
