package migration

import (
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// IndexManager manages PostgreSQL-specific indexes the model tags cannot express
type IndexManager struct {
	logger coreport.Logger
}

// NewIndexManager creates a new index manager
func NewIndexManager(logger coreport.Logger) *IndexManager {
	return &IndexManager{logger: logger}
}

var indexStatements = []struct {
	name string
	sql  string
}{
	{
		// unresolved jobs are scanned when flagging stale videos
		name: "idx_videos_unresolved",
		sql: `CREATE INDEX IF NOT EXISTS idx_videos_unresolved
			ON videos (created_at)
			WHERE status IN ('pending', 'processing')`,
	},
	{
		name: "idx_videos_task_id",
		sql: `CREATE INDEX IF NOT EXISTS idx_videos_task_id
			ON videos (task_id)
			WHERE task_id <> ''`,
	},
	{
		name: "idx_credit_entries_user_kind",
		sql: `CREATE INDEX IF NOT EXISTS idx_credit_entries_user_kind
			ON credit_entries (user_id, kind)`,
	},
	{
		name: "idx_payments_pending",
		sql: `CREATE INDEX IF NOT EXISTS idx_payments_pending
			ON payments (created_at)
			WHERE status = 'pending'`,
	},
	{
		name: "idx_credit_entries_created_at_brin",
		sql: `CREATE INDEX IF NOT EXISTS idx_credit_entries_created_at_brin
			ON credit_entries USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
	},
	{
		name: "idx_users_username_lower",
		sql:  `CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))`,
	},
}

// CreateIndexes creates the lookup and partial indexes
func (m *IndexManager) CreateIndexes(tx *gorm.DB) error {
	for _, stmt := range indexStatements {
		if err := tx.Exec(stmt.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": stmt.name,
				"error": err.Error(),
			})
			return err
		}
	}
	m.logger.Info("PostgreSQL indexes created", map[string]any{"count": len(indexStatements)})
	return nil
}

// ApplyStorageTweaks tunes the hot tables. Each tweak runs behind a savepoint
// so a failure is logged without aborting the migration.
func (m *IndexManager) ApplyStorageTweaks(tx *gorm.DB) error {
	tweaks := []string{
		// balances and job rows are updated in place often
		`ALTER TABLE users SET (fillfactor = 90)`,
		`ALTER TABLE videos SET (fillfactor = 90)`,
		`ALTER TABLE credit_entries ALTER COLUMN user_id SET STATISTICS 1000`,
	}
	for _, sql := range tweaks {
		if err := tx.SavePoint("storage_tweak").Error; err != nil {
			return err
		}
		if err := tx.Exec(sql).Error; err != nil {
			m.logger.Warn("Failed to apply storage tweak", map[string]any{
				"sql":   sql,
				"error": err.Error(),
			})
			if err := tx.RollbackTo("storage_tweak").Error; err != nil {
				return err
			}
		}
	}
	return nil
}
