package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// poolPressure is the share of open connections in use above which the
// monitor warns
const poolPressure = 0.8

// ConnectionPoolMonitor logs pool exhaustion. Prometheus reads the same
// stats through its DB stats collector.
type ConnectionPoolMonitor struct {
	source   func() (*sql.DB, error)
	logger   coreport.Logger
	last     sql.DBStats
	mutex    sync.RWMutex
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewConnectionPoolMonitor creates a monitor for the manager's pool
func NewConnectionPoolMonitor(m *Manager, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		source:   func() (*sql.DB, error) { return m.DB().DB() },
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start samples the pool immediately and then every interval
func (m *ConnectionPoolMonitor) Start(interval time.Duration) error {
	if err := m.collect(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.collect(); err != nil {
					m.logger.Error("Failed to collect connection pool stats", map[string]any{
						"error": err.Error(),
					})
				}
			case <-m.stopChan:
				return
			}
		}
	}()
	return nil
}

// Stop ends monitoring; safe to call more than once
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Stats returns the last sample
func (m *ConnectionPoolMonitor) Stats() sql.DBStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.last
}

func (m *ConnectionPoolMonitor) collect() error {
	sqlDB, err := m.source()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	stats := sqlDB.Stats()

	m.mutex.Lock()
	m.last = stats
	m.mutex.Unlock()

	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > float64(stats.MaxOpenConnections)*poolPressure {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     stats.InUse,
			"max_open":   stats.MaxOpenConnections,
			"idle":       stats.Idle,
			"wait_count": stats.WaitCount,
			"wait_time":  stats.WaitDuration.String(),
		})
	}
	return nil
}
