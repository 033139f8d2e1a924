package model

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddedSession stores the hash of an opaque embedded-session token
type EmbeddedSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID string    `gorm:"not null;size:100;uniqueIndex"`
	TokenHash  string    `gorm:"not null;size:64;uniqueIndex"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for EmbeddedSession
func (EmbeddedSession) TableName() string {
	return "embedded_sessions"
}
